package store

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/beduldjakurra/InjectSTO/internal/model"
)

// InsertRows 批量写入会话行
func (s *Store) InsertRows(ctx context.Context, records []model.ProductionRecord) error {
	if len(records) == 0 {
		return nil
	}
	return s.WithTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&records).Exec(ctx); err != nil {
			return fmt.Errorf("insert production rows failed: %w", err)
		}
		return nil
	})
}

// ListRows 会话全部行，按 inject_index 升序
func (s *Store) ListRows(ctx context.Context, sessionID string) ([]model.ProductionRecord, error) {
	records := make([]model.ProductionRecord, 0, model.PartCount)
	err := s.db.NewSelect().
		Model(&records).
		Where("session_id = ?", sessionID).
		Order("inject_index ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list production rows failed: %w", err)
	}
	return records, nil
}

// GetRow 单行；不存在时返回 sql.ErrNoRows
func (s *Store) GetRow(ctx context.Context, sessionID string, index int) (*model.ProductionRecord, error) {
	var record model.ProductionRecord
	err := s.db.NewSelect().
		Model(&record).
		Where("session_id = ?", sessionID).
		Where("inject_index = ?", index).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateRow 按 (session_id, inject_index) 更新指定列并写入 updated_at，返回受影响行数
func (s *Store) UpdateRow(ctx context.Context, sessionID string, index int, cols map[string]any, at time.Time) (int64, error) {
	q := s.db.NewUpdate().Model((*model.ProductionRecord)(nil))
	for name, value := range cols {
		q = q.Set("? = ?", bun.Ident(name), value)
	}
	res, err := q.Set("updated_at = ?", at).
		Where("session_id = ?", sessionID).
		Where("inject_index = ?", index).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("update production row failed: %w", err)
	}
	return res.RowsAffected()
}
