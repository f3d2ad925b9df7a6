package store

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/beduldjakurra/InjectSTO/internal/model"
)

// ActiveSession 用户最新的活动会话；不存在时返回 sql.ErrNoRows
func (s *Store) ActiveSession(ctx context.Context, userID string) (*model.Session, error) {
	var session model.Session
	err := s.db.NewSelect().
		Model(&session).
		Where("created_by = ?", userID).
		Where("is_active = ?", true).
		OrderExpr("created_at DESC, rowid DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// SessionByID 按 ID 查询会话；不存在时返回 sql.ErrNoRows
func (s *Store) SessionByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	if err := s.db.NewSelect().Model(&session).Where("id = ?", id).Limit(1).Scan(ctx); err != nil {
		return nil, err
	}
	return &session, nil
}

// CreateSession 停用该用户其他会话并写入新的活动会话
func (s *Store) CreateSession(ctx context.Context, session *model.Session) error {
	return s.WithTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().
			Model((*model.Session)(nil)).
			Set("is_active = ?", false).
			Set("updated_at = ?", session.UpdatedAt).
			Where("created_by = ?", session.CreatedBy).
			Where("is_active = ?", true).
			Exec(ctx); err != nil {
			return fmt.Errorf("deactivate sessions failed: %w", err)
		}
		if _, err := tx.NewInsert().Model(session).Exec(ctx); err != nil {
			return fmt.Errorf("insert session failed: %w", err)
		}
		return nil
	})
}

// DeleteSession 删除会话及其行数据，返回是否存在
func (s *Store) DeleteSession(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := s.WithTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*model.ProductionRecord)(nil)).Where("session_id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("delete session rows failed: %w", err)
		}
		res, err := tx.NewDelete().Model((*model.Session)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete session failed: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		deleted = n > 0
		return nil
	})
	return deleted, err
}

// TouchSession 更新会话的 updated_at
func (s *Store) TouchSession(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.NewUpdate().
		Model((*model.Session)(nil)).
		Set("updated_at = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("touch session failed: %w", err)
	}
	return nil
}
