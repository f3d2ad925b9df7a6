package store

import (
	"context"
	"fmt"

	"github.com/beduldjakurra/InjectSTO/internal/model"
)

// GetUserSettings 用户偏好；不存在时返回 sql.ErrNoRows
func (s *Store) GetUserSettings(ctx context.Context, userID string) (*model.UserSettings, error) {
	var settings model.UserSettings
	if err := s.db.NewSelect().Model(&settings).Where("user_id = ?", userID).Limit(1).Scan(ctx); err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpsertUserSettings 按 user_id 写入或更新
func (s *Store) UpsertUserSettings(ctx context.Context, settings *model.UserSettings) error {
	_, err := s.db.NewInsert().
		Model(settings).
		On("CONFLICT (user_id) DO UPDATE").
		Set("is_night_mode = EXCLUDED.is_night_mode").
		Set("current_view = EXCLUDED.current_view").
		Set("last_session_id = EXCLUDED.last_session_id").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert user settings failed: %w", err)
	}
	return nil
}
