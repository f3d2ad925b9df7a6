package remote

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/beduldjakurra/InjectSTO/internal/model"
)

// SettingsUpdate 用户偏好部分更新
type SettingsUpdate struct {
	IsNightMode   *bool       `json:"isNightMode,omitempty"`
	CurrentView   *model.View `json:"currentView,omitempty"`
	LastSessionID *string     `json:"lastSessionId,omitempty"`
}

// GetUserSettings 用户偏好；没有记录时返回 (nil, nil)
func (s *Service) GetUserSettings(ctx context.Context, userID string) (*model.UserSettings, error) {
	settings, err := s.store.GetUserSettings(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, remoteErr("get user settings", err)
	}
	return settings, nil
}

// UpdateUserSettings 按用户 upsert 偏好
func (s *Service) UpdateUserSettings(ctx context.Context, userID string, update SettingsUpdate) (*model.UserSettings, error) {
	if userID == "" {
		return nil, errors.New("userId is required")
	}
	if update.CurrentView != nil && !update.CurrentView.Valid() {
		v := *update.CurrentView
		return nil, model.NewValidationError(model.MsgUnknownView, fmt.Errorf("unknown view %q", v), string(v))
	}

	current, err := s.GetUserSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if current == nil {
		current = &model.UserSettings{
			ID:          uuid.NewString(),
			UserID:      userID,
			CurrentView: model.ViewMain,
			CreatedAt:   now,
		}
	}
	if update.IsNightMode != nil {
		current.IsNightMode = *update.IsNightMode
	}
	if update.CurrentView != nil {
		current.CurrentView = *update.CurrentView
	}
	if update.LastSessionID != nil {
		current.LastSessionID = *update.LastSessionID
	}
	current.UpdatedAt = now

	if err := s.store.UpsertUserSettings(ctx, current); err != nil {
		return nil, remoteErr("update user settings", err)
	}
	return s.GetUserSettings(ctx, userID)
}
