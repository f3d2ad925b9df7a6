package remote

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/beduldjakurra/InjectSTO/internal/model"
	"github.com/beduldjakurra/InjectSTO/internal/store"
)

// Service 远端同步服务：会话、行数据、用户偏好的增删改查，以及行变更广播
//
// 调用失败时不重试，错误以 %w 包装后原样返回。
type Service struct {
	store  *store.Store
	hub    *hub
	logger *slog.Logger
	now    func() time.Time
}

// NewService 创建远端同步服务
func NewService(st *store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  st,
		hub:    newHub(),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func remoteErr(op string, err error) error {
	return model.NewConnectivityError(model.MsgRemoteFailed, fmt.Errorf("%s: %w", op, err))
}

// Ping 连通性检查
func (s *Service) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return remoteErr("ping", err)
	}
	return nil
}

// GetActiveSession 用户最新的活动会话；没有时返回 (nil, nil)
func (s *Service) GetActiveSession(ctx context.Context, userID string) (*model.Session, error) {
	session, err := s.store.ActiveSession(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, remoteErr("get active session", err)
	}
	return session, nil
}

// CreateSession 新建活动会话（同一用户的其他会话被停用）
func (s *Service) CreateSession(ctx context.Context, name, userID string) (*model.Session, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("userId is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Production " + s.now().Format("2006-01-02")
	}

	now := s.now()
	session := &model.Session{
		ID:          uuid.NewString(),
		SessionName: name,
		CreatedBy:   userID,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, remoteErr("create session", err)
	}
	s.logger.Info("session created", slog.String("session_id", session.ID), slog.String("user", userID))
	return session, nil
}

// InitializeRows 按目录写入 N 行空数据
func (s *Service) InitializeRows(ctx context.Context, sessionID string) ([]model.ProductionRecord, error) {
	now := s.now()
	records := make([]model.ProductionRecord, 0, model.PartCount)
	for _, entry := range model.Catalog() {
		records = append(records, model.ProductionRecord{
			ID:          uuid.NewString(),
			SessionID:   sessionID,
			KodeInject:  entry.Code,
			InjectIndex: entry.Index,
			StdrtPack:   entry.PackSize,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	if err := s.store.InsertRows(ctx, records); err != nil {
		return nil, remoteErr("initialize rows", err)
	}
	s.hub.publish(model.ChangeEvent{Type: model.ChangeInsert, SessionID: sessionID, InjectIndex: -1, At: now})
	return records, nil
}

// ListRows 会话全部行（按编码下标排序）
func (s *Service) ListRows(ctx context.Context, sessionID string) ([]model.ProductionRecord, error) {
	records, err := s.store.ListRows(ctx, sessionID)
	if err != nil {
		return nil, remoteErr("list rows", err)
	}
	return records, nil
}

// GetRow 单行；尚无数据时返回 (nil, nil)
func (s *Service) GetRow(ctx context.Context, sessionID string, index int) (*model.ProductionRecord, error) {
	record, err := s.store.GetRow(ctx, sessionID, index)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, remoteErr("get row", err)
	}
	return record, nil
}

// UpdateRow 更新指定字段并写入 updated_at，随后广播 UPDATE 事件
func (s *Service) UpdateRow(ctx context.Context, sessionID string, index int, update model.RowUpdate) (*model.ProductionRecord, error) {
	if err := model.CheckIndex(index); err != nil {
		return nil, err
	}

	now := s.now()
	n, err := s.store.UpdateRow(ctx, sessionID, index, update.Columns(), now)
	if err != nil {
		return nil, remoteErr("update row", err)
	}
	if n == 0 {
		return nil, model.NewNotFoundError(model.MsgSessionGone, fmt.Errorf("row %d of session %s not found", index, sessionID), sessionID)
	}

	s.hub.publish(model.ChangeEvent{Type: model.ChangeUpdate, SessionID: sessionID, InjectIndex: index, Origin: update.Origin, At: now})
	return s.GetRow(ctx, sessionID, index)
}

// DeleteSession 删除会话及其行，随后广播 DELETE 事件
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	deleted, err := s.store.DeleteSession(ctx, sessionID)
	if err != nil {
		return remoteErr("delete session", err)
	}
	if !deleted {
		return model.NewNotFoundError(model.MsgSessionGone, fmt.Errorf("session %s not found", sessionID), sessionID)
	}
	s.hub.publish(model.ChangeEvent{Type: model.ChangeDelete, SessionID: sessionID, InjectIndex: -1, At: s.now()})
	s.logger.Info("session deleted", slog.String("session_id", sessionID))
	return nil
}

// SessionByID 按 ID 查询会话；不存在时返回 (nil, nil)
func (s *Service) SessionByID(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := s.store.SessionByID(ctx, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, remoteErr("get session", err)
	}
	return session, nil
}

// Subscribe 订阅会话行变更
func (s *Service) Subscribe(sessionID string) *Subscription {
	return s.hub.subscribe(sessionID)
}

// Subscribers 当前订阅数
func (s *Service) Subscribers(sessionID string) int {
	return s.hub.count(sessionID)
}
