package implementation

import (
	"context"
	"time"

	"github.com/filezingme/BibiChat-sub000/internal/entity"
	"github.com/filezingme/BibiChat-sub000/internal/mapper"
	"github.com/filezingme/BibiChat-sub000/internal/model"
	"github.com/filezingme/BibiChat-sub000/internal/repository/contract"
	"github.com/filezingme/BibiChat-sub000/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatLogRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatLogMapper
}

func NewChatLogRepository(db *gorm.DB) contract.ChatLogRepository {
	return &ChatLogRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatLogMapper(),
	}
}

type chatSessionRow struct {
	SessionID    string
	OwnerUserID  uuid.UUID
	LastTs       int64
	MessageCount int64
}

func (r *ChatLogRepositoryImpl) Create(ctx context.Context, entry *entity.ChatLogEntry) error {
	m := r.mapper.ToModel(entry)
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*entry = *r.mapper.ToEntity(m)
	return nil
}

func (r *ChatLogRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatLogEntry, error) {
	var models []*model.ChatLog
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.ChatLog{}), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ChatLogRepositoryImpl) SessionOwner(ctx context.Context, sessionID string) (uuid.UUID, bool, error) {
	var m model.ChatLog
	result := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Limit(1).Find(&m)
	if result.Error != nil {
		return uuid.Nil, false, result.Error
	}
	if result.RowsAffected == 0 {
		return uuid.Nil, false, nil
	}
	return m.OwnerUserID, true, nil
}

func (r *ChatLogRepositoryImpl) ListSessions(ctx context.Context, scope entity.OwnerScope, limit, offset int) ([]*entity.ChatSession, int64, error) {
	owned := specification.ByOwnerScope{Scope: scope}

	var total int64
	if err := owned.Apply(r.db.WithContext(ctx).Model(&model.ChatLog{})).Distinct("session_id").Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []chatSessionRow
	err := owned.Apply(r.db.WithContext(ctx).Model(&model.ChatLog{})).
		Select("session_id, owner_user_id, MAX(occurred_at) AS last_ts, COUNT(*) AS message_count").
		Group("session_id, owner_user_id").
		Order("last_ts DESC").Order("session_id ASC").
		Limit(limit).Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	if len(rows) == 0 {
		return []*entity.ChatSession{}, total, nil
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.SessionID
	}
	previews, err := r.latestQueries(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	res := make([]*entity.ChatSession, len(rows))
	for i, row := range rows {
		res[i] = &entity.ChatSession{
			SessionID:    row.SessionID,
			OwnerUserID:  row.OwnerUserID,
			LastActiveAt: time.UnixMilli(row.LastTs).UTC(),
			MessageCount: row.MessageCount,
			Preview:      previews[row.SessionID],
		}
	}
	return res, total, nil
}

// latestQueries returns the most recent visitor query of each session.
func (r *ChatLogRepositoryImpl) latestQueries(ctx context.Context, sessionIDs []string) (map[string]string, error) {
	var logs []model.ChatLog
	err := r.db.WithContext(ctx).
		Select("session_id, query, occurred_at").
		Where("session_id IN ?", sessionIDs).
		Order("occurred_at DESC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}

	previews := make(map[string]string, len(sessionIDs))
	for _, l := range logs {
		if _, ok := previews[l.SessionID]; !ok {
			previews[l.SessionID] = l.Query
		}
	}
	return previews, nil
}
