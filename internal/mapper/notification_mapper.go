package mapper

import (
	"encoding/json"

	"github.com/filezingme/BibiChat-sub000/internal/dto"
	"github.com/filezingme/BibiChat-sub000/internal/entity"
	"github.com/filezingme/BibiChat-sub000/internal/model"

	"gorm.io/datatypes"
)

type NotificationMapper struct{}

func NewNotificationMapper() *NotificationMapper {
	return &NotificationMapper{}
}

func (m *NotificationMapper) ToEntity(n *model.Notification) *entity.Notification {
	if n == nil {
		return nil
	}

	scope := entity.BroadcastScope()
	if n.TargetType == model.NotificationTargetUser && n.TargetUserID != nil {
		scope = entity.DirectScope(*n.TargetUserID)
	}

	var metadata map[string]interface{}
	if len(n.Metadata) > 0 {
		_ = json.Unmarshal(n.Metadata, &metadata)
	}

	return &entity.Notification{
		ID:              n.ID,
		Scope:           scope,
		Title:           n.Title,
		Body:            n.Body,
		Icon:            n.Icon,
		Color:           n.Color,
		BackgroundColor: n.BackgroundColor,
		Metadata:        metadata,
		CreatedBy:       n.CreatedBy,
		CreatedAt:       n.CreatedAt,
		ScheduledAt:     n.ScheduledAt,
		DispatchedAt:    n.DispatchedAt,
	}
}

func (m *NotificationMapper) ToModel(n *entity.Notification) *model.Notification {
	if n == nil {
		return nil
	}

	res := &model.Notification{
		ID:              n.ID,
		TargetType:      model.NotificationTargetAll,
		Title:           n.Title,
		Body:            n.Body,
		Icon:            n.Icon,
		Color:           n.Color,
		BackgroundColor: n.BackgroundColor,
		CreatedBy:       n.CreatedBy,
		CreatedAt:       n.CreatedAt,
		ScheduledAt:     n.ScheduledAt,
		DispatchedAt:    n.DispatchedAt,
	}
	if userID, ok := n.Scope.UserID(); ok {
		res.TargetType = model.NotificationTargetUser
		res.TargetUserID = &userID
	}
	if len(n.Metadata) > 0 {
		if raw, err := json.Marshal(n.Metadata); err == nil {
			res.Metadata = datatypes.JSON(raw)
		}
	}
	return res
}

// ToResponse renders n for one viewer; isRead is derived from that viewer's read record.
func (m *NotificationMapper) ToResponse(n *entity.Notification, isRead bool) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:              n.ID,
		TargetScope:     n.Scope,
		Title:           n.Title,
		Body:            n.Body,
		Icon:            n.Icon,
		Color:           n.Color,
		BackgroundColor: n.BackgroundColor,
		Metadata:        n.Metadata,
		CreatedAt:       n.CreatedAt,
		ScheduledAt:     n.ScheduledAt,
		IsRead:          isRead,
	}
}

func (m *NotificationMapper) ToSentResponse(n *entity.SentNotification) dto.SentNotificationResponse {
	return dto.SentNotificationResponse{
		ID:           n.ID,
		TargetScope:  n.Scope,
		Title:        n.Title,
		Body:         n.Body,
		CreatedAt:    n.CreatedAt,
		ScheduledAt:  n.ScheduledAt,
		DispatchedAt: n.DispatchedAt,
		ReadCount:    n.ReadCount,
	}
}

func (m *NotificationMapper) ToEntities(models []*model.Notification) []*entity.Notification {
	res := make([]*entity.Notification, len(models))
	for i, n := range models {
		res[i] = m.ToEntity(n)
	}
	return res
}
