package mapper

import (
	"time"

	"github.com/filezingme/BibiChat-sub000/internal/dto"
	"github.com/filezingme/BibiChat-sub000/internal/entity"
	"github.com/filezingme/BibiChat-sub000/internal/model"
)

type ChatLogMapper struct{}

func NewChatLogMapper() *ChatLogMapper {
	return &ChatLogMapper{}
}

func (m *ChatLogMapper) ToEntity(l *model.ChatLog) *entity.ChatLogEntry {
	if l == nil {
		return nil
	}
	return &entity.ChatLogEntry{
		ID:          l.ID,
		SessionID:   l.SessionID,
		OwnerUserID: l.OwnerUserID,
		Query:       l.Query,
		Answer:      l.Answer,
		IsSolved:    l.IsSolved,
		Timestamp:   time.UnixMilli(l.Timestamp).UTC(),
	}
}

func (m *ChatLogMapper) ToModel(l *entity.ChatLogEntry) *model.ChatLog {
	if l == nil {
		return nil
	}
	return &model.ChatLog{
		ID:          l.ID,
		SessionID:   l.SessionID,
		OwnerUserID: l.OwnerUserID,
		Query:       l.Query,
		Answer:      l.Answer,
		IsSolved:    l.IsSolved,
		Timestamp:   l.Timestamp.UnixMilli(),
	}
}

func (m *ChatLogMapper) ToResponse(l *entity.ChatLogEntry) dto.ChatLogResponse {
	return dto.ChatLogResponse{
		ID:        l.ID,
		SessionID: l.SessionID,
		Query:     l.Query,
		Answer:    l.Answer,
		IsSolved:  l.IsSolved,
		Timestamp: l.Timestamp,
	}
}

func (m *ChatLogMapper) SessionToResponse(s *entity.ChatSession) dto.ChatSessionResponse {
	return dto.ChatSessionResponse{
		SessionID:    s.SessionID,
		UserID:       s.OwnerUserID,
		LastActiveAt: s.LastActiveAt,
		MessageCount: s.MessageCount,
		Preview:      s.Preview,
	}
}

func (m *ChatLogMapper) ToEntities(models []*model.ChatLog) []*entity.ChatLogEntry {
	res := make([]*entity.ChatLogEntry, len(models))
	for i, l := range models {
		res[i] = m.ToEntity(l)
	}
	return res
}
