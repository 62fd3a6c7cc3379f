package mapper

import (
	"github.com/filezingme/BibiChat-sub000/internal/dto"
	"github.com/filezingme/BibiChat-sub000/internal/entity"
	"github.com/filezingme/BibiChat-sub000/internal/model"
)

type DirectMessageMapper struct{}

func NewDirectMessageMapper() *DirectMessageMapper {
	return &DirectMessageMapper{}
}

func (m *DirectMessageMapper) ToEntity(dm *model.DirectMessage) *entity.DirectMessage {
	if dm == nil {
		return nil
	}

	reactions := make([]entity.Reaction, 0, len(dm.Reactions))
	for _, r := range dm.Reactions {
		reactions = append(reactions, entity.Reaction{
			UserID:    r.UserID,
			Emoji:     r.Emoji,
			CreatedAt: r.CreatedAt,
		})
	}

	return &entity.DirectMessage{
		ID:              dm.ID,
		ConversationKey: dm.ConversationKey,
		SenderID:        dm.SenderID,
		ReceiverID:      dm.ReceiverID,
		Content:         dm.Content,
		Type:            entity.MessageType(dm.Type),
		ReplyToID:       dm.ReplyToID,
		Reactions:       reactions,
		ReadAt:          dm.ReadAt,
		CreatedAt:       dm.CreatedAt,
	}
}

func (m *DirectMessageMapper) ToEntities(models []model.DirectMessage) []*entity.DirectMessage {
	res := make([]*entity.DirectMessage, len(models))
	for i := range models {
		res[i] = m.ToEntity(&models[i])
	}
	return res
}

// ToModel maps the message row only; reactions are written through their own table.
func (m *DirectMessageMapper) ToModel(dm *entity.DirectMessage) *model.DirectMessage {
	if dm == nil {
		return nil
	}
	return &model.DirectMessage{
		ID:              dm.ID,
		ConversationKey: dm.ConversationKey,
		SenderID:        dm.SenderID,
		ReceiverID:      dm.ReceiverID,
		Content:         dm.Content,
		Type:            string(dm.Type),
		ReplyToID:       dm.ReplyToID,
		ReadAt:          dm.ReadAt,
		CreatedAt:       dm.CreatedAt,
	}
}

func (m *DirectMessageMapper) ToResponse(dm *entity.DirectMessage) dto.DirectMessageResponse {
	reactions := make([]dto.ReactionResponse, 0, len(dm.Reactions))
	for _, r := range dm.Reactions {
		reactions = append(reactions, dto.ReactionResponse{UserID: r.UserID, Emoji: r.Emoji})
	}
	return dto.DirectMessageResponse{
		ID:              dm.ID,
		ConversationKey: dm.ConversationKey,
		SenderID:        dm.SenderID,
		ReceiverID:      dm.ReceiverID,
		Content:         dm.Content,
		Type:            string(dm.Type),
		ReplyToID:       dm.ReplyToID,
		Reactions:       reactions,
		IsRead:          dm.ReadAt != nil,
		CreatedAt:       dm.CreatedAt,
	}
}
