package implementation

import (
	"context"
	"errors"
	"time"

	"github.com/filezingme/BibiChat-sub000/internal/entity"
	"github.com/filezingme/BibiChat-sub000/internal/mapper"
	"github.com/filezingme/BibiChat-sub000/internal/model"
	"github.com/filezingme/BibiChat-sub000/internal/repository/contract"
	"github.com/filezingme/BibiChat-sub000/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DirectMessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DirectMessageMapper
}

func NewDirectMessageRepository(db *gorm.DB) contract.DirectMessageRepository {
	return &DirectMessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewDirectMessageMapper(),
	}
}

func preloadReactions(db *gorm.DB) *gorm.DB {
	return db.Preload("Reactions", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	})
}

func (r *DirectMessageRepositoryImpl) Create(ctx context.Context, message *entity.DirectMessage) error {
	m := r.mapper.ToModel(message)
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error
}

func (r *DirectMessageRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DirectMessage, error) {
	var m model.DirectMessage
	query := applySpecifications(preloadReactions(r.db.WithContext(ctx)), specs...)

	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *DirectMessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DirectMessage, error) {
	var models []model.DirectMessage
	query := applySpecifications(preloadReactions(r.db.WithContext(ctx)), specs...)

	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *DirectMessageRepositoryImpl) FindByIDs(ctx context.Context, ids []string) ([]*entity.DirectMessage, error) {
	if len(ids) == 0 {
		return []*entity.DirectMessage{}, nil
	}
	var models []model.DirectMessage
	if err := preloadReactions(r.db.WithContext(ctx)).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *DirectMessageRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.DirectMessage{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *DirectMessageRepositoryImpl) LatestCreatedAt(ctx context.Context, conversationKey string) (*time.Time, error) {
	var m model.DirectMessage
	result := r.db.WithContext(ctx).
		Where("conversation_key = ?", conversationKey).
		Order("created_at DESC").Order("id DESC").
		Limit(1).
		Find(&m)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &m.CreatedAt, nil
}

// MarkMessagesRead sets read_at on the listed messages addressed to receiverID.
// Messages the receiver has not been shown stay unread.
func (r *DirectMessageRepositoryImpl) MarkMessagesRead(ctx context.Context, messageIDs []string, receiverID uuid.UUID, at time.Time) (int64, error) {
	if len(messageIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&model.DirectMessage{}).
		Where("id IN ? AND receiver_id = ? AND read_at IS NULL", messageIDs, receiverID).
		Update("read_at", at)
	return result.RowsAffected, result.Error
}

func (r *DirectMessageRepositoryImpl) CountUnreadByConversation(ctx context.Context, receiverID uuid.UUID, keys []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(keys))
	if len(keys) == 0 {
		return counts, nil
	}

	var rows []struct {
		ConversationKey string
		Unread          int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.DirectMessage{}).
		Select("conversation_key, COUNT(*) AS unread").
		Where("receiver_id = ? AND read_at IS NULL AND conversation_key IN ?", receiverID, keys).
		Group("conversation_key").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.ConversationKey] = row.Unread
	}
	return counts, nil
}

func (r *DirectMessageRepositoryImpl) AddReaction(ctx context.Context, messageID string, reaction entity.Reaction) error {
	return r.db.WithContext(ctx).Create(&model.DirectMessageReaction{
		ID:        uuid.New(),
		MessageID: messageID,
		UserID:    reaction.UserID,
		Emoji:     reaction.Emoji,
		CreatedAt: reaction.CreatedAt,
	}).Error
}

func (r *DirectMessageRepositoryImpl) RemoveReaction(ctx context.Context, messageID string, userID uuid.UUID, emoji string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).
		Delete(&model.DirectMessageReaction{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *DirectMessageRepositoryImpl) TouchConversation(ctx context.Context, message *entity.DirectMessage) error {
	userA, userB := message.SenderID, message.ReceiverID
	if userB.String() < userA.String() {
		userA, userB = userB, userA
	}
	row := model.DirectConversation{
		ConversationKey: message.ConversationKey,
		UserAID:         userA,
		UserBID:         userB,
		LastMessageID:   message.ID,
		LastMessageAt:   message.CreatedAt,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "conversation_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_message_id", "last_message_at"}),
		}).
		Create(&row).Error
}

func (r *DirectMessageRepositoryImpl) ListConversations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Conversation, int64, error) {
	var total int64
	base := specification.ConversationOf{UserID: userID}.Apply(r.db.WithContext(ctx).Model(&model.DirectConversation{}))
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.DirectConversation
	err := specification.ConversationOf{UserID: userID}.Apply(r.db.WithContext(ctx)).
		Order("last_message_at DESC").Order("conversation_key ASC").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	keys := make([]string, len(rows))
	lastIDs := make([]string, len(rows))
	for i, row := range rows {
		keys[i] = row.ConversationKey
		lastIDs[i] = row.LastMessageID
	}

	lastMessages, err := r.FindByIDs(ctx, lastIDs)
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[string]*entity.DirectMessage, len(lastMessages))
	for _, m := range lastMessages {
		byID[m.ID] = m
	}

	unread, err := r.CountUnreadByConversation(ctx, userID, keys)
	if err != nil {
		return nil, 0, err
	}

	res := make([]*entity.Conversation, len(rows))
	for i, row := range rows {
		peer := row.UserAID
		if peer == userID {
			peer = row.UserBID
		}
		res[i] = &entity.Conversation{
			ConversationKey: row.ConversationKey,
			PeerID:          peer,
			LastMessage:     byID[row.LastMessageID],
			LastActivityAt:  row.LastMessageAt,
			UnreadCount:     unread[row.ConversationKey],
		}
	}
	return res, total, nil
}
