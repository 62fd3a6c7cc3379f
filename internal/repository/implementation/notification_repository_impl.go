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

type NotificationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.NotificationMapper
}

func NewNotificationRepository(db *gorm.DB) contract.NotificationRepository {
	return &NotificationRepositoryImpl{
		db:     db,
		mapper: mapper.NewNotificationMapper(),
	}
}

type viewerNotificationRow struct {
	model.Notification `gorm:"embedded"`
	IsRead             bool
}

type sentNotificationRow struct {
	model.Notification `gorm:"embedded"`
	ReadCount          int64
}

func (r *NotificationRepositoryImpl) Create(ctx context.Context, notification *entity.Notification) error {
	m := r.mapper.ToModel(notification)
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*notification = *r.mapper.ToEntity(m)
	return nil
}

func (r *NotificationRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Notification, error) {
	var m model.Notification
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Notification{}), specs...)

	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *NotificationRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Notification, error) {
	var models []*model.Notification
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Notification{}), specs...)

	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *NotificationRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Notification{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *NotificationRepositoryImpl) ClaimDispatch(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND dispatched_at IS NULL", id).
		Update("dispatched_at", at)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *NotificationRepositoryImpl) DeletePending(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND dispatched_at IS NULL", id).
		Delete(&model.Notification{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *NotificationRepositoryImpl) ListForViewer(ctx context.Context, viewerID uuid.UUID, specs ...specification.Specification) ([]*entity.ViewerNotification, error) {
	var rows []viewerNotificationRow
	query := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Select("notifications.*, nr.user_id IS NOT NULL AS is_read").
		Joins("LEFT JOIN notification_reads nr ON nr.notification_id = notifications.id AND nr.user_id = ?", viewerID)
	query = applySpecifications(query, specs...)

	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	res := make([]*entity.ViewerNotification, len(rows))
	for i := range rows {
		res[i] = &entity.ViewerNotification{
			Notification: *r.mapper.ToEntity(&rows[i].Notification),
			IsRead:       rows[i].IsRead,
		}
	}
	return res, nil
}

func (r *NotificationRepositoryImpl) ListSent(ctx context.Context, specs ...specification.Specification) ([]*entity.SentNotification, error) {
	var rows []sentNotificationRow
	query := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Select("notifications.*, (SELECT COUNT(*) FROM notification_reads r WHERE r.notification_id = notifications.id) AS read_count")
	query = applySpecifications(query, specs...)

	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	res := make([]*entity.SentNotification, len(rows))
	for i := range rows {
		res[i] = &entity.SentNotification{
			Notification: *r.mapper.ToEntity(&rows[i].Notification),
			ReadCount:    rows[i].ReadCount,
		}
	}
	return res, nil
}

func (r *NotificationRepositoryImpl) MarkRead(ctx context.Context, notificationID, userID uuid.UUID, at time.Time) error {
	return r.MarkManyRead(ctx, []uuid.UUID{notificationID}, userID, at)
}

// MarkManyRead inserts read records, leaving existing ones and their original read time untouched.
func (r *NotificationRepositoryImpl) MarkManyRead(ctx context.Context, notificationIDs []uuid.UUID, userID uuid.UUID, at time.Time) error {
	if len(notificationIDs) == 0 {
		return nil
	}
	reads := make([]model.NotificationRead, len(notificationIDs))
	for i, id := range notificationIDs {
		reads[i] = model.NotificationRead{NotificationID: id, UserID: userID, ReadAt: at}
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&reads).Error
}
