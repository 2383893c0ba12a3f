package repository

import (
	"context"

	"github.com/questx-lab/gamification/internal/entity"
	"github.com/questx-lab/gamification/pkg/xcontext"
)

type ActivityRepository interface {
	Create(ctx context.Context, data ...*entity.Activity) error
	GetRecentByUserID(ctx context.Context, userID string, limit int) ([]entity.Activity, error)
}

type activityRepository struct{}

func NewActivityRepository() *activityRepository {
	return &activityRepository{}
}

func (r *activityRepository) Create(ctx context.Context, data ...*entity.Activity) error {
	if len(data) == 0 {
		return nil
	}

	return xcontext.DB(ctx).Create(data).Error
}

func (r *activityRepository) GetRecentByUserID(
	ctx context.Context, userID string, limit int,
) ([]entity.Activity, error) {
	var result []entity.Activity
	err := xcontext.DB(ctx).
		Where("user_id=?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
