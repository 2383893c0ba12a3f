package repository

import (
	"context"
	"errors"
	"time"

	"github.com/questx-lab/gamification/internal/entity"
	"github.com/questx-lab/gamification/pkg/xcontext"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserProgressRepository interface {
	// Provision creates an empty progress of the user if it doesn't exist.
	Provision(ctx context.Context, userID string) error
	Get(ctx context.Context, userID string) (*entity.UserProgress, error)
	GetForUpdate(ctx context.Context, userID string) (*entity.UserProgress, error)
	GetByIDs(ctx context.Context, userIDs []string) ([]entity.UserProgress, error)
	GetList(ctx context.Context, offset, limit int) ([]entity.UserProgress, error)
	GetListHavingMultipliers(ctx context.Context, offset, limit int) ([]entity.UserProgress, error)
	IncreaseScore(ctx context.Context, userID string, points int64) error
	DecreaseScore(ctx context.Context, userID string, points int64) error
	DecreaseScoreAtMost(ctx context.Context, userID string, points int64) error
	UpdateLevel(ctx context.Context, userID string, level, rewardedLevel int) error
	UpdateStreak(ctx context.Context, userID string, streak int, lastActivityAt time.Time) error
	UpdatePerks(ctx context.Context, userID string, perks []entity.Perk) error
	UpdateMultipliers(ctx context.Context, userID string, multipliers []entity.Multiplier) error
	UpdateProfile(ctx context.Context, userID, displayName, avatarURL string) error
}

type userProgressRepository struct{}

func NewUserProgressRepository() *userProgressRepository {
	return &userProgressRepository{}
}

func (r *userProgressRepository) Provision(ctx context.Context, userID string) error {
	return xcontext.DB(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entity.UserProgress{
			UserID:            userID,
			Level:             1,
			RewardedLevel:     1,
			ActivePerks:       entity.Array[entity.Perk]{},
			ActiveMultipliers: entity.Array[entity.Multiplier]{},
		}).Error
}

func (r *userProgressRepository) Get(ctx context.Context, userID string) (*entity.UserProgress, error) {
	var result entity.UserProgress
	if err := xcontext.DB(ctx).Take(&result, "user_id=?", userID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *userProgressRepository) GetForUpdate(ctx context.Context, userID string) (*entity.UserProgress, error) {
	var result entity.UserProgress
	err := xcontext.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Take(&result, "user_id=?", userID).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *userProgressRepository) GetByIDs(ctx context.Context, userIDs []string) ([]entity.UserProgress, error) {
	var result []entity.UserProgress
	if len(userIDs) == 0 {
		return result, nil
	}

	if err := xcontext.DB(ctx).Find(&result, "user_id IN (?)", userIDs).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *userProgressRepository) GetList(ctx context.Context, offset, limit int) ([]entity.UserProgress, error) {
	var result []entity.UserProgress
	err := xcontext.DB(ctx).
		Order("user_id ASC").
		Offset(offset).
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *userProgressRepository) GetListHavingMultipliers(
	ctx context.Context, offset, limit int,
) ([]entity.UserProgress, error) {
	var result []entity.UserProgress
	err := xcontext.DB(ctx).
		Where("active_multipliers <> ?", "[]").
		Order("user_id ASC").
		Offset(offset).
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *userProgressRepository) IncreaseScore(ctx context.Context, userID string, points int64) error {
	tx := xcontext.DB(ctx).
		Model(&entity.UserProgress{}).
		Where("user_id=?", userID).
		Update("score", gorm.Expr("score+?", points))
	return checkSingleRow(tx)
}

// DecreaseScore only succeeds if the user has at least the given points.
// Otherwise, it returns gorm.ErrRecordNotFound.
func (r *userProgressRepository) DecreaseScore(ctx context.Context, userID string, points int64) error {
	tx := xcontext.DB(ctx).
		Model(&entity.UserProgress{}).
		Where("user_id=? AND score >= ?", userID, points).
		Update("score", gorm.Expr("score-?", points))
	return checkSingleRow(tx)
}

// DecreaseScoreAtMost decreases the score by points but never below zero.
func (r *userProgressRepository) DecreaseScoreAtMost(ctx context.Context, userID string, points int64) error {
	tx := xcontext.DB(ctx).
		Model(&entity.UserProgress{}).
		Where("user_id=?", userID).
		Update("score", gorm.Expr("CASE WHEN score >= ? THEN score-? ELSE 0 END", points, points))
	return checkSingleRow(tx)
}

func (r *userProgressRepository) UpdateLevel(ctx context.Context, userID string, level, rewardedLevel int) error {
	tx := xcontext.DB(ctx).
		Model(&entity.UserProgress{}).
		Where("user_id=?", userID).
		Updates(map[string]any{
			"level":          level,
			"rewarded_level": rewardedLevel,
		})
	return checkSingleRow(tx)
}

func (r *userProgressRepository) UpdateStreak(
	ctx context.Context, userID string, streak int, lastActivityAt time.Time,
) error {
	tx := xcontext.DB(ctx).
		Model(&entity.UserProgress{}).
		Where("user_id=?", userID).
		Updates(map[string]any{
			"streak":           streak,
			"last_activity_at": lastActivityAt,
		})
	return checkSingleRow(tx)
}

func (r *userProgressRepository) UpdatePerks(ctx context.Context, userID string, perks []entity.Perk) error {
	tx := xcontext.DB(ctx).
		Model(&entity.UserProgress{}).
		Where("user_id=?", userID).
		Update("active_perks", entity.Array[entity.Perk](perks))
	return checkSingleRow(tx)
}

func (r *userProgressRepository) UpdateMultipliers(
	ctx context.Context, userID string, multipliers []entity.Multiplier,
) error {
	tx := xcontext.DB(ctx).
		Model(&entity.UserProgress{}).
		Where("user_id=?", userID).
		Update("active_multipliers", entity.Array[entity.Multiplier](multipliers))
	return checkSingleRow(tx)
}

func (r *userProgressRepository) UpdateProfile(ctx context.Context, userID, displayName, avatarURL string) error {
	tx := xcontext.DB(ctx).
		Model(&entity.UserProgress{}).
		Where("user_id=?", userID).
		Updates(map[string]any{
			"display_name": displayName,
			"avatar_url":   avatarURL,
		})
	return checkSingleRow(tx)
}

func checkSingleRow(tx *gorm.DB) error {
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected > 1 {
		return errors.New("the number of rows effected is invalid")
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
