package repository

import (
	"context"
	"time"

	"github.com/questx-lab/gamification/internal/entity"
	"github.com/questx-lab/gamification/pkg/xcontext"
)

type LootBoxRepository interface {
	Create(ctx context.Context, data *entity.LootBox) error
	GetByID(ctx context.Context, id string) (*entity.LootBox, error)
	GetListByUserID(ctx context.Context, userID string) ([]entity.LootBox, error)
	// MarkOpened moves the loot box from unopened to opened. It returns
	// gorm.ErrRecordNotFound if the loot box is not unopened anymore.
	MarkOpened(ctx context.Context, id string, openedAt time.Time) error
}

type lootBoxRepository struct{}

func NewLootBoxRepository() *lootBoxRepository {
	return &lootBoxRepository{}
}

func (r *lootBoxRepository) Create(ctx context.Context, data *entity.LootBox) error {
	return xcontext.DB(ctx).Create(data).Error
}

func (r *lootBoxRepository) GetByID(ctx context.Context, id string) (*entity.LootBox, error) {
	var result entity.LootBox
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *lootBoxRepository) GetListByUserID(ctx context.Context, userID string) ([]entity.LootBox, error) {
	var result []entity.LootBox
	err := xcontext.DB(ctx).
		Where("user_id=?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *lootBoxRepository) MarkOpened(ctx context.Context, id string, openedAt time.Time) error {
	tx := xcontext.DB(ctx).
		Model(&entity.LootBox{}).
		Where("id=? AND status=?", id, entity.LootBoxUnopened).
		Updates(map[string]any{
			"status":    entity.LootBoxOpened,
			"opened_at": openedAt,
		})
	return checkSingleRow(tx)
}
