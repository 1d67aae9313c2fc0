package catalog

import (
	"context"
	"errors"

	"telegram-catalog/internal/layout"
	"telegram-catalog/internal/models"

	"gorm.io/gorm"
)

// ErrForeignReference is returned when an id does not exist for the bot.
var ErrForeignReference = errors.New("referenced entity does not belong to this bot")

// Store reads the catalog tables for the layout loader and the guard. Every
// query is filtered by bot identifier.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Buttons(ctx context.Context, bot string) ([]layout.Button, error) {
	var rows []models.Button
	if err := s.db.WithContext(ctx).
		Where("bot_identifier = ?", bot).
		Order("sort_order, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]layout.Button, 0, len(rows))
	for _, b := range rows {
		out = append(out, b.LayoutButton())
	}
	return out, nil
}

func (s *Store) Categories(ctx context.Context, bot string) ([]layout.Entity, error) {
	var rows []models.Category
	if err := s.db.WithContext(ctx).
		Select("id", "name", "bot_identifier").
		Where("bot_identifier = ?", bot).
		Order("sort_order, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]layout.Entity, 0, len(rows))
	for _, c := range rows {
		out = append(out, c.Entity())
	}
	return out, nil
}

func (s *Store) Products(ctx context.Context, bot string) ([]layout.Entity, error) {
	var rows []models.Product
	if err := s.db.WithContext(ctx).
		Select("id", "name", "bot_identifier").
		Where("bot_identifier = ?", bot).
		Order("sort_order, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]layout.Entity, 0, len(rows))
	for _, p := range rows {
		out = append(out, p.Entity())
	}
	return out, nil
}

func (s *Store) ParentIDs(ctx context.Context, bot string, childIDs []uint) ([]uint, error) {
	if len(childIDs) == 0 {
		return nil, nil
	}

	var ids []uint
	err := s.db.WithContext(ctx).
		Table("category_children AS cc").
		Select("DISTINCT cc.parent_id").
		Joins("JOIN categories c ON c.id = cc.parent_id").
		Where("c.bot_identifier = ? AND cc.child_id IN ?", bot, childIDs).
		Scan(&ids).Error
	return ids, err
}

// CategoriesByID loads the given categories, failing if any of them is
// missing or belongs to another bot.
func (s *Store) CategoriesByID(ctx context.Context, bot string, ids []uint) ([]*models.Category, error) {
	ids = unique(ids)
	if len(ids) == 0 {
		return []*models.Category{}, nil
	}

	var rows []*models.Category
	if err := s.db.WithContext(ctx).
		Where("bot_identifier = ? AND id IN ?", bot, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) != len(ids) {
		return nil, ErrForeignReference
	}
	return rows, nil
}

func (s *Store) ProductsByID(ctx context.Context, bot string, ids []uint) ([]*models.Product, error) {
	ids = unique(ids)
	if len(ids) == 0 {
		return []*models.Product{}, nil
	}

	var rows []*models.Product
	if err := s.db.WithContext(ctx).
		Where("bot_identifier = ? AND id IN ?", bot, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) != len(ids) {
		return nil, ErrForeignReference
	}
	return rows, nil
}

func unique(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
