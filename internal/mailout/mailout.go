package mailout

import (
	"context"
	"errors"
	"time"

	"telegram-catalog/internal/models"

	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 100
	batchSize    = 500
)

var ErrInvalidStatus = errors.New("status must be one of pending, sent, failed")

// Counts is the delivery breakdown of a set of mailouts.
type Counts struct {
	Total   int64 `db:"total" json:"total"`
	Sent    int64 `db:"sent" json:"sent"`
	Pending int64 `db:"pending" json:"pending"`
	Failed  int64 `db:"failed" json:"failed"`
}

type ProductCounts struct {
	ProductID uint `db:"product_id" json:"product_id"`
	Counts
}

// Service queues product mailouts for bot users and reports on them.
// Aggregates go through sqlx; row access goes through gorm.
type Service struct {
	db *gorm.DB
	x  *sqlx.DB
}

func NewService(db *gorm.DB, x *sqlx.DB) *Service {
	return &Service{db: db, x: x}
}

const countColumns = `COUNT(id) AS total,
	COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS sent,
	COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending,
	COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS failed`

// Enqueue creates one pending mailout per active user of the bot and
// returns how many were created.
func (s *Service) Enqueue(ctx context.Context, bot string, productID uint) (int, error) {
	var chatIDs []string
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("bot_identifier = ? AND status = ?", bot, "active").
		Order("id").
		Pluck("chat_id", &chatIDs).Error
	if err != nil {
		return 0, err
	}
	if len(chatIDs) == 0 {
		return 0, nil
	}

	mailouts := make([]models.Mailout, 0, len(chatIDs))
	for _, chatID := range chatIDs {
		mailouts = append(mailouts, models.Mailout{
			BotIdentifier: bot,
			ChatID:        chatID,
			ProductID:     productID,
			Status:        models.MailoutStatusPending,
		})
	}
	if err := s.db.WithContext(ctx).CreateInBatches(&mailouts, batchSize).Error; err != nil {
		return 0, err
	}
	return len(mailouts), nil
}

// Statistics counts the mailouts of one product.
func (s *Service) Statistics(ctx context.Context, bot string, productID uint) (Counts, error) {
	query := s.x.Rebind(`SELECT ` + countColumns + ` FROM mailouts WHERE bot_identifier = ? AND product_id = ?`)

	var counts Counts
	err := s.x.GetContext(ctx, &counts, query,
		models.MailoutStatusSent, models.MailoutStatusPending, models.MailoutStatusFailed,
		bot, productID)
	return counts, err
}

// AllStatistics counts mailouts per product.
func (s *Service) AllStatistics(ctx context.Context, bot string) (map[uint]ProductCounts, error) {
	query := s.x.Rebind(`SELECT product_id, ` + countColumns + ` FROM mailouts WHERE bot_identifier = ? GROUP BY product_id ORDER BY product_id`)

	var rows []ProductCounts
	err := s.x.SelectContext(ctx, &rows, query,
		models.MailoutStatusSent, models.MailoutStatusPending, models.MailoutStatusFailed,
		bot)
	if err != nil {
		return nil, err
	}

	out := make(map[uint]ProductCounts, len(rows))
	for _, r := range rows {
		out[r.ProductID] = r
	}
	return out, nil
}

// ProductIDs lists the distinct products that have mailouts.
func (s *Service) ProductIDs(ctx context.Context, bot string) ([]uint, error) {
	ids := []uint{}
	err := s.x.SelectContext(ctx, &ids,
		s.x.Rebind(`SELECT DISTINCT product_id FROM mailouts WHERE bot_identifier = ? ORDER BY product_id`), bot)
	return ids, err
}

// ByProducts returns the oldest mailouts of the given products.
func (s *Service) ByProducts(ctx context.Context, bot string, productIDs []uint, limit int) ([]models.Mailout, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	mailouts := []models.Mailout{}
	err := s.db.WithContext(ctx).
		Where("bot_identifier = ? AND product_id IN ?", bot, productIDs).
		Order("created_at, id").
		Limit(limit).
		Find(&mailouts).Error
	return mailouts, err
}

func (s *Service) Delete(ctx context.Context, bot string, ids []uint) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("bot_identifier = ? AND id IN ?", bot, ids).
		Delete(&models.Mailout{})
	return res.RowsAffected, res.Error
}

// UpdateStatus records a delivery outcome. Marking a mailout sent stamps
// sent_at.
func (s *Service) UpdateStatus(ctx context.Context, bot string, id uint, status string) (*models.Mailout, error) {
	switch status {
	case models.MailoutStatusPending, models.MailoutStatusSent, models.MailoutStatusFailed:
	default:
		return nil, ErrInvalidStatus
	}

	var m models.Mailout
	if err := s.db.WithContext(ctx).Where("bot_identifier = ?", bot).First(&m, id).Error; err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"status": status}
	if status == models.MailoutStatusSent {
		updates["sent_at"] = time.Now()
	}
	if err := s.db.WithContext(ctx).Model(&m).Updates(updates).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}
