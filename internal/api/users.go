package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"telegram-catalog/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	usersPageSize     = 20
	usersBatchSize    = 500
	defaultUserStatus = "active"
	timestampLayout   = "2006-01-02 15:04:05"
)

type UserHandler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewUserHandler(db *gorm.DB, log *zap.Logger) *UserHandler {
	return &UserHandler{db: db, log: log}
}

type userResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	ChatID    string `json:"chat_id"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toUserResponse(u models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Username:  u.Username,
		ChatID:    u.ChatID,
		Status:    u.Status,
		CreatedAt: u.CreatedAt.Format(timestampLayout),
		UpdatedAt: u.UpdatedAt.Format(timestampLayout),
	}
}

var filterDateLayouts = []string{time.RFC3339, timestampLayout, "2006-01-02T15:04:05", "2006-01-02"}

func parseFilterDate(s string) (time.Time, bool) {
	for _, l := range filterDateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// filterUsers applies the status and date range query filters. Dates that do
// not parse are ignored.
func filterUsers(query *gorm.DB, c *gin.Context) *gorm.DB {
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	ranges := []struct{ param, cond string }{
		{"created_at_from", "created_at >= ?"},
		{"created_at_to", "created_at <= ?"},
		{"updated_at_from", "updated_at >= ?"},
		{"updated_at_to", "updated_at <= ?"},
	}
	for _, r := range ranges {
		v := c.Query(r.param)
		if v == "" {
			continue
		}
		if t, ok := parseFilterDate(v); ok {
			query = query.Where(r.cond, t)
		}
	}
	return query
}

// AdminList returns one page of the tenant's users
func (h *UserHandler) AdminList(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	query := filterUsers(tenant(h.db, c).Model(&models.User{}), c).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		respondError(c, h.log, err)
		return
	}

	var users []models.User
	if err := query.Order("id DESC").Limit(usersPageSize).Offset((page - 1) * usersPageSize).Find(&users).Error; err != nil {
		respondError(c, h.log, err)
		return
	}

	member := make([]userResponse, 0, len(users))
	for _, u := range users {
		member = append(member, toUserResponse(u))
	}
	c.JSON(http.StatusOK, gin.H{"member": member, "totalItems": total, "page": page})
}

// List returns every matching user for the bot runtime
func (h *UserHandler) List(c *gin.Context) {
	var users []models.User
	if err := filterUsers(tenant(h.db, c), c).Order("id").Find(&users).Error; err != nil {
		respondError(c, h.log, err)
		return
	}

	member := make([]userResponse, 0, len(users))
	for _, u := range users {
		member = append(member, toUserResponse(u))
	}
	c.JSON(http.StatusOK, gin.H{"member": member})
}

func (h *UserHandler) MassDelete(c *gin.Context) {
	var req struct {
		IDs []uint `json:"ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.IDs == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": `Invalid request. Expected "ids" array.`})
		return
	}
	if len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No user IDs provided."})
		return
	}

	res := tenant(h.db, c).Where("id IN ?", req.IDs).Delete(&models.User{})
	if res.Error != nil {
		respondError(c, h.log, res.Error)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Users deleted successfully", "deleted": res.RowsAffected})
}

// chatID accepts Telegram chat ids sent either as numbers or as strings.
type chatID string

func (id *chatID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = chatID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = chatID(n.String())
	return nil
}

type userUpsert struct {
	ChatID   chatID  `json:"chat_id"`
	Name     string  `json:"name"`
	Username string  `json:"username"`
	Status   *string `json:"status"`
}

// MassUpdate upserts users by chat id. Entries without a chat id are
// reported and skipped.
func (h *UserHandler) MassUpdate(c *gin.Context) {
	var req struct {
		Users []userUpsert `json:"users"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Users == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": `Invalid request. Expected "users" array.`})
		return
	}

	bot := botOf(c)
	created, updated := 0, 0
	errs := []string{}

	// last entry wins for a chat id sent twice
	rows := make([]models.User, 0, len(req.Users))
	index := make(map[string]int, len(req.Users))
	chatIDs := make([]string, 0, len(req.Users))
	for i, item := range req.Users {
		if item.ChatID == "" {
			errs = append(errs, fmt.Sprintf("User at index %d: chat_id is required", i))
			continue
		}
		status := defaultUserStatus
		if item.Status != nil {
			status = *item.Status
		}
		user := models.User{
			BotIdentifier: bot,
			ChatID:        string(item.ChatID),
			Name:          item.Name,
			Username:      item.Username,
			Status:        status,
		}
		if j, ok := index[user.ChatID]; ok {
			rows[j] = user
			continue
		}
		index[user.ChatID] = len(rows)
		rows = append(rows, user)
		chatIDs = append(chatIDs, user.ChatID)
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if len(rows) == 0 {
			return nil
		}

		existing := make(map[string]bool, len(chatIDs))
		for start := 0; start < len(chatIDs); start += usersBatchSize {
			end := min(start+usersBatchSize, len(chatIDs))
			var found []string
			if err := tx.Model(&models.User{}).
				Where("bot_identifier = ? AND chat_id IN ?", bot, chatIDs[start:end]).
				Pluck("chat_id", &found).Error; err != nil {
				return err
			}
			for _, id := range found {
				existing[id] = true
			}
		}

		seen := make(map[string]bool, len(rows))
		for _, item := range req.Users {
			id := string(item.ChatID)
			if id == "" {
				continue
			}
			if existing[id] || seen[id] {
				updated++
			} else {
				created++
			}
			seen[id] = true
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "bot_identifier"}, {Name: "chat_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "username", "status", "updated_at"}),
		}).CreateInBatches(&rows, usersBatchSize).Error
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Users processed successfully",
		"created": created,
		"updated": updated,
		"errors":  errs,
	})
}
