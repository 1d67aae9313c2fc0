package api

import (
	"errors"
	"net/http"
	"strconv"

	"telegram-catalog/internal/mailout"
	"telegram-catalog/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MailoutHandler struct {
	db       *gorm.DB
	mailouts *mailout.Service
	log      *zap.Logger
}

func NewMailoutHandler(db *gorm.DB, mailouts *mailout.Service, log *zap.Logger) *MailoutHandler {
	return &MailoutHandler{db: db, mailouts: mailouts, log: log}
}

type mailoutResponse struct {
	ID        uint    `json:"id"`
	ChatID    string  `json:"chat_id"`
	ProductID uint    `json:"product_id"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"created_at"`
	SentAt    *string `json:"sent_at"`
}

func toMailoutResponse(m models.Mailout) mailoutResponse {
	r := mailoutResponse{
		ID:        m.ID,
		ChatID:    m.ChatID,
		ProductID: m.ProductID,
		Status:    m.Status,
		CreatedAt: m.CreatedAt.Format(timestampLayout),
	}
	if m.SentAt != nil {
		s := m.SentAt.Format(timestampLayout)
		r.SentAt = &s
	}
	return r
}

// SendProduct queues the product for every active user of the bot
func (h *MailoutHandler) SendProduct(c *gin.Context) {
	productID, ok := parseID(c, "productId")
	if !ok {
		return
	}

	var product models.Product
	if err := tenant(h.db, c).Select("id").First(&product, productID).Error; err != nil {
		respondError(c, h.log, err)
		return
	}

	created, err := h.mailouts.Enqueue(c.Request.Context(), botOf(c), productID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if created == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "No active users found", "created": 0})
		return
	}

	h.log.Info("mailout queued", zap.String("bot", botOf(c)), zap.Uint("product_id", productID), zap.Int("created", created))
	c.JSON(http.StatusOK, gin.H{
		"message":     "Mailout records created successfully",
		"created":     created,
		"total_users": created,
	})
}

func (h *MailoutHandler) Statistics(c *gin.Context) {
	ctx := c.Request.Context()
	bot := botOf(c)

	if productID, err := strconv.ParseUint(c.Query("product_id"), 10, 0); err == nil && productID > 0 {
		counts, err := h.mailouts.Statistics(ctx, bot, uint(productID))
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusOK, counts)
		return
	}

	all, err := h.mailouts.AllStatistics(ctx, bot)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, all)
}

// Products lists the product ids that have mailouts
func (h *MailoutHandler) Products(c *gin.Context) {
	ids, err := h.mailouts.ProductIDs(c.Request.Context(), botOf(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product_ids": ids})
}

func (h *MailoutHandler) ByProducts(c *gin.Context) {
	param := c.Query("product_ids")
	if param == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_ids parameter is required"})
		return
	}
	ids := parseIDList(param)
	if len(ids) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product_ids"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(mailout.DefaultLimit)))
	if err != nil {
		limit = mailout.DefaultLimit
	}

	mailouts, err := h.mailouts.ByProducts(c.Request.Context(), botOf(c), ids, limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	out := make([]mailoutResponse, 0, len(mailouts))
	for _, m := range mailouts {
		out = append(out, toMailoutResponse(m))
	}
	c.JSON(http.StatusOK, gin.H{"mailouts": out})
}

func (h *MailoutHandler) Delete(c *gin.Context) {
	var req struct {
		IDs []uint `json:"ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.IDs == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": `Invalid request. Expected "ids" array.`})
		return
	}
	if len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No mailout IDs provided."})
		return
	}

	deleted, err := h.mailouts.Delete(c.Request.Context(), botOf(c), req.IDs)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Mailouts deleted successfully", "deleted": deleted})
}

// UpdateStatus lets the bot runtime report a delivery result
func (h *MailoutHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	m, err := h.mailouts.UpdateStatus(c.Request.Context(), botOf(c), id, req.Status)
	if errors.Is(err, mailout.ErrInvalidStatus) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toMailoutResponse(*m))
}
