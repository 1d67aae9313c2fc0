package api

import (
	"net/http"

	"telegram-catalog/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ButtonHandler struct {
	db     *gorm.DB
	notify Notifier
	log    *zap.Logger
}

func NewButtonHandler(db *gorm.DB, notify Notifier, log *zap.Logger) *ButtonHandler {
	return &ButtonHandler{db: db, notify: notify, log: log}
}

// GetButtons returns the tenant's buttons in display order
func (h *ButtonHandler) GetButtons(c *gin.Context) {
	var buttons []models.Button
	if err := tenant(h.db, c).Order("sort_order, id").Find(&buttons).Error; err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, buttons)
}

func (h *ButtonHandler) GetButton(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var button models.Button
	if err := tenant(h.db, c).First(&button, id).Error; err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, button)
}

func (h *ButtonHandler) CreateButton(c *gin.Context) {
	var req struct {
		Code       string `json:"code" binding:"required,max=20"`
		Label      string `json:"label" binding:"required,max=60"`
		SortOrder  int    `json:"sort_order"`
		ButtonType string `json:"button_type" binding:"required,oneof=url callback"`
		Value      string `json:"value" binding:"max=60"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	button := models.Button{
		BotIdentifier: botOf(c),
		Code:          req.Code,
		Label:         req.Label,
		SortOrder:     req.SortOrder,
		ButtonType:    req.ButtonType,
		Value:         req.Value,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&button).Error; err != nil {
		respondError(c, h.log, err)
		return
	}

	h.notify.CatalogUpdated(button.BotIdentifier, "button", button.ID)
	c.JSON(http.StatusCreated, button)
}

func (h *ButtonHandler) UpdateButton(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Code       *string `json:"code" binding:"omitempty,max=20"`
		Label      *string `json:"label" binding:"omitempty,max=60"`
		SortOrder  *int    `json:"sort_order"`
		ButtonType *string `json:"button_type" binding:"omitempty,oneof=url callback"`
		Value      *string `json:"value" binding:"omitempty,max=60"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	var button models.Button
	if err := tenant(h.db, c).First(&button, id).Error; err != nil {
		respondError(c, h.log, err)
		return
	}

	updateData := map[string]interface{}{}
	if req.Code != nil {
		updateData["code"] = *req.Code
	}
	if req.Label != nil {
		updateData["label"] = *req.Label
	}
	if req.SortOrder != nil {
		updateData["sort_order"] = *req.SortOrder
	}
	if req.ButtonType != nil {
		updateData["button_type"] = *req.ButtonType
	}
	if req.Value != nil {
		updateData["value"] = *req.Value
	}

	if len(updateData) > 0 {
		if err := h.db.WithContext(c.Request.Context()).Model(&button).Updates(updateData).Error; err != nil {
			respondError(c, h.log, err)
			return
		}
	}
	if err := tenant(h.db, c).First(&button, id).Error; err != nil {
		respondError(c, h.log, err)
		return
	}

	h.notify.CatalogUpdated(button.BotIdentifier, "button", button.ID)
	c.JSON(http.StatusOK, button)
}

func (h *ButtonHandler) DeleteButton(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	res := tenant(h.db, c).Delete(&models.Button{}, id)
	if res.Error != nil {
		respondError(c, h.log, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Button not found"})
		return
	}

	h.notify.CatalogUpdated(botOf(c), "button", id)
	c.JSON(http.StatusOK, gin.H{"message": "Button deleted successfully"})
}
