package api

import (
	"net/http"

	"telegram-catalog/internal/layout"
	"telegram-catalog/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type TemplateHandler struct {
	db         *gorm.DB
	maxPerLine int
	notify     Notifier
	log        *zap.Logger
}

func NewTemplateHandler(db *gorm.DB, maxPerLine int, notify Notifier, log *zap.Logger) *TemplateHandler {
	return &TemplateHandler{db: db, maxPerLine: maxPerLine, notify: notify, log: log}
}

// GetTemplates lists templates, optionally filtered by ?type=
func (h *TemplateHandler) GetTemplates(c *gin.Context) {
	query := tenant(h.db, c).Order("id")
	if t := c.Query("type"); t != "" {
		query = query.Where("type = ?", t)
	}

	var templates []models.Template
	if err := query.Find(&templates).Error; err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var template models.Template
	if err := tenant(h.db, c).First(&template, id).Error; err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, template)
}

func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var req struct {
		Name   string        `json:"name" binding:"required,max=100"`
		Type   string        `json:"type" binding:"required,oneof=post start product"`
		Layout layout.Layout `json:"layout" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := layout.Validate(req.Layout, h.maxPerLine); err != nil {
		respondError(c, h.log, err)
		return
	}

	template := models.Template{
		BotIdentifier: botOf(c),
		Name:          req.Name,
		Type:          req.Type,
		Layout:        models.NewLayoutColumn(req.Layout),
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&template).Error; err != nil {
		respondError(c, h.log, err)
		return
	}

	h.notify.CatalogUpdated(template.BotIdentifier, "template", template.ID)
	c.JSON(http.StatusCreated, template)
}

func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Name   *string        `json:"name" binding:"omitempty,min=1,max=100"`
		Type   *string        `json:"type" binding:"omitempty,oneof=post start product"`
		Layout *layout.Layout `json:"layout"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	var template models.Template
	if err := tenant(h.db, c).First(&template, id).Error; err != nil {
		respondError(c, h.log, err)
		return
	}

	updateData := map[string]interface{}{}
	if req.Name != nil {
		updateData["name"] = *req.Name
	}
	if req.Type != nil {
		updateData["type"] = *req.Type
	}
	if req.Layout != nil {
		if err := layout.Validate(*req.Layout, h.maxPerLine); err != nil {
			respondError(c, h.log, err)
			return
		}
		updateData["layout"] = models.NewLayoutColumn(*req.Layout)
	}

	if len(updateData) > 0 {
		if err := h.db.WithContext(c.Request.Context()).Model(&models.Template{}).Where("id = ?", id).Updates(updateData).Error; err != nil {
			respondError(c, h.log, err)
			return
		}
	}

	var updated models.Template
	if err := tenant(h.db, c).First(&updated, id).Error; err != nil {
		respondError(c, h.log, err)
		return
	}
	h.notify.CatalogUpdated(updated.BotIdentifier, "template", id)
	c.JSON(http.StatusOK, updated)
}

func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	res := tenant(h.db, c).Delete(&models.Template{}, id)
	if res.Error != nil {
		respondError(c, h.log, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}

	h.notify.CatalogUpdated(botOf(c), "template", id)
	c.JSON(http.StatusOK, gin.H{"message": "Template deleted successfully"})
}
