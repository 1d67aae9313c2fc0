package api

import (
	"net/http"

	"telegram-catalog/internal/media"
	"telegram-catalog/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PostHandler struct {
	db     *gorm.DB
	images imageUploader
	notify Notifier
	log    *zap.Logger
}

func NewPostHandler(db *gorm.DB, images *media.Store, publicURL string, notify Notifier, log *zap.Logger) *PostHandler {
	return &PostHandler{
		db:     db,
		images: imageUploader{db: db, media: images, publicURL: publicURL, log: log},
		notify: notify,
		log:    log,
	}
}

func (h *PostHandler) GetPosts(c *gin.Context) {
	var posts []models.Post
	if err := tenant(h.db, c).Order("id").Find(&posts).Error; err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *PostHandler) GetPost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var post models.Post
	if err := tenant(h.db, c).First(&post, id).Error; err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *PostHandler) CreatePost(c *gin.Context) {
	var req struct {
		Name         string `json:"name" binding:"required,max=255"`
		Description  string `json:"description"`
		TemplateType string `json:"template_type" binding:"required,oneof=start product post"`
		Enabled      *bool  `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	post := models.Post{
		BotIdentifier: botOf(c),
		Name:          req.Name,
		Description:   req.Description,
		TemplateType:  req.TemplateType,
		Enabled:       true,
	}
	if req.Enabled != nil {
		post.Enabled = *req.Enabled
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&post).Error; err != nil {
		respondError(c, h.log, err)
		return
	}

	h.notify.CatalogUpdated(post.BotIdentifier, "post", post.ID)
	c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) UpdatePost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Name         *string `json:"name" binding:"omitempty,min=1,max=255"`
		Description  *string `json:"description"`
		TemplateType *string `json:"template_type" binding:"omitempty,oneof=start product post"`
		Enabled      *bool   `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	var post models.Post
	if err := tenant(h.db, c).First(&post, id).Error; err != nil {
		respondError(c, h.log, err)
		return
	}

	updateData := map[string]interface{}{}
	if req.Name != nil {
		updateData["name"] = *req.Name
	}
	if req.Description != nil {
		updateData["description"] = *req.Description
	}
	if req.TemplateType != nil {
		updateData["template_type"] = *req.TemplateType
	}
	if req.Enabled != nil {
		updateData["enabled"] = *req.Enabled
	}

	if len(updateData) > 0 {
		if err := h.db.WithContext(c.Request.Context()).Model(&models.Post{}).Where("id = ?", id).Updates(updateData).Error; err != nil {
			respondError(c, h.log, err)
			return
		}
	}

	var updated models.Post
	if err := tenant(h.db, c).First(&updated, id).Error; err != nil {
		respondError(c, h.log, err)
		return
	}
	h.notify.CatalogUpdated(updated.BotIdentifier, "post", id)
	c.JSON(http.StatusOK, updated)
}

func (h *PostHandler) DeletePost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var post models.Post
	if err := tenant(h.db, c).First(&post, id).Error; err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Delete(&post).Error; err != nil {
		respondError(c, h.log, err)
		return
	}

	if post.Image != "" {
		h.images.removeImage(post.Image)
	}
	h.notify.CatalogUpdated(post.BotIdentifier, "post", id)
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

func (h *PostHandler) UploadImage(c *gin.Context) {
	h.images.upload(c, media.KindPosts, &models.Post{})
}
