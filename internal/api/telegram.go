package api

import (
	"context"
	"net/http"

	"telegram-catalog/internal/layout"
	"telegram-catalog/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TelegramHandler serves the read side used by bot runtimes. Every layout is
// returned formatted, ready to become an inline keyboard.
type TelegramHandler struct {
	db        *gorm.DB
	loader    *layout.Loader
	publicURL string
	log       *zap.Logger
}

func NewTelegramHandler(db *gorm.DB, loader *layout.Loader, publicURL string, log *zap.Logger) *TelegramHandler {
	return &TelegramHandler{db: db, loader: loader, publicURL: publicURL, log: log}
}

type formattedTemplate struct {
	ID     uint                   `json:"id"`
	Name   string                 `json:"name"`
	Type   string                 `json:"type"`
	Layout layout.FormattedLayout `json:"layout"`
}

func formatTemplate(t models.Template, refs layout.ReferenceMap) formattedTemplate {
	return formattedTemplate{
		ID:     t.ID,
		Name:   t.Name,
		Type:   t.Type,
		Layout: layout.Format(t.Layout.Data(), refs),
	}
}

func (h *TelegramHandler) templatesByType(ctx context.Context, bot, templateType string) ([]models.Template, error) {
	var templates []models.Template
	err := h.db.WithContext(ctx).
		Where("bot_identifier = ? AND type = ?", bot, templateType).
		Order("id").
		Find(&templates).Error
	return templates, err
}

// firstTemplate renders the oldest template of a type, or nil when the bot
// has none.
func (h *TelegramHandler) firstTemplate(ctx context.Context, bot, templateType string) (*formattedTemplate, error) {
	var template models.Template
	err := h.db.WithContext(ctx).
		Where("bot_identifier = ? AND type = ?", bot, templateType).
		Order("id").
		First(&template).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := h.loader.Render(ctx, bot, template.Layout.Data())
	if err != nil {
		return nil, err
	}
	return &formattedTemplate{ID: template.ID, Name: template.Name, Type: template.Type, Layout: rows}, nil
}

// TemplatesByType returns every template of a type with formatted layouts
func (h *TelegramHandler) TemplatesByType(c *gin.Context) {
	ctx := c.Request.Context()
	bot := botOf(c)

	templates, err := h.templatesByType(ctx, bot, c.Param("type"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if len(templates) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No templates found for this type"})
		return
	}

	refs, err := h.loader.Load(ctx, bot)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	out := make([]formattedTemplate, 0, len(templates))
	for _, t := range templates {
		out = append(out, formatTemplate(t, refs))
	}
	c.JSON(http.StatusOK, out)
}

func (h *TelegramHandler) postResponse(c *gin.Context, post models.Post) {
	template, err := h.firstTemplate(c.Request.Context(), post.BotIdentifier, post.TemplateType)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":            post.ID,
		"name":          post.Name,
		"description":   post.Description,
		"image":         imageURL(h.publicURL, post.Image),
		"image_file_id": post.ImageFileID,
		"template_type": post.TemplateType,
		"template":      template,
	})
}

func (h *TelegramHandler) StartPost(c *gin.Context) {
	var post models.Post
	err := tenant(h.db, c).
		Where("template_type = ? AND enabled = ?", models.TemplateTypeStart, true).
		Order("id").
		First(&post).Error
	if isNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Start post not found"})
		return
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.postResponse(c, post)
}

func (h *TelegramHandler) Post(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var post models.Post
	err := tenant(h.db, c).Where("enabled = ?", true).First(&post, id).Error
	if isNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.postResponse(c, post)
}

func (h *TelegramHandler) product(c *gin.Context) (*models.Product, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}

	var product models.Product
	err := tenant(h.db, c).First(&product, id).Error
	if isNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return nil, false
	}
	if err != nil {
		respondError(c, h.log, err)
		return nil, false
	}
	return &product, true
}

// ProductPost renders a product as a post using the first post template
func (h *TelegramHandler) ProductPost(c *gin.Context) {
	product, ok := h.product(c)
	if !ok {
		return
	}

	template, err := h.firstTemplate(c.Request.Context(), product.BotIdentifier, models.TemplateTypePost)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var templateType *string
	if template != nil {
		templateType = &template.Type
	}

	c.JSON(http.StatusOK, gin.H{"post": gin.H{
		"id":            product.ID,
		"name":          product.Name,
		"description":   product.Description,
		"image":         imageURL(h.publicURL, product.Image),
		"image_file_id": product.ImageFileID,
		"template_type": templateType,
		"template":      template,
	}})
}

func (h *TelegramHandler) Product(c *gin.Context) {
	product, ok := h.product(c)
	if !ok {
		return
	}

	template, err := h.firstTemplate(c.Request.Context(), product.BotIdentifier, models.TemplateTypeProduct)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":            product.ID,
		"name":          product.Name,
		"description":   product.Description,
		"image":         imageURL(h.publicURL, product.Image),
		"image_file_id": product.ImageFileID,
		"template":      template,
	})
}

// categoryResponse formats a category's layout against its own children and
// products only.
func (h *TelegramHandler) categoryResponse(c *gin.Context, category models.Category) {
	children := make([]layout.Entity, 0, len(category.Children))
	for _, child := range category.Children {
		children = append(children, child.Entity())
	}
	products := make([]layout.Entity, 0, len(category.Products))
	for _, p := range category.Products {
		products = append(products, p.Entity())
	}

	formatted := layout.FormattedLayout{}
	if rows := category.Layout.Data(); len(rows) > 0 {
		refs, err := h.loader.LoadForCategory(c.Request.Context(), category.BotIdentifier, children, products)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		formatted = layout.Format(rows, refs)
	}

	c.JSON(http.StatusOK, gin.H{
		"id":            category.ID,
		"name":          category.Name,
		"is_root":       category.IsRoot,
		"image":         absoluteURL(h.publicURL, category.Image),
		"image_file_id": category.ImageFileID,
		"layout":        formatted,
	})
}

func (h *TelegramHandler) findCategory(c *gin.Context, query *gorm.DB) {
	var category models.Category
	err := query.
		Preload("Children", "bot_identifier = ?", botOf(c)).
		Preload("Products", "bot_identifier = ?", botOf(c)).
		First(&category).Error
	if isNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.categoryResponse(c, category)
}

// RootCategory returns the first root category of the bot
func (h *TelegramHandler) RootCategory(c *gin.Context) {
	h.findCategory(c, tenant(h.db, c).Where("is_root = ?", true).Order("sort_order, id"))
}

func (h *TelegramHandler) Category(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	h.findCategory(c, tenant(h.db, c).Where("id = ?", id))
}

// imageFileID stores the Telegram file id of an already uploaded image so
// the runtime can resend it without uploading again.
func (h *TelegramHandler) imageFileID(c *gin.Context, model interface{}, notFound string) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		ImageFileID *string `json:"image_file_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ImageFileID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image_file_id is required"})
		return
	}

	res := tenant(h.db, c).Model(model).Where("id = ?", id).Update("image_file_id", *req.ImageFileID)
	if res.Error != nil {
		respondError(c, h.log, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := tenant(h.db, c).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
			respondError(c, h.log, err)
			return
		}
		if count == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": notFound})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"id":            id,
		"image_file_id": *req.ImageFileID,
		"message":       "Image file ID updated successfully",
	})
}

func (h *TelegramHandler) PostImageFileID(c *gin.Context) {
	h.imageFileID(c, &models.Post{}, "Post not found")
}

func (h *TelegramHandler) ProductImageFileID(c *gin.Context) {
	h.imageFileID(c, &models.Product{}, "Product not found")
}

func (h *TelegramHandler) CategoryImageFileID(c *gin.Context) {
	h.imageFileID(c, &models.Category{}, "Category not found")
}
