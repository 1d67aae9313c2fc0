package api

import (
	"context"
	"net/http"

	"telegram-catalog/internal/auth"
	"telegram-catalog/internal/cache"
	"telegram-catalog/internal/database"
	"telegram-catalog/internal/media"
	"telegram-catalog/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// tenantTables carry a bot_identifier column and follow their bot.
var tenantTables = []interface{}{
	&models.AdminUser{},
	&models.Button{},
	&models.Category{},
	&models.Product{},
	&models.Template{},
	&models.Post{},
	&models.User{},
	&models.Mailout{},
	&models.Config{},
}

// imageTables map the models with stored images to their media kind.
var imageTables = []struct {
	model interface{}
	kind  string
}{
	{&models.Category{}, media.KindCategories},
	{&models.Product{}, media.KindProducts},
	{&models.Post{}, media.KindPosts},
}

type BotHandler struct {
	db      *gorm.DB
	media   *media.Store
	configs *cache.ConfigService
	log     *zap.Logger
}

func NewBotHandler(db *gorm.DB, images *media.Store, configs *cache.ConfigService, log *zap.Logger) *BotHandler {
	return &BotHandler{db: db, media: images, configs: configs, log: log}
}

func (h *BotHandler) List(c *gin.Context) {
	bots := []models.Bot{}
	if err := h.db.WithContext(c.Request.Context()).Order("id").Find(&bots).Error; err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, bots)
}

// Create registers a bot, generating an API key when none is given, and
// seeds its well-known config paths.
func (h *BotHandler) Create(c *gin.Context) {
	var req struct {
		BotIdentifier string `json:"bot_identifier" binding:"required,max=100"`
		BotCode       string `json:"bot_code" binding:"max=255"`
		APIKey        string `json:"api_key" binding:"max=255"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bot := models.Bot{BotIdentifier: req.BotIdentifier, BotCode: req.BotCode, APIKey: req.APIKey}
	if bot.APIKey == "" {
		bot.APIKey = auth.GenerateAPIKey(bot.BotIdentifier)
	}

	ctx := c.Request.Context()
	var existing int64
	h.db.WithContext(ctx).Model(&models.Bot{}).Where("bot_identifier = ?", bot.BotIdentifier).Count(&existing)
	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Bot identifier already taken"})
		return
	}

	if err := h.db.WithContext(ctx).Create(&bot).Error; err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := database.SeedConfigSchema(ctx, h.db, bot.BotIdentifier); err != nil {
		respondError(c, h.log, err)
		return
	}

	h.log.Info("bot created", zap.String("bot", bot.BotIdentifier))
	c.JSON(http.StatusCreated, bot)
}

// Update edits a bot. Renaming the identifier moves every tenant row and
// stored image along with it.
func (h *BotHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		BotIdentifier *string `json:"bot_identifier" binding:"omitempty,min=1,max=100"`
		BotCode       *string `json:"bot_code" binding:"omitempty,max=255"`
		APIKey        *string `json:"api_key" binding:"omitempty,min=1,max=255"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	var bot models.Bot
	if err := h.db.WithContext(ctx).First(&bot, id).Error; err != nil {
		respondError(c, h.log, err)
		return
	}

	updateData := map[string]interface{}{}
	if req.BotCode != nil {
		updateData["bot_code"] = *req.BotCode
	}
	if req.APIKey != nil {
		updateData["api_key"] = *req.APIKey
	}
	oldIdentifier := bot.BotIdentifier
	renamed := req.BotIdentifier != nil && *req.BotIdentifier != oldIdentifier
	if renamed {
		updateData["bot_identifier"] = *req.BotIdentifier
	}

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updateData) > 0 {
			if err := tx.Model(&bot).Updates(updateData).Error; err != nil {
				return err
			}
		}
		if !renamed {
			return nil
		}
		for _, model := range tenantTables {
			if err := tx.Model(model).Where("bot_identifier = ?", oldIdentifier).
				Update("bot_identifier", *req.BotIdentifier).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if renamed {
		h.configs.Invalidate(ctx, oldIdentifier)
		if h.moveImages(ctx, *req.BotIdentifier) {
			if err := h.media.DeleteBot(oldIdentifier); err != nil {
				h.log.Warn("failed to remove old media directory", zap.String("bot", oldIdentifier), zap.Error(err))
			}
		}
	}

	if err := h.db.WithContext(ctx).First(&bot, id).Error; err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, bot)
}

// moveImages re-homes the stored images of a renamed bot. Failures are
// logged and leave the old path in place; the result reports whether every
// image was moved.
func (h *BotHandler) moveImages(ctx context.Context, bot string) bool {
	ok := true
	for _, t := range imageTables {
		var rows []struct {
			ID    uint
			Image string
		}
		err := h.db.WithContext(ctx).Model(t.model).
			Select("id, image").
			Where("bot_identifier = ? AND image <> ''", bot).
			Find(&rows).Error
		if err != nil {
			h.log.Error("failed to list images", zap.String("kind", t.kind), zap.Error(err))
			ok = false
			continue
		}

		for _, row := range rows {
			moved, err := h.media.Move(row.Image, bot, t.kind)
			if err != nil {
				h.log.Warn("failed to move image", zap.String("path", row.Image), zap.Error(err))
				ok = false
				continue
			}
			if moved == row.Image {
				continue
			}
			if err := h.db.WithContext(ctx).Model(t.model).Where("id = ?", row.ID).Update("image", moved).Error; err != nil {
				h.log.Error("failed to update image path", zap.String("path", moved), zap.Error(err))
				ok = false
			}
		}
	}
	return ok
}

// Delete removes a bot with all of its data and media.
func (h *BotHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var bot models.Bot
	if err := h.db.WithContext(ctx).First(&bot, id).Error; err != nil {
		respondError(c, h.log, err)
		return
	}

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categories := tx.Model(&models.Category{}).Select("id").Where("bot_identifier = ?", bot.BotIdentifier)
		products := tx.Model(&models.Product{}).Select("id").Where("bot_identifier = ?", bot.BotIdentifier)
		if err := tx.Exec("DELETE FROM category_children WHERE parent_id IN (?) OR child_id IN (?)", categories, categories).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM product_category WHERE category_id IN (?) OR product_id IN (?)", categories, products).Error; err != nil {
			return err
		}
		for _, model := range tenantTables {
			if err := tx.Where("bot_identifier = ?", bot.BotIdentifier).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&bot).Error
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.configs.Invalidate(ctx, bot.BotIdentifier)
	if err := h.media.DeleteBot(bot.BotIdentifier); err != nil {
		h.log.Warn("failed to delete bot media", zap.String("bot", bot.BotIdentifier), zap.Error(err))
	}
	h.log.Info("bot deleted", zap.String("bot", bot.BotIdentifier))
	c.JSON(http.StatusOK, gin.H{"message": "Bot deleted successfully"})
}

// UpdateMine lets a tenant admin change the code and API key of their own bot
func (h *BotHandler) UpdateMine(c *gin.Context) {
	var req struct {
		BotCode *string `json:"bot_code" binding:"omitempty,max=255"`
		APIKey  *string `json:"api_key" binding:"omitempty,min=1,max=255"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx := c.Request.Context()
	var bot models.Bot
	if err := h.db.WithContext(ctx).Where("bot_identifier = ?", botOf(c)).First(&bot).Error; err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Bot not found"})
			return
		}
		respondError(c, h.log, err)
		return
	}

	updateData := map[string]interface{}{}
	if req.BotCode != nil {
		updateData["bot_code"] = *req.BotCode
	}
	if req.APIKey != nil {
		updateData["api_key"] = *req.APIKey
	}
	if len(updateData) > 0 {
		if err := h.db.WithContext(ctx).Model(&bot).Updates(updateData).Error; err != nil {
			respondError(c, h.log, err)
			return
		}
	}

	if err := h.db.WithContext(ctx).First(&bot, bot.ID).Error; err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, bot)
}
