package api

import (
	"net/http"

	"telegram-catalog/internal/auth"
	"telegram-catalog/internal/cache"
	"telegram-catalog/internal/database"
	"telegram-catalog/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ConfigHandler struct {
	db      *gorm.DB
	configs *cache.ConfigService
	log     *zap.Logger
}

func NewConfigHandler(db *gorm.DB, configs *cache.ConfigService, log *zap.Logger) *ConfigHandler {
	return &ConfigHandler{db: db, configs: configs, log: log}
}

// List returns the caller's configs. Super admins see every tenant.
func (h *ConfigHandler) List(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).Order("bot_identifier, path")
	if p := auth.Current(c); p == nil || !p.IsSuper {
		query = query.Where("bot_identifier = ?", botOf(c))
	}

	configs := []models.Config{}
	if err := query.Find(&configs).Error; err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, configs)
}

func (h *ConfigHandler) Schema(c *gin.Context) {
	c.JSON(http.StatusOK, database.ConfigSchema)
}

func (h *ConfigHandler) Create(c *gin.Context) {
	var req struct {
		Path  string `json:"path" binding:"required,max=255"`
		Name  string `json:"name" binding:"required,max=255"`
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Path, name, and bot_identifier are required"})
		return
	}
	bot := botOf(c)
	if bot == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Path, name, and bot_identifier are required"})
		return
	}

	cfg, err := h.configs.Set(c.Request.Context(), bot, req.Path, req.Name, req.Value)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, cfg)
}

func (h *ConfigHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Value *string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Value == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Value is required"})
		return
	}

	var cfg models.Config
	if err := h.db.WithContext(c.Request.Context()).First(&cfg, id).Error; err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Config not found"})
			return
		}
		respondError(c, h.log, err)
		return
	}
	if p := auth.Current(c); (p == nil || !p.IsSuper) && cfg.BotIdentifier != botOf(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	if err := h.configs.UpdateValue(c.Request.Context(), &cfg, *req.Value); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Config updated"})
}

func (h *ConfigHandler) ClearCache(c *gin.Context) {
	bot := botOf(c)
	h.configs.Invalidate(c.Request.Context(), bot)
	c.JSON(http.StatusOK, gin.H{"message": "Config cache cleared successfully for bot: " + bot})
}

// Value serves GET /telegram/config?path=&default= to bot runtimes
func (h *ConfigHandler) Value(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path parameter is required"})
		return
	}

	value, err := h.configs.Get(c.Request.Context(), botOf(c), path, c.DefaultQuery("default", cache.DefaultConfigValue))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": path, "value": value})
}
