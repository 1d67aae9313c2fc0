package api

import (
	"fmt"
	"net/http"

	"telegram-catalog/internal/botruntime"
	"telegram-catalog/internal/cache"
	"telegram-catalog/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CacheCleanEndpointPath is the config path holding the runtime URL that
// drops the bot's cached catalog.
const CacheCleanEndpointPath = "telegram.cache.clean.endpoint"

type CacheCleanHandler struct {
	db      *gorm.DB
	configs *cache.ConfigService
	runtime *botruntime.Client
	log     *zap.Logger
}

func NewCacheCleanHandler(db *gorm.DB, configs *cache.ConfigService, runtime *botruntime.Client, log *zap.Logger) *CacheCleanHandler {
	return &CacheCleanHandler{db: db, configs: configs, runtime: runtime, log: log}
}

// CleanCache forwards a cache clean request to the caller's bot runtime
func (h *CacheCleanHandler) CleanCache(c *gin.Context) {
	bot := botOf(c)
	if bot == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bot identifier not found for user"})
		return
	}

	ctx := c.Request.Context()
	endpoint, err := h.configs.Get(ctx, bot, CacheCleanEndpointPath, "")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if endpoint == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Cache clean endpoint not configured",
			"message": fmt.Sprintf("Please configure the endpoint at path: %s", CacheCleanEndpointPath),
		})
		return
	}

	var record models.Bot
	if err := h.db.WithContext(ctx).Where("bot_identifier = ?", bot).First(&record).Error; err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Bot not found"})
			return
		}
		respondError(c, h.log, err)
		return
	}
	if record.APIKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "API key not found for bot"})
		return
	}

	resp, err := h.runtime.CleanCache(ctx, endpoint, record.APIKey)
	if err != nil {
		h.log.Warn("cache clean request failed", zap.String("bot", bot), zap.String("endpoint", endpoint), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to connect to cache clean endpoint",
			"message": err.Error(),
		})
		return
	}

	if resp.OK() {
		c.JSON(http.StatusOK, gin.H{
			"message":     "Cache cleaned successfully",
			"status_code": resp.StatusCode,
			"response":    resp.Body,
		})
		return
	}
	h.log.Warn("cache clean rejected by runtime", zap.String("bot", bot), zap.Int("status", resp.StatusCode))
	c.JSON(resp.StatusCode, gin.H{
		"error":       "Failed to clean cache",
		"status_code": resp.StatusCode,
		"response":    resp.Body,
	})
}
