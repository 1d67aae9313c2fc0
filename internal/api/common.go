package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"telegram-catalog/internal/auth"
	"telegram-catalog/internal/catalog"
	"telegram-catalog/internal/layout"
	"telegram-catalog/internal/media"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Notifier is told about admin writes to catalog entities.
type Notifier interface {
	CatalogUpdated(bot, entity string, id uint)
}

type nopNotifier struct{}

func (nopNotifier) CatalogUpdated(string, string, uint) {}

func botOf(c *gin.Context) string {
	if p := auth.Current(c); p != nil {
		return p.BotIdentifier
	}
	return ""
}

// tenant scopes a query to the caller's bot.
func tenant(db *gorm.DB, c *gin.Context) *gorm.DB {
	return db.WithContext(c.Request.Context()).Where("bot_identifier = ?", botOf(c))
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 0)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// parseIDList reads "1,2,3" into ids, skipping anything that is not a
// positive integer.
func parseIDList(s string) []uint {
	var ids []uint
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 0)
		if err == nil && id > 0 {
			ids = append(ids, uint(id))
		}
	}
	return ids
}

// respondError maps domain and store errors onto HTTP responses.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	var verrs layout.ValidationErrors
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.As(err, &verrs):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": verrs[0].Message, "violations": verrs})
	case catalog.IsViolation(err),
		errors.Is(err, catalog.ErrForeignReference),
		errors.Is(err, errTooManyCategories),
		errors.Is(err, media.ErrNotAnImage),
		errors.Is(err, media.ErrTooLarge):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// bindError answers a failed ShouldBindJSON. Layout problems found while
// decoding are reported like any other layout violation.
func bindError(c *gin.Context, err error) {
	var verrs layout.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": verrs[0].Message, "violations": verrs})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// imageURL makes a stored image path absolute. Empty paths stay nil.
func imageURL(publicURL, image string) *string {
	if image == "" {
		return nil
	}
	url := absoluteURL(publicURL, image)
	return &url
}

// absoluteURL joins the public host and a stored path. An empty path gives
// the bare host with a trailing slash.
func absoluteURL(publicURL, image string) string {
	return publicURL + "/" + strings.TrimLeft(image, "/")
}
