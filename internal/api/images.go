package api

import (
	"net/http"

	"telegram-catalog/internal/media"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// imageUploader handles POST .../:id/image for any table with image and
// image_file_id columns.
type imageUploader struct {
	db        *gorm.DB
	media     *media.Store
	publicURL string
	log       *zap.Logger
}

func (u imageUploader) upload(c *gin.Context, kind string, model interface{}) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var images []string
	if err := tenant(u.db, c).Model(model).Where("id = ?", id).Pluck("image", &images).Error; err != nil {
		respondError(c, u.log, err)
		return
	}
	if len(images) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	path, err := u.media.Save(botOf(c), kind, file)
	if err != nil {
		respondError(c, u.log, err)
		return
	}

	if err := tenant(u.db, c).Model(model).Where("id = ?", id).
		Updates(map[string]interface{}{"image": path, "image_file_id": ""}).Error; err != nil {
		u.media.Delete(path)
		respondError(c, u.log, err)
		return
	}

	if old := images[0]; old != "" {
		if err := u.media.Delete(old); err != nil {
			u.log.Warn("failed to delete previous image", zap.String("path", old), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "image": path, "url": imageURL(u.publicURL, path)})
}

// removeImage deletes the stored file of a row that is going away.
func (u imageUploader) removeImage(path string) {
	if err := u.media.Delete(path); err != nil {
		u.log.Warn("failed to delete image", zap.String("path", path), zap.Error(err))
	}
}
