package api

import (
	"errors"
	"fmt"
	"net/http"

	"telegram-catalog/internal/catalog"
	"telegram-catalog/internal/media"
	"telegram-catalog/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errTooManyCategories = fmt.Errorf("A product cannot have more than %d categories.", models.MaxProductCategories)

type ProductHandler struct {
	db     *gorm.DB
	store  *catalog.Store
	images imageUploader
	notify Notifier
	log    *zap.Logger
}

func NewProductHandler(db *gorm.DB, store *catalog.Store, images *media.Store, publicURL string, notify Notifier, log *zap.Logger) *ProductHandler {
	return &ProductHandler{
		db:     db,
		store:  store,
		images: imageUploader{db: db, media: images, publicURL: publicURL, log: log},
		notify: notify,
		log:    log,
	}
}

type productRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	SortOrder   *int    `json:"sort_order"`
	Categories  *[]uint `json:"categories"`
}

func (h *ProductHandler) categories(c *gin.Context, req productRequest) ([]*models.Category, error) {
	if req.Categories == nil {
		return nil, nil
	}
	categories, err := h.store.CategoriesByID(c.Request.Context(), botOf(c), *req.Categories)
	if err != nil {
		return nil, err
	}
	if len(categories) > models.MaxProductCategories {
		return nil, errTooManyCategories
	}
	return categories, nil
}

func setProductCategories(tx *gorm.DB, product *models.Product, categories []*models.Category) error {
	if categories == nil {
		return nil
	}
	assoc := tx.Model(product).Association("Categories")
	if len(categories) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(categories)
}

func (h *ProductHandler) load(c *gin.Context, id uint) (*models.Product, error) {
	var product models.Product
	err := tenant(h.db, c).
		Preload("Categories", "bot_identifier = ?", botOf(c)).
		First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProducts lists products, optionally only those of one category
func (h *ProductHandler) GetProducts(c *gin.Context) {
	query := tenant(h.db, c).
		Preload("Categories", "bot_identifier = ?", botOf(c)).
		Order("sort_order, id")
	if categoryID := c.Query("category_id"); categoryID != "" {
		query = query.Where("id IN (?)", h.db.Table("product_category").Select("product_id").Where("category_id = ?", categoryID))
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	product, err := h.load(c, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.Name == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	categories, err := h.categories(c, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	product := models.Product{BotIdentifier: botOf(c), Name: *req.Name}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.SortOrder != nil {
		product.SortOrder = *req.SortOrder
	}

	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		return setProductCategories(tx, &product, categories)
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	created, err := h.load(c, product.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.notify.CatalogUpdated(product.BotIdentifier, "product", product.ID)
	c.JSON(http.StatusCreated, created)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	product, err := h.load(c, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	categories, err := h.categories(c, req)
	if err != nil {
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
	if req.SortOrder != nil {
		updateData["sort_order"] = *req.SortOrder
	}

	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if len(updateData) > 0 {
			if err := tx.Model(&models.Product{}).Where("id = ?", id).Updates(updateData).Error; err != nil {
				return err
			}
		}
		return setProductCategories(tx, product, categories)
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	updated, err := h.load(c, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.notify.CatalogUpdated(updated.BotIdentifier, "product", id)
	c.JSON(http.StatusOK, updated)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var product models.Product
	if err := tenant(h.db, c).First(&product, id).Error; err != nil {
		respondError(c, h.log, err)
		return
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM product_category WHERE product_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&product).Error
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if product.Image != "" {
		h.images.removeImage(product.Image)
	}
	h.notify.CatalogUpdated(product.BotIdentifier, "product", id)
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

func (h *ProductHandler) UploadImage(c *gin.Context) {
	h.images.upload(c, media.KindProducts, &models.Product{})
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
