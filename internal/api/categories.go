package api

import (
	"context"
	"net/http"

	"telegram-catalog/internal/catalog"
	"telegram-catalog/internal/layout"
	"telegram-catalog/internal/media"
	"telegram-catalog/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CategoryHandler struct {
	db         *gorm.DB
	store      *catalog.Store
	guard      *catalog.Guard
	images     imageUploader
	notify     Notifier
	maxPerLine int
	log        *zap.Logger
}

func NewCategoryHandler(db *gorm.DB, store *catalog.Store, guard *catalog.Guard, images *media.Store, publicURL string, maxPerLine int, notify Notifier, log *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		db:         db,
		store:      store,
		guard:      guard,
		images:     imageUploader{db: db, media: images, publicURL: publicURL, log: log},
		notify:     notify,
		maxPerLine: maxPerLine,
		log:        log,
	}
}

type categoryRequest struct {
	Name      *string        `json:"name" binding:"omitempty,min=1,max=255"`
	IsRoot    *bool          `json:"is_root"`
	SortOrder *int           `json:"sort_order"`
	Layout    *layout.Layout `json:"layout"`
	Children  *[]uint        `json:"children"`
	Products  *[]uint        `json:"products"`
}

// relations holds the validated association sets of a request. A nil slice
// means "leave unchanged".
type relations struct {
	children []*models.Category
	products []*models.Product
}

// validate runs every write-time check before anything is persisted.
func (h *CategoryHandler) validate(ctx context.Context, bot string, categoryID uint, req categoryRequest) (relations, error) {
	var rel relations

	if req.Layout != nil {
		if err := layout.Validate(*req.Layout, h.maxPerLine); err != nil {
			return rel, err
		}
	}

	if req.Children != nil {
		if err := h.guard.ValidateChildren(ctx, bot, categoryID, *req.Children); err != nil {
			return rel, err
		}
		children, err := h.store.CategoriesByID(ctx, bot, *req.Children)
		if err != nil {
			return rel, err
		}
		rel.children = children
	}

	if req.Products != nil {
		products, err := h.store.ProductsByID(ctx, bot, *req.Products)
		if err != nil {
			return rel, err
		}
		rel.products = products
	}

	return rel, nil
}

func replaceRelations(tx *gorm.DB, category *models.Category, rel relations) error {
	if rel.children != nil {
		assoc := tx.Model(category).Association("Children")
		var err error
		if len(rel.children) == 0 {
			err = assoc.Clear()
		} else {
			err = assoc.Replace(rel.children)
		}
		if err != nil {
			return err
		}
	}
	if rel.products != nil {
		assoc := tx.Model(category).Association("Products")
		var err error
		if len(rel.products) == 0 {
			err = assoc.Clear()
		} else {
			err = assoc.Replace(rel.products)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (h *CategoryHandler) load(c *gin.Context, id uint) (*models.Category, error) {
	var category models.Category
	err := tenant(h.db, c).
		Preload("Children", "bot_identifier = ?", botOf(c)).
		Preload("Products", "bot_identifier = ?", botOf(c)).
		First(&category, id).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// GetCategories returns every category of the tenant with its relations
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	query := tenant(h.db, c).
		Preload("Children", "bot_identifier = ?", botOf(c)).
		Preload("Products", "bot_identifier = ?", botOf(c)).
		Order("sort_order, id")
	if c.Query("is_root") == "true" {
		query = query.Where("is_root = ?", true)
	}

	var categories []models.Category
	if err := query.Find(&categories).Error; err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	category, err := h.load(c, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.Name == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	ctx := c.Request.Context()
	bot := botOf(c)
	rel, err := h.validate(ctx, bot, 0, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	category := models.Category{BotIdentifier: bot, Name: *req.Name}
	if req.IsRoot != nil {
		category.IsRoot = *req.IsRoot
	}
	if req.SortOrder != nil {
		category.SortOrder = *req.SortOrder
	}
	var rows layout.Layout
	if req.Layout != nil {
		rows = *req.Layout
	}
	category.Layout = models.NewLayoutColumn(rows)

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&category).Error; err != nil {
			return err
		}
		return replaceRelations(tx, &category, rel)
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	created, err := h.load(c, category.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.notify.CatalogUpdated(bot, "category", created.ID)
	c.JSON(http.StatusCreated, created)
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	category, err := h.load(c, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	ctx := c.Request.Context()
	bot := botOf(c)
	rel, err := h.validate(ctx, bot, category.ID, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	updateData := map[string]interface{}{}
	if req.Name != nil {
		updateData["name"] = *req.Name
	}
	if req.IsRoot != nil {
		updateData["is_root"] = *req.IsRoot
	}
	if req.SortOrder != nil {
		updateData["sort_order"] = *req.SortOrder
	}
	if req.Layout != nil {
		updateData["layout"] = models.NewLayoutColumn(*req.Layout)
	}

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updateData) > 0 {
			if err := tx.Model(&models.Category{}).Where("id = ?", category.ID).Updates(updateData).Error; err != nil {
				return err
			}
		}
		return replaceRelations(tx, category, rel)
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
	h.notify.CatalogUpdated(bot, "category", id)
	c.JSON(http.StatusOK, updated)
}

func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var category models.Category
	if err := tenant(h.db, c).First(&category, id).Error; err != nil {
		respondError(c, h.log, err)
		return
	}

	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM category_children WHERE parent_id = ? OR child_id = ?", id, id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM product_category WHERE category_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&category).Error
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if category.Image != "" {
		h.images.removeImage(category.Image)
	}
	h.notify.CatalogUpdated(category.BotIdentifier, "category", id)
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}

func (h *CategoryHandler) UploadImage(c *gin.Context) {
	h.images.upload(c, media.KindCategories, &models.Category{})
}
