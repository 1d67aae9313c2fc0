package api

import (
	"errors"
	"net/http"

	"telegram-catalog/internal/auth"
	"telegram-catalog/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AuthHandler struct {
	db     *gorm.DB
	tokens *auth.TokenManager
	log    *zap.Logger
}

func NewAuthHandler(db *gorm.DB, tokens *auth.TokenManager, log *zap.Logger) *AuthHandler {
	return &AuthHandler{db: db, tokens: tokens, log: log}
}

type LoginInput struct {
	AdminName     string `json:"admin_name" binding:"required"`
	AdminPassword string `json:"admin_password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password required"})
		return
	}

	var admin models.AdminUser
	err := h.db.WithContext(c.Request.Context()).Where("admin_name = ?", input.AdminName).First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		respondError(c, h.log, err)
		return
	}

	if !auth.CheckPassword(admin.PasswordHash, input.AdminPassword) {
		h.log.Info("login rejected", zap.String("admin", admin.AdminName))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.tokens.Generate(admin)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":          token,
		"admin_name":     admin.AdminName,
		"bot_identifier": admin.BotIdentifier,
		"roles":          admin.Roles(),
	})
}

func (h *AuthHandler) currentAdmin(c *gin.Context) (*models.AdminUser, bool) {
	p := auth.Current(c)
	if p == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return nil, false
	}
	var admin models.AdminUser
	if err := h.db.WithContext(c.Request.Context()).First(&admin, p.AdminID).Error; err != nil {
		respondError(c, h.log, err)
		return nil, false
	}
	return &admin, true
}

// Me returns the logged in admin
func (h *AuthHandler) Me(c *gin.Context) {
	admin, ok := h.currentAdmin(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":             admin.ID,
		"admin_name":     admin.AdminName,
		"bot_identifier": admin.BotIdentifier,
		"roles":          admin.Roles(),
	})
}

// UpdateMe changes the logged in admin's password
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	var req struct {
		AdminPassword string `json:"admin_password" binding:"omitempty,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	admin, ok := h.currentAdmin(c)
	if !ok {
		return
	}
	if req.AdminPassword != "" {
		hash, err := auth.HashPassword(req.AdminPassword)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		if err := h.db.WithContext(c.Request.Context()).Model(admin).Update("password_hash", hash).Error; err != nil {
			respondError(c, h.log, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"id":             admin.ID,
		"admin_name":     admin.AdminName,
		"bot_identifier": admin.BotIdentifier,
		"roles":          admin.Roles(),
	})
}

type AdminUserHandler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewAdminUserHandler(db *gorm.DB, log *zap.Logger) *AdminUserHandler {
	return &AdminUserHandler{db: db, log: log}
}

func (h *AdminUserHandler) List(c *gin.Context) {
	admins := []models.AdminUser{}
	if err := h.db.WithContext(c.Request.Context()).Order("id").Find(&admins).Error; err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, admins)
}

func (h *AdminUserHandler) Create(c *gin.Context) {
	var req struct {
		AdminName     string `json:"admin_name" binding:"required,max=100"`
		AdminPassword string `json:"admin_password" binding:"required,min=6"`
		BotIdentifier string `json:"bot_identifier" binding:"max=100"`
		IsSuper       bool   `json:"is_super"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if req.BotIdentifier != "" {
		var count int64
		if err := h.db.WithContext(ctx).Model(&models.Bot{}).Where("bot_identifier = ?", req.BotIdentifier).Count(&count).Error; err != nil {
			respondError(c, h.log, err)
			return
		}
		if count == 0 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Bot not found"})
			return
		}
	} else if !req.IsSuper {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bot_identifier is required"})
		return
	}

	var existing int64
	h.db.WithContext(ctx).Model(&models.AdminUser{}).Where("admin_name = ?", req.AdminName).Count(&existing)
	if existing > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Admin name already taken"})
		return
	}

	hash, err := auth.HashPassword(req.AdminPassword)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	admin := models.AdminUser{
		AdminName:     req.AdminName,
		PasswordHash:  hash,
		BotIdentifier: req.BotIdentifier,
		IsSuper:       req.IsSuper,
	}
	if err := h.db.WithContext(ctx).Create(&admin).Error; err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, admin)
}

func (h *AdminUserHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if p := auth.Current(c); p != nil && p.AdminID == id {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot delete yourself"})
		return
	}

	res := h.db.WithContext(c.Request.Context()).Delete(&models.AdminUser{}, id)
	if res.Error != nil {
		respondError(c, h.log, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Admin user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Admin user deleted successfully"})
}
