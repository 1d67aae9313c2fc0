package api

import (
	"net/http"

	"telegram-catalog/internal/auth"
	"telegram-catalog/internal/botruntime"
	"telegram-catalog/internal/cache"
	"telegram-catalog/internal/catalog"
	"telegram-catalog/internal/layout"
	"telegram-catalog/internal/mailout"
	"telegram-catalog/internal/media"
	"telegram-catalog/internal/ws"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps is everything the HTTP layer needs.
type Deps struct {
	DB                *gorm.DB
	Tokens            *auth.TokenManager
	Configs           *cache.ConfigService
	Media             *media.Store
	Mailouts          *mailout.Service
	Hub               *ws.Hub // optional; without it admin writes are not broadcast
	Runtime           *botruntime.Client
	PublicURL         string
	CORSOrigin        string
	MaxButtonsPerLine int
	Log               *zap.Logger
}

func corsMiddleware(origin string) gin.HandlerFunc {
	if origin == "" {
		origin = "*"
	}
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestLogger logs one line per request.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
		)
	}
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// NewRouter wires every route onto a gin engine.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(d.Log), corsMiddleware(d.CORSOrigin))

	var notify Notifier = nopNotifier{}
	if d.Hub != nil {
		notify = d.Hub
	}

	store := catalog.NewStore(d.DB)
	guard := catalog.NewGuard(store)
	loader := layout.NewLoader(store)

	authHandler := NewAuthHandler(d.DB, d.Tokens, d.Log)
	buttonHandler := NewButtonHandler(d.DB, notify, d.Log)
	categoryHandler := NewCategoryHandler(d.DB, store, guard, d.Media, d.PublicURL, d.MaxButtonsPerLine, notify, d.Log)
	productHandler := NewProductHandler(d.DB, store, d.Media, d.PublicURL, notify, d.Log)
	templateHandler := NewTemplateHandler(d.DB, d.MaxButtonsPerLine, notify, d.Log)
	postHandler := NewPostHandler(d.DB, d.Media, d.PublicURL, notify, d.Log)
	userHandler := NewUserHandler(d.DB, d.Log)
	mailoutHandler := NewMailoutHandler(d.DB, d.Mailouts, d.Log)
	configHandler := NewConfigHandler(d.DB, d.Configs, d.Log)
	botHandler := NewBotHandler(d.DB, d.Media, d.Configs, d.Log)
	adminUserHandler := NewAdminUserHandler(d.DB, d.Log)
	telegramHandler := NewTelegramHandler(d.DB, loader, d.PublicURL, d.Log)
	cacheCleanHandler := NewCacheCleanHandler(d.DB, d.Configs, d.Runtime, d.Log)

	r.Static("/media", d.Media.Root())

	public := r.Group("/api")
	{
		public.GET("/health", Health)
		public.POST("/login", authHandler.Login)
	}

	// Admin API Routes
	apiGroup := r.Group("/api", auth.AdminAuth(d.Tokens))
	{
		apiGroup.GET("/me", authHandler.Me)
		apiGroup.PATCH("/me", authHandler.UpdateMe)
		apiGroup.PATCH("/my-bot", botHandler.UpdateMine)

		apiGroup.GET("/buttons", buttonHandler.GetButtons)
		apiGroup.POST("/buttons", buttonHandler.CreateButton)
		apiGroup.GET("/buttons/:id", buttonHandler.GetButton)
		apiGroup.PATCH("/buttons/:id", buttonHandler.UpdateButton)
		apiGroup.DELETE("/buttons/:id", buttonHandler.DeleteButton)

		apiGroup.GET("/categories", categoryHandler.GetCategories)
		apiGroup.POST("/categories", categoryHandler.CreateCategory)
		apiGroup.GET("/categories/:id", categoryHandler.GetCategory)
		apiGroup.PATCH("/categories/:id", categoryHandler.UpdateCategory)
		apiGroup.DELETE("/categories/:id", categoryHandler.DeleteCategory)
		apiGroup.POST("/categories/:id/image", categoryHandler.UploadImage)

		apiGroup.GET("/products", productHandler.GetProducts)
		apiGroup.POST("/products", productHandler.CreateProduct)
		apiGroup.GET("/products/:id", productHandler.GetProduct)
		apiGroup.PATCH("/products/:id", productHandler.UpdateProduct)
		apiGroup.DELETE("/products/:id", productHandler.DeleteProduct)
		apiGroup.POST("/products/:id/image", productHandler.UploadImage)

		apiGroup.GET("/templates", templateHandler.GetTemplates)
		apiGroup.POST("/templates", templateHandler.CreateTemplate)
		apiGroup.GET("/templates/:id", templateHandler.GetTemplate)
		apiGroup.PATCH("/templates/:id", templateHandler.UpdateTemplate)
		apiGroup.DELETE("/templates/:id", templateHandler.DeleteTemplate)

		apiGroup.GET("/posts", postHandler.GetPosts)
		apiGroup.POST("/posts", postHandler.CreatePost)
		apiGroup.GET("/posts/:id", postHandler.GetPost)
		apiGroup.PATCH("/posts/:id", postHandler.UpdatePost)
		apiGroup.DELETE("/posts/:id", postHandler.DeletePost)
		apiGroup.POST("/posts/:id/image", postHandler.UploadImage)

		apiGroup.GET("/users", userHandler.AdminList)
		apiGroup.POST("/users/mass-delete", userHandler.MassDelete)

		apiGroup.POST("/mailout/send-product/:productId", mailoutHandler.SendProduct)
		apiGroup.GET("/mailout/statistics", mailoutHandler.Statistics)

		apiGroup.GET("/configs", configHandler.List)
		apiGroup.POST("/configs", configHandler.Create)
		apiGroup.PATCH("/configs/:id", configHandler.Update)
		apiGroup.GET("/config/schema", configHandler.Schema)
		apiGroup.POST("/cache/clear-config", configHandler.ClearCache)
		apiGroup.POST("/admin-user/cache-clean", cacheCleanHandler.CleanCache)

		// Super admin routes
		superGroup := apiGroup.Group("", auth.SuperAdminOnly())
		{
			superGroup.GET("/bots", botHandler.List)
			superGroup.POST("/bots", botHandler.Create)
			superGroup.PATCH("/bots/:id", botHandler.Update)
			superGroup.DELETE("/bots/:id", botHandler.Delete)

			superGroup.GET("/admin-users", adminUserHandler.List)
			superGroup.POST("/admin-users", adminUserHandler.Create)
			superGroup.DELETE("/admin-users/:id", adminUserHandler.Delete)
		}
	}

	// Bot runtime routes
	telegramGroup := r.Group("/telegram", auth.BotAuth(d.DB))
	{
		telegramGroup.GET("/template/by-type/:type", telegramHandler.TemplatesByType)

		telegramGroup.GET("/post/start", telegramHandler.StartPost)
		telegramGroup.GET("/post/product/:id", telegramHandler.ProductPost)
		telegramGroup.GET("/post/:id", telegramHandler.Post)
		telegramGroup.PATCH("/post/:id/image-file-id", telegramHandler.PostImageFileID)

		telegramGroup.GET("/catalog/products/:id", telegramHandler.Product)
		telegramGroup.PATCH("/catalog/products/:id/image-file-id", telegramHandler.ProductImageFileID)
		telegramGroup.GET("/catalog/categories/root", telegramHandler.RootCategory)
		telegramGroup.GET("/catalog/categories/:id", telegramHandler.Category)
		telegramGroup.PATCH("/catalog/categories/:id/image-file-id", telegramHandler.CategoryImageFileID)

		telegramGroup.GET("/users", userHandler.List)
		telegramGroup.POST("/users/mass-update", userHandler.MassUpdate)

		telegramGroup.GET("/mailout/products", mailoutHandler.Products)
		telegramGroup.GET("/mailout/by-products", mailoutHandler.ByProducts)
		telegramGroup.POST("/mailout/delete", mailoutHandler.Delete)
		telegramGroup.PATCH("/mailout/:id/status", mailoutHandler.UpdateStatus)

		telegramGroup.GET("/config", configHandler.Value)

		if d.Hub != nil {
			telegramGroup.GET("/events", func(c *gin.Context) {
				d.Hub.ServeWs(c.Writer, c.Request, botOf(c))
			})
		}
	}

	return r
}
