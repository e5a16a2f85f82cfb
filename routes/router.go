package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/cppla/postboard/config"
	"github.com/cppla/postboard/controllers"
	"github.com/cppla/postboard/middleware"
	"github.com/cppla/postboard/store"
	"github.com/cppla/postboard/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg config.AppConfig, posts store.PostStore, users store.UserStore) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log goes to its own rolling file; fall back to the app logger.
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg)
	if err != nil {
		utils.Sugar.Warnw("gin access log unavailable, using app logger", "path", cfg.GinPath, "error", err)
		gl = utils.Logger
	}
	r.Use(middleware.AccessLog(gl), middleware.Recovery(gl))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "X-Requested-With", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.Static(strings.TrimSuffix(utils.ImageURLPrefix, "/"), cfg.ImageDir)

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	images := utils.NewImageStore(cfg.ImageDir, cfg.ImageMIMETypes, int64(cfg.ImageMaxSizeMB)<<20)
	auth := middleware.AuthRequired(cfg.JWTSecret)
	upload := middleware.ImageUpload(images)

	postController := controllers.NewPostController(posts)
	userController := controllers.NewUserController(users, cfg.JWTSecret, time.Duration(cfg.TokenTTLMinutes)*time.Minute)

	api := r.Group("/api")

	postsGroup := api.Group("/posts")
	postsGroup.GET("", postController.ListPosts)
	postsGroup.GET("/:id", postController.GetPost)

	protected := postsGroup.Group("")
	protected.Use(auth, middleware.RateLimit(cfg.RateLimitPerMinute))
	protected.POST("", upload, postController.CreatePost)
	protected.PUT("/:id", upload, postController.UpdatePost)
	protected.DELETE("/:id", postController.DeletePost)

	userGroup := api.Group("/user")
	userGroup.Use(middleware.RateLimit(cfg.RateLimitPerMinute))
	userGroup.POST("/signup", userController.Signup)
	userGroup.POST("/login", userController.Login)
	userGroup.POST("/logout", auth, userController.Logout)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, "api route not found")
			return
		}
		utils.Error(ctx, http.StatusNotFound, "not found")
	})

	return r
}
