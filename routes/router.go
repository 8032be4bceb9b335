package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quietpage/inkwell/cache"
	"github.com/quietpage/inkwell/config"
	"github.com/quietpage/inkwell/controllers"
	"github.com/quietpage/inkwell/feed"
	"github.com/quietpage/inkwell/middleware"
	"github.com/quietpage/inkwell/repository"
	"github.com/quietpage/inkwell/social"
	"github.com/quietpage/inkwell/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, feedCache cache.Cache) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if utils.Logger != nil {
		r.Use(utils.RequestLogger(utils.Logger))
		r.Use(utils.Recovery(utils.Logger))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Every request resolves its actor first; the guard chain builds on it.
	r.Use(middleware.CurrentUser())

	repo := repository.New(db)
	socialSvc := social.NewService(repo)
	assembler := feed.NewAssembler(repo, socialSvc)

	feedController := controllers.NewFeedController(assembler, socialSvc, repo, feedCache)
	postController := controllers.NewPostController(repo, feedCache, cfg.MediaRoot)
	followController := controllers.NewFollowController(socialSvc)
	authController := controllers.NewAuthController(repo)

	r.Static("/media", cfg.MediaRoot)

	r.GET("/", feedController.Index)
	r.GET("/group/:slug/", feedController.GroupFeed)
	r.GET("/posts/:id/", postController.Detail)
	r.POST("/posts/:id/comment/", postController.Comment)

	r.GET("/profile/:username/", feedController.Profile)
	r.GET("/profile/:username/follow/", middleware.LoginRequired(), followController.Follow)
	r.GET("/profile/:username/unfollow/", middleware.LoginRequired(), followController.Unfollow)

	r.GET("/create/", middleware.LoginRequired(), postController.CreateForm)
	r.POST("/create/", middleware.LoginRequired(), postController.Create)
	r.GET("/posts/:id/edit/", middleware.LoginRequired(), postController.EditForm)
	r.POST("/posts/:id/edit/", middleware.LoginRequired(), postController.Edit)
	r.POST("/posts/:id/delete/", middleware.LoginRequired(), postController.Delete)

	r.GET("/follow/", middleware.LoginRequired(), feedController.FollowIndex)

	auth := r.Group("/auth")
	auth.GET("/signup/", authController.SignupForm)
	auth.POST("/signup/", authController.Signup)
	auth.GET("/login/", authController.LoginForm)
	auth.POST("/login/", authController.Login)
	auth.POST("/logout/", authController.Logout)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "page not found")
	})

	return r
}
