package router

import (
	"net/http"

	"github.com/Kiran8658/FSD-Even-project/internal/handler"
	"github.com/Kiran8658/FSD-Even-project/internal/logger"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const (
	appName       = "LearnPulse"
	sessionName   = "learnpulse_session"
	sessionMaxAge = 7 * 24 * 60 * 60
	defaultSecret = "learnpulse-dev-secret"
)

// Options 配置路由层的会话、跨域与日志
type Options struct {
	SessionSecret string
	CORSOrigins   []string
	Logger        *logger.Logger
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(handler.RequestLogger(opts.Logger))
	if len(opts.CORSOrigins) > 0 {
		r.Use(handler.CORS(opts.CORSOrigins))
	}

	// 配置会话中间件
	secret := opts.SessionSecret
	if secret == "" {
		secret = defaultSecret
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":    appName,
			"message": "Learning activity tracking API",
			"endpoints": gin.H{
				"auth":      "/api/auth",
				"users":     "/api/users",
				"dashboard": "/api/dashboard",
			},
		})
	})
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	apiGroup := r.Group("/api")

	auth := apiGroup.Group("/auth")
	{
		auth.POST("/signup", api.SignUp)
		auth.POST("/signin", api.SignIn)
		auth.POST("/signout", api.SignOut)
		auth.GET("/me", api.AuthRequired(), api.Me)
	}

	users := apiGroup.Group("/users")
	{
		users.GET("/id/:id", api.GetUserByID)
		users.PUT("/me", api.AuthRequired(), api.UpdateMe)
		users.GET("/:username", api.GetUserByUsername)
	}

	// 需要认证的看板路由
	dashboard := apiGroup.Group("/dashboard")
	dashboard.Use(api.AuthRequired())
	{
		dashboard.GET("/stats", api.GetStats)
		dashboard.GET("/activities", api.GetActivities)
		dashboard.POST("/activities/log", api.LogActivity)
		dashboard.POST("/streak/recompute", api.RecomputeStreak)

		dashboard.GET("/skills", api.GetSkills)
		dashboard.POST("/skills", api.SetSkill)
		dashboard.GET("/skills/catalog", api.GetSkillCatalog)

		dashboard.GET("/insights", api.GetInsights)
		dashboard.POST("/insights/:id/read", api.MarkInsightRead)

		dashboard.GET("/overview", api.GetOverview)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found", "code": "not_found"})
	})

	return r
}
