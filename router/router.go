package router

import (
	"time"

	"budget/api"
	"budget/config"
	"budget/database"
	_ "budget/docs"
	"budget/middleware"
	"budget/service"
	"budget/store"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRouter 设置路由，需在 database.Init 之后调用
func SetupRouter(cfg *config.Config) *gin.Engine {
	// 设置运行模式
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	// CORS 中间件
	r.Use(CORSMiddleware())

	loc, err := cfg.Server.Location()
	if err != nil {
		loc = time.Local
	}

	transactions := store.NewTransactionStore(database.DB)
	categories := store.NewCategoryStore(database.DB)
	dashboard := service.NewDashboardService(transactions, loc)
	email := service.NewEmailService(&cfg.Email)

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		// 认证相关路由（无需登录）
		authHandler := api.NewAuthHandler(cfg)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login",
				middleware.LoginRateLimit(cfg.RateLimit.LoginAttempts, cfg.RateLimit.LoginWindow()),
				authHandler.Login,
			)

			// 找回密码
			resetHandler := api.NewPasswordResetHandler(cfg, email)
			auth.POST("/password/forgot",
				middleware.LoginRateLimit(cfg.RateLimit.LoginAttempts, cfg.RateLimit.LoginWindow()),
				resetHandler.ForgotPassword,
			)
			auth.GET("/password/verify", resetHandler.VerifyResetToken)
			auth.POST("/password/reset", resetHandler.ResetPassword)
		}

		// 需要 JWT 认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth())
		{
			// 用户相关
			profileHandler := api.NewProfileHandler(categories)
			authorized.GET("/profile", profileHandler.GetProfile)
			authorized.PATCH("/profile", profileHandler.UpdateProfile)
			authorized.POST("/profile/password", profileHandler.ChangePassword)
			authorized.GET("/preferences", profileHandler.GetPreferences)
			authorized.PATCH("/preferences", profileHandler.UpdatePreferences)

			// 收支记录
			transactionHandler := api.NewTransactionHandler(categories)
			txs := authorized.Group("/transactions")
			{
				txs.POST("", transactionHandler.Create)
				txs.GET("", transactionHandler.List)
				txs.GET("/:id", transactionHandler.Get)
				txs.PUT("/:id", transactionHandler.Update)
				txs.DELETE("/:id", transactionHandler.Delete)
			}

			// 类别
			categoryHandler := api.NewCategoryHandler(categories, transactions)
			cats := authorized.Group("/categories")
			{
				cats.GET("", categoryHandler.List)
				cats.POST("", categoryHandler.Create)
				cats.PUT("/:id", categoryHandler.Update)
				cats.DELETE("/:id", categoryHandler.Delete)
			}

			// 统计
			dashboardHandler := api.NewDashboardHandler(dashboard, email)
			authorized.GET("/dashboard", dashboardHandler.Get)
			authorized.POST("/dashboard/email", dashboardHandler.SendReport)
			statisticsHandler := api.NewStatisticsHandler(transactions)
			authorized.GET("/statistics/summary", statisticsHandler.GetIncomeExpenseSummary)

			// 导出
			exportHandler := api.NewExportHandler(transactions)
			export := authorized.Group("/export")
			{
				export.GET("/csv", exportHandler.ExportCSV)
				export.GET("/excel", exportHandler.ExportExcel)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		if sqlDB, err := database.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = "degraded"
		}
		c.JSON(200, gin.H{
			"status": status,
		})
	})

	return r
}

// CORSMiddleware CORS 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
