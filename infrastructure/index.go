package infrastructure

import (
	"fmt"
	"os"
	"time"

	apperrors "likeness.io/application/appErrors"
	"likeness.io/application/controller"
	"likeness.io/application/interfaces"
	"likeness.io/application/middlewares"
	"likeness.io/infrastructure/logger"
	webRoutev1 "likeness.io/infrastructure/routes/ginRouter/web/v1"
	startup "likeness.io/infrastructure/startUp"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func StartServer() {
	startup.StartServices()
	defer startup.CleanUpServices()

	server := gin.Default()
	origins := []string{}
	if os.Getenv("GIN_MODE") == "debug" {
		origins = append(origins, "http://localhost:5174")
	} else if os.Getenv("GIN_MODE") == "release" {
		origins = append(origins, "https://likeness.io", "https://www.likeness.io")
	}
	corsConfig := cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Requester-Id", "User-Agent"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	server.Use(cors.New(corsConfig))
	server.MaxMultipartMemory = 15 << 20

	routerV1 := server.Group("/api/v1")
	routerV1.Use(middlewares.RequesterMiddleware())
	{
		webRoutev1.IdentityRouter(routerV1)
		webRoutev1.VerificationRouter(routerV1)
	}

	server.GET("/ping", func(ctx *gin.Context) {
		controller.HealthCheck(&interfaces.ApplicationContext[any]{Ctx: ctx})
	})

	server.NoRoute(func(ctx *gin.Context) {
		apperrors.NotFoundError(ctx, fmt.Sprintf("%s %s does not exist", ctx.Request.Method, ctx.Request.URL))
	})

	gin_mode := os.Getenv("GIN_MODE")
	port := os.Getenv("PORT")
	if gin_mode == "debug" || gin_mode == "release" {
		logger.Info(fmt.Sprintf("Server starting on PORT %s", port))
		server.Run(fmt.Sprintf(":%s", port))
	} else {
		panic(fmt.Sprintf("invalid gin mode used - %s", gin_mode))
	}
}
