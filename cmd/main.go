package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chartkit-backend/internal/config"
	"chartkit-backend/internal/handler"
	"chartkit-backend/internal/middleware"
	"chartkit-backend/internal/service"
	"chartkit-backend/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./configs/config.yaml", "配置文件路径")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	// 初始化服务
	chartService, catalog, err := service.NewFromConfig(cfg)
	if err != nil {
		logger.Fatalf("Failed to init chart service: %v", err)
	}
	defer catalog.Close()

	// 初始化处理器
	uploadHandler := handler.NewUploadHandler(chartService, cfg.Server.MaxUploadBytes)
	chartHandler := handler.NewChartHandler(chartService)
	datasetHandler := handler.NewDatasetHandler(chartService)

	// 创建路由
	router := setupRouter(cfg, chartService, uploadHandler, chartHandler, datasetHandler)

	// 创建HTTP服务器
	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	// 启动服务器
	go func() {
		logger.Infof("服务器启动在端口 %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("服务器启动失败: %v", err)
		}
	}()

	// 等待信号优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("服务器正在关闭...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("服务器关闭失败: %v", err)
	}
	logger.Info("服务器已关闭")
}

func setupRouter(
	cfg *config.Config,
	chartService *service.ChartService,
	uploadHandler *handler.UploadHandler,
	chartHandler *handler.ChartHandler,
	datasetHandler *handler.DatasetHandler,
) *gin.Engine {
	// 设置gin模式
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.MaxMultipartMemory = 8 << 20

	// 中间件
	router.Use(middleware.RequestContextMiddleware())
	router.Use(logger.GinMiddleware())
	router.Use(middleware.Recovery())

	// CORS配置
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
	}
	router.Use(cors.New(corsConfig))

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	// 静态文件
	router.Static("/uploads", chartService.UploadsDir())
	router.Static("/temp", chartService.TempDir())

	// API路由
	api := router.Group("/api")
	{
		uploadHandler.Register(api)
		chartHandler.Register(api)
		datasetHandler.Register(api)
	}

	return router
}
