// Package main 是聊天后端服务的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"thinkbot-go/internal/config"
	"thinkbot-go/internal/handler"
	"thinkbot-go/internal/middleware"
	"thinkbot-go/internal/model"
	"thinkbot-go/internal/repository"
	"thinkbot-go/internal/service"
	"thinkbot-go/pkg/database"
	"thinkbot-go/pkg/llm"
	"thinkbot-go/pkg/log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// 1. 加载 .env（不存在时静默跳过）并初始化配置
	_ = godotenv.Load()
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库和 Redis（Redis 未配置时缓存自动禁用）
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)

	// 4. 自动迁移数据表结构
	if err := database.DB.AutoMigrate(
		&model.Conversation{},
		&model.Message{},
		&model.DistributionCenter{},
		&model.Product{},
		&model.User{},
		&model.InventoryItem{},
		&model.Order{},
		&model.OrderItem{},
	); err != nil {
		log.Fatalf("数据表迁移失败: %v", err)
	}

	// 5. 初始化 Repository
	conversationRepo := repository.NewConversationRepository(database.DB, database.RDB)
	catalogRepo := repository.NewCatalogRepository(database.DB)

	// 6. 初始化 Service (依赖注入)
	llmClient := llm.NewClient(cfg.LLM)
	dataService := service.NewDataService(catalogRepo)
	chatService := service.NewChatService(conversationRepo, dataService, llmClient)
	conversationService := service.NewConversationService(conversationRepo)

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), middleware.CORS(), gin.Recovery())

	// 8. 初始化 Handler 并注册路由
	chatHandler := handler.NewChatHandler(chatService)
	conversationHandler := handler.NewConversationHandler(conversationService)

	r.GET("/health", handler.Health)

	api := r.Group("/api")
	{
		api.POST("/chat", chatHandler.Chat)

		conversations := api.Group("/conversations")
		{
			conversations.GET("", conversationHandler.ListConversations)
			conversations.GET("/:sessionId", conversationHandler.GetConversationMessages)
		}
	}

	// 9. 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已优雅关闭")
}
