// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"neurosync-go/internal/agent"
	"neurosync-go/internal/config"
	"neurosync-go/internal/handler"
	"neurosync-go/internal/middleware"
	"neurosync-go/internal/repository"
	"neurosync-go/internal/service"
	"neurosync-go/pkg/database"
	"neurosync-go/pkg/kafka"
	"neurosync-go/pkg/log"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置。缺少 Agent API key 属于配置错误，直接快速失败。
	if err := config.Init("./configs/config.yaml"); err != nil {
		fmt.Fprintf(os.Stderr, "配置初始化失败: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据存储
	database.InitSQLite(cfg.Database.SQLite.Path)

	var sessions repository.SessionStore
	if cfg.Session.Store == "redis" {
		database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
		sessions = repository.NewRedisSessionStore(database.RDB)
	} else {
		sessions = repository.NewMemorySessionStore()
	}

	kafka.InitProducer(cfg.Kafka)
	defer kafka.Close()

	// 4. 初始化 Repository
	userRepository := repository.NewUserRepository(database.DB)
	conversationRepo := repository.NewConversationRepository(database.DB)

	// 5. 初始化 Agent 与 Service (依赖注入)
	aiAgent, err := agent.New(cfg.Agent)
	if err != nil {
		log.Fatal("Agent 初始化失败", err)
	}
	sessionTTL := time.Duration(cfg.Session.TTLHours) * time.Hour
	userService := service.NewUserService(userRepository, sessions, sessionTTL)
	conversationService := service.NewConversationService(conversationRepo)
	chatService := service.NewChatService(conversationService, conversationRepo, userService, aiAgent)

	// 6. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 7. 注册路由
	userHandler := handler.NewUserHandler(userService)
	chatHandler := handler.NewChatHandler(chatService)
	conversationHandler := handler.NewConversationHandler(conversationService, chatService)
	authed := middleware.AuthMiddleware(userService)

	apiV1 := r.Group("/api/v1")
	{
		users := apiV1.Group("/users")
		{
			// 无需认证的路由 (公开访问)
			users.POST("/register", userHandler.Register)
			users.POST("/login", userHandler.Login)

			// 需要认证的路由 (仅限登录用户访问)
			authedUsers := users.Group("/")
			authedUsers.Use(authed)
			{
				authedUsers.GET("/me", userHandler.GetProfile)
				authedUsers.POST("/logout", userHandler.Logout)
				authedUsers.GET("/preferences", userHandler.GetPreferences)
				authedUsers.PUT("/preferences", userHandler.UpdatePreferences)
			}
		}

		// 同步问答路由
		chat := apiV1.Group("/chat")
		chat.Use(authed)
		{
			chat.POST("", chatHandler.Send)
		}

		// Conversation 路由组，需要认证
		conversations := apiV1.Group("/conversations")
		conversations.Use(authed)
		{
			conversations.GET("", conversationHandler.List)
			conversations.GET("/search", conversationHandler.Search)
			conversations.GET("/:id/messages", conversationHandler.Messages)
			conversations.GET("/:id/export", conversationHandler.Export)
			conversations.GET("/:id/stats", conversationHandler.Stats)
			conversations.PUT("/:id/title", conversationHandler.Rename)
			conversations.POST("/:id/summary", conversationHandler.Summarize)
			conversations.DELETE("/:id", conversationHandler.Delete)
		}
	}

	// WebSocket 流式问答（握手通过 query 参数携带会话令牌）
	r.GET("/ws/chat", authed, chatHandler.HandleWS)

	// 8. 启动 HTTP 服务器并实现优雅停机
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
