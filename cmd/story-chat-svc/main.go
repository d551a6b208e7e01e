// Package main 对话式故事编辑服务入口
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"storygpt-api/internal/application/chat"
	"storygpt-api/internal/config"
	"storygpt-api/internal/infrastructure/image"
	"storygpt-api/internal/infrastructure/llm"
	"storygpt-api/internal/infrastructure/persistence/postgres"
	"storygpt-api/internal/infrastructure/persistence/redis"
	"storygpt-api/internal/interfaces/http/handler"
	"storygpt-api/internal/interfaces/http/middleware"
	"storygpt-api/internal/interfaces/http/router"
	einoobs "storygpt-api/internal/observability/eino"
	"storygpt-api/pkg/logger"
	"storygpt-api/pkg/tracer"
)

// Version 版本信息，构建时注入
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件（如果存在）
	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger.Init(
		cfg.Observability.Logging.Level,
		cfg.Observability.Logging.Format,
	)

	ctx := context.Background()
	log := logger.FromContext(ctx)
	log.Info("starting story-chat-svc",
		"version", Version,
		"build_time", BuildTime,
		"env", cfg.App.Env,
	)

	// 初始化追踪
	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: cfg.App.Name,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		log.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			log.Error("failed to shutdown tracer", "error", err)
		}
	}()

	// 初始化 Eino 全局 callbacks（指标/追踪）
	einoobs.Init()

	// LLM 与图像能力
	factory := llm.NewEinoFactory(cfg)
	imgClient := image.NewClient(&cfg.Image)

	// 对话编排
	composer := chat.NewComposer(imgClient, &cfg.Image, cfg.Chat.EntityPromptScope)
	pages := chat.NewStoryPagesGenerator(factory, "")
	dispatcher := chat.NewDispatcher(composer, pages, cfg.Chat.RegenerateOnPromptEdit)
	intent := chat.NewIntentAgent(factory, "")
	reply := chat.NewReplyAgent(factory, "")
	chatSvc := chat.NewService(intent, reply, dispatcher, &cfg.Chat)

	// 可选的持久化层
	var pgClient *postgres.Client
	var storyHandler *handler.StoryHandler
	var storyCache *redis.StoryCache
	var redisClient *redis.Client
	var limiter middleware.RateLimiter

	if cfg.Cache.Redis.Enabled {
		redisClient, err = redis.NewClient(&cfg.Cache.Redis)
		if err != nil {
			logger.Fatal(ctx, "failed to connect redis", err)
		}
		defer redisClient.Close()
		storyCache = redis.NewStoryCache(redis.NewCache(redisClient))
		limiter = redis.NewRateLimiter(redisClient)
	}

	if cfg.Database.Postgres.Enabled {
		pgClient, err = postgres.NewClient(&cfg.Database.Postgres)
		if err != nil {
			logger.Fatal(ctx, "failed to connect postgres", err)
		}
		defer pgClient.Close()

		storyRepo := postgres.NewStoryRepository(pgClient)
		if err := storyRepo.AutoMigrate(); err != nil {
			logger.Fatal(ctx, "failed to migrate story schema", err)
		}
		storyHandler = handler.NewStoryHandler(storyRepo, storyCache)
	}

	// 路由
	r := router.New(cfg, router.Handlers{
		Health: handler.NewHealthHandler(pgClient, redisClient),
		Chat:   handler.NewChatHandler(chatSvc),
		Story:  storyHandler,
	}, limiter)

	// 创建 HTTP 服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.HTTP.Host, cfg.Server.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:  cfg.Server.HTTP.IdleTimeout,
	}

	// 启动服务器
	go func() {
		log.Info("http server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}
