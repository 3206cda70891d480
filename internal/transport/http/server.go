package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inkpress/internal/cache"
	"inkpress/internal/config"
	"inkpress/internal/database"
	"inkpress/internal/handler"
	"inkpress/internal/mailer"
	"inkpress/internal/queue"
	appredis "inkpress/internal/redis"
	"inkpress/internal/repository"
	"inkpress/internal/service"
	"inkpress/internal/validator"
	"inkpress/internal/worker"
)

const shutdownTimeout = 15 * time.Second

// Run assembles the application and serves HTTP until interrupted.
func Run() error {
	ctx := context.Background()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Connect to Database
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// 3. Connect to Redis
	rdb, err := appredis.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rdb.Close()

	if err := rdb.Ping(ctx); err != nil {
		return fmt.Errorf("failed to reach redis: %w", err)
	}

	// 4. Repositories
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	// 5. Infrastructure
	codeStore := cache.NewCodeStore(rdb.Client)
	publisher := queue.NewPublisher(rdb.Client)
	consumer := queue.NewConsumer(rdb.Client)

	mediaService, err := service.NewMediaService(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create media service: %w", err)
	}

	// 6. Services
	userService := service.NewUserService(userRepo, codeStore, publisher, cfg)
	authService := service.NewAuthService(userRepo, cfg)
	googleService := service.NewGoogleService(userRepo, cfg)
	postService := service.NewPostService(postRepo, categoryRepo, mediaService)
	categoryService := service.NewCategoryService(categoryRepo)
	commentService := service.NewCommentService(commentRepo, postRepo)

	// 7. Mail worker pool
	smtpMailer := mailer.NewSMTPMailer(cfg)
	workerManager := worker.NewManager(consumer, worker.NewHandler(smtpMailer), worker.DefaultManagerConfig())
	if err := workerManager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start mail workers: %w", err)
	}
	defer workerManager.Stop()

	// 8. Handlers and router
	v := validator.NewValidator()
	router := NewRouter(RouterConfig{
		AuthHandler:     handler.NewAuthHandler(userService, authService, googleService, v),
		PostHandler:     handler.NewPostHandler(postService, v),
		CategoryHandler: handler.NewCategoryHandler(categoryService, v),
		CommentHandler:  handler.NewCommentHandler(commentService, v),
		JWTSecret:       cfg.JWTSecret,
	})

	server := &stdhttp.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Serve until interrupted, then drain
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] Listening on :%s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		log.Printf("[Server] Received %v, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Println("[Server] Shutdown complete")
	return nil
}
