package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tasktracker/internal/auth"
	"tasktracker/internal/config"
	"tasktracker/internal/handler"
	"tasktracker/internal/metrics"
	"tasktracker/internal/middleware"
	"tasktracker/internal/repository"
	"tasktracker/internal/service"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

type Server struct {
	Engine    *gin.Engine
	DB        *gorm.DB
	Config    *config.Config
	Scheduler *service.Scheduler
}

// OpenDB applies pending migrations and connects to the configured database.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	if cfg.DBDriver == config.DriverPostgres {
		if err := repository.MigrateUp(cfg.MigrationURL()); err != nil {
			return nil, fmt.Errorf("❌ failed to migrate DB: %w", err)
		}
		log.Println("✅ Migrations applied")
	}

	db, err := repository.NewDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("❌ failed to connect to DB: %w", err)
	}
	log.Println("✅ Connected to database")
	return db, nil
}

// NewScheduler wires the recurrence engine to db.
func NewScheduler(db *gorm.DB, cfg *config.Config, m *metrics.Metrics) *service.Scheduler {
	engine := service.NewRecurrenceEngine(repository.NewTaskRepository(db), cfg.RecurrenceBatchSize, m)
	return service.NewScheduler(engine, service.SchedulerOptions{
		Interval: cfg.RecurrenceInterval,
		Metrics:  m,
	})
}

func Init(cfg *config.Config) (*Server, error) {
	db, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}

	m := metrics.New()

	return &Server{
		Engine:    NewRouter(db, cfg, m),
		DB:        db,
		Config:    cfg,
		Scheduler: NewScheduler(db, cfg, m),
	}, nil
}

// NewRouter builds the HTTP API on top of db.
func NewRouter(db *gorm.DB, cfg *config.Config, m *metrics.Metrics) *gin.Engine {
	handler.RegisterValidators()

	r := gin.Default()
	r.Use(middleware.Metrics(m), middleware.RequestTimeout(cfg.RequestTimeout))

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry)

	// Initialize handlers
	userHandler := handler.NewUserHandler(userRepo, tokens)
	profileHandler := handler.NewProfileHandler(userRepo)
	taskHandler := handler.NewTaskHandler(service.NewTaskService(taskRepo))

	// Operational routes
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")

	// Public routes
	api.POST("/auth/register", userHandler.Register)
	api.POST("/auth/login", userHandler.Login)

	// Protected routes - require authentication
	authorized := api.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(tokens))
	{
		authorized.GET("/profile", profileHandler.GetProfile)
		authorized.PUT("/profile", profileHandler.UpdateProfile)

		authorized.GET("/tasks", taskHandler.ListTasks)
		authorized.GET("/tasks/stats", taskHandler.GetStats)
		authorized.GET("/tasks/:id", taskHandler.GetTask)
		authorized.POST("/tasks", taskHandler.CreateTask)
		authorized.PATCH("/tasks/:id", taskHandler.UpdateTask)
		authorized.DELETE("/tasks/:id", taskHandler.DeleteTask)
	}

	return r
}

// Run serves HTTP and the recurrence scheduler until SIGINT or SIGTERM.
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	if err := s.Scheduler.Start(); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🚀 Server running on port %s\n", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-quit:
	case runErr = <-errCh:
		log.Printf("❌ Failed to listen: %s\n", runErr)
	}
	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	shutdownErr := srv.Shutdown(ctx)

	s.Scheduler.Stop()

	if shutdownErr != nil {
		return fmt.Errorf("❌ server forced to shutdown: %w", shutdownErr)
	}

	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Println("✅ Server exited properly")
	return runErr
}
