package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	gommonlog "github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"koalbot_console/internal/apiclient"
	"koalbot_console/internal/config"
	"koalbot_console/internal/handlers"
	authMiddleware "koalbot_console/internal/middleware"
	"koalbot_console/internal/services"
	"koalbot_console/internal/session"
	"koalbot_console/web/templates/pages"
)

func main() {
	var envFile, port string

	root := &cobra.Command{
		Use:   "server",
		Short: "Koalbot admin console",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}
			return serve(cfg)
		},
	}
	root.Flags().StringVar(&envFile, "env-file", ".env", "Path to the .env file")
	root.Flags().StringVar(&port, "port", "", "Listen port, overrides PORT")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func logLevel(name string) gommonlog.Lvl {
	switch name {
	case "debug":
		return gommonlog.DEBUG
	case "warn":
		return gommonlog.WARN
	case "error":
		return gommonlog.ERROR
	}
	return gommonlog.INFO
}

func serve(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Session profiles live in Redis when configured
	var store session.Store = session.NewMemoryStore()
	var cache *services.RedisCache
	if cfg.RedisURL != "" {
		var err error
		cache, err = services.NewRedisCache(cfg.RedisURL, "koalbot-console:")
		if err != nil {
			log.Printf("Warning: Redis unavailable, using in-memory sessions: %v", err)
		} else {
			defer cache.Close()
			store = session.NewRedisStore(cache)
		}
	}
	sessions := session.NewManager(store, cfg.SessionTTL)

	metrics := services.NewMetrics("koalbot_console")
	client := apiclient.New(cfg.APIBaseURL, cfg.APITimeout, apiclient.WithObserver(metrics.ObserveBackend))

	// Initialize Database
	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = services.InitDB(cfg.DatabaseURL, logger.Warn)
		if err != nil {
			return err
		}
		if err := services.AutoMigrate(db); err != nil {
			return err
		}
	} else {
		log.Println("Warning: DATABASE_URL not set, audit log disabled")
	}
	audit := services.NewAuditLog(db)

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(logLevel(cfg.LogLevel))

	// Middleware
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(metrics.Middleware())
	e.Use(authMiddleware.Guard(sessions))
	e.HTTPErrorHandler = authMiddleware.CustomErrorHandler(sessions, cfg.IsProduction())

	e.Renderer = pages.Default()

	// Static file serving
	e.Static("/static", "web/static")
	favicon := func(c echo.Context) error { return c.File("web/static/koala-favicon.svg") }
	e.GET("/favicon.ico", favicon)
	e.GET("/koala-favicon.ico", favicon)

	monitor := services.NewStatusMonitor(client, cfg.StatusInterval)
	go monitor.Run(ctx)

	users := handlers.NewUserHandler(client, audit, cfg.DefaultPageSize, cfg.SearchDebounce, e.Logger)
	members := handlers.NewMemberHandler(client, audit, cfg.DefaultPageSize, cfg.SearchDebounce, e.Logger)

	sessions.Subscribe(func(ev session.Event) {
		switch ev.Kind {
		case session.Created:
			metrics.SessionStarted(ev.Key)
		case session.Cleared:
			metrics.SessionEnded(ev.Key)
			users.Forget(ev.Key)
			members.Forget(ev.Key)
		}
	})

	// Sessions that expire without a logout never send Cleared
	go sweepViewModels(ctx, cfg.SessionTTL, users, members)

	loginLimiter := middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(cfg.LoginRateLimitRPS),
			Burst:     cfg.LoginRateLimitBurst,
			ExpiresIn: 3 * time.Minute,
		}),
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "Terlalu banyak percobaan login, coba lagi nanti")
		},
	})

	handlers.Routes{
		Auth:         handlers.NewAuthHandler(client, sessions, audit, cfg.IsProduction()),
		Dashboard:    handlers.NewDashboardHandler(client, cache, cfg.SummaryCacheTTL, audit),
		Users:        users,
		Members:      members,
		Palette:      handlers.NewPaletteHandler(),
		Status:       handlers.NewStatusHandler(monitor, ctx.Done()),
		LoginLimiter: loginLimiter,
	}.Register(e)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, monitor.Current())
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			e.Logger.Error(err)
		}
	}()

	log.Printf("Server starting on port %s", cfg.Port)
	if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

type sweeper interface {
	Sweep(idle time.Duration) int
}

// sweepViewModels drops per-session view models unused for a whole session TTL
func sweepViewModels(ctx context.Context, idle time.Duration, registries ...sweeper) {
	interval := idle / 4
	if interval > 10*time.Minute {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dropped := 0
			for _, r := range registries {
				dropped += r.Sweep(idle)
			}
			if dropped > 0 {
				log.Printf("Dropped %d idle view models", dropped)
			}
		}
	}
}
