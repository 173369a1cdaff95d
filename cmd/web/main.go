package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth/gothic"
	"github.com/spf13/cobra"
	"github.com/tosurnament/dashboard/internal/api"
	"github.com/tosurnament/dashboard/internal/config"
	"github.com/tosurnament/dashboard/internal/db"
	"github.com/tosurnament/dashboard/internal/middleware"
	"github.com/tosurnament/dashboard/internal/query"
	"github.com/tosurnament/dashboard/internal/service"
	"github.com/tosurnament/dashboard/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var addr, databasePath string

	load := func() (*config.Config, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		if addr != "" {
			cfg.Addr = addr
		}
		if databasePath != "" {
			cfg.DatabasePath = databasePath
		}
		return cfg, nil
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			database, err := db.InitDB(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer database.Close()
			if err := db.RunMigrations(database.DB); err != nil {
				return err
			}
			log.Println("Migrations applied to", cfg.DatabasePath)
			return nil
		},
	}

	root := &cobra.Command{
		Use:          "web",
		Short:        "Tosurnament dashboard",
		SilenceUsage: true,
		RunE:         serveCmd.RunE,
	}
	root.PersistentFlags().StringVar(&addr, "addr", "", "listen address, overrides ADDR")
	root.PersistentFlags().StringVar(&databasePath, "db", "", "sqlite database path, overrides DATABASE_PATH")
	root.AddCommand(serveCmd, migrateCmd)
	return root
}

func serve(ctx context.Context, cfg *config.Config) error {
	database, err := db.InitDB(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.RunMigrations(database.DB); err != nil {
		return err
	}

	middleware.InitAuth(cfg.Discord)
	cookieStore := sessions.NewCookieStore(cfg.SessionSecret)
	cookieStore.Options.HttpOnly = true
	cookieStore.Options.Secure = cfg.CookieSecure
	gothic.Store = cookieStore

	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.SessionLifetime
	sessionManager.Cookie.Secure = cfg.CookieSecure
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Store = sqlite3store.New(database.DB)

	userStore := store.NewUserStore(database)
	client := api.NewClient(cfg.APIBaseURL, &http.Client{Timeout: 15 * time.Second})

	srv := &server{
		sessions:    sessionManager,
		users:       userStore,
		userService: service.NewUserService(database, userStore),
		dashboard:   service.NewDashboardService(client, query.NewCache(cfg.QueryCacheTTL)),
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(srv, cfg.CSRFKey, cfg.CookieSecure),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Println("Server starting on", cfg.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
