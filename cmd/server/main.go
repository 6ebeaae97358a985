package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/ytakahashi/todo-web/internal/config"
	"github.com/ytakahashi/todo-web/internal/handlers"
	"github.com/ytakahashi/todo-web/internal/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		port       int
		storeURL   string
		staticDir  string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "todo-server",
		Short: "Serve the todo API",
		Long: `Serve the todo REST API under /api/todos.

Settings come from defaults, then todo.toml (or --config), then .env and
the environment (PORT, STORE_URL, STATIC_DIR, LOG_LEVEL, LOG_FORMAT),
then flags.

Store URLs:
  memory://                         in-process, lost on exit
  file:///var/lib/todo/todos.yaml   YAML file
  firestore://<project>             Cloud Firestore`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("port") {
				cfg.Port = port
			}
			if flags.Changed("store") {
				cfg.StoreURL = storeURL
			}
			if flags.Changed("static") {
				cfg.StaticDir = staticDir
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a TOML config file")
	cmd.Flags().IntVarP(&port, "port", "p", config.DefaultPort, "listen port")
	cmd.Flags().StringVar(&storeURL, "store", config.DefaultStoreURL, "store connection string")
	cmd.Flags().StringVar(&staticDir, "static", "", "directory with the built client bundle")
	cmd.Flags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level")
	return cmd
}

func serve(parent context.Context, cfg *config.Config) error {
	log := cfg.Logger()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := services.Open(ctx, cfg.StoreURL)
	if err != nil {
		log.WithError(err).Error("Failed to open store")
		return err
	}
	defer store.Close()

	e := handlers.NewRouter(store, log, handlers.RouterOptions{StaticDir: cfg.StaticDir})

	errc := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":  cfg.Addr(),
			"store": cfg.StoreURL,
		}).Info("Server starting")
		errc <- e.Start(cfg.Addr())
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Server failed")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
