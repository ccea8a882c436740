// Package serve implements the HTTP service command.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/tphakala/signbridge-go/internal/api"
	"github.com/tphakala/signbridge-go/internal/conf"
	"github.com/tphakala/signbridge-go/internal/datastore"
	"github.com/tphakala/signbridge-go/internal/gateway"
	"github.com/tphakala/signbridge-go/internal/logging"
	"github.com/tphakala/signbridge-go/internal/mediastore"
	"github.com/tphakala/signbridge-go/internal/observability"
	"github.com/tphakala/signbridge-go/internal/translation"
)

const shutdownTimeout = 10 * time.Second

// Command creates the serve command, which runs the translation service.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the translation HTTP service",
		Long:  "Start the web server handling sessions, frame classification and feedback.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		cobra.CheckErr(err)
	}

	return cmd
}

func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.WebServer.Address, "address", viper.GetString("webserver.address"), "Listen address")
	cmd.Flags().StringVar(&settings.WebServer.Port, "port", viper.GetString("webserver.port"), "Listen port")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}

func run(settings *conf.Settings) error {
	logger := logging.ForService("serve")

	store := datastore.New(settings)
	if store == nil {
		return fmt.Errorf("no database configured")
	}
	if err := store.Open(); err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("closing datastore", "error", err)
		}
	}()

	media, err := mediastore.New(settings.Media.BasePath)
	if err != nil {
		return fmt.Errorf("opening media store: %w", err)
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}

	classifier := gateway.New(settings.Gateway, metrics.Gateway)
	if settings.Gateway.APIKey == "" {
		logger.Warn("no gateway API key configured, serving fallback translations only")
	}

	manager := translation.NewManager(store, classifier, media, metrics.Translation)
	if err := manager.EnsureSeeded(); err != nil {
		return fmt.Errorf("seeding registry: %w", err)
	}

	controller := api.New(settings, store, manager, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := net.JoinHostPort(settings.WebServer.Address, settings.WebServer.Port)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting HTTP server", "addr", addr)
		if err := controller.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return controller.Echo.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
