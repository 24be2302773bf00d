package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/midnightlabs/midnight/internal/app"
	"github.com/midnightlabs/midnight/internal/pkg/config"
	"github.com/midnightlabs/midnight/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

type overrides struct {
	port     string
	dataDir  string
	logLevel string
}

func (o *overrides) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.port, "port", "", "HTTP port (overrides PORT)")
	cmd.Flags().StringVar(&o.dataDir, "data-dir", "", "local storage directory (overrides DATA_DIR)")
	cmd.Flags().StringVar(&o.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
}

func (o *overrides) apply(cfg *config.Config) {
	if o.port != "" {
		cfg.Port = o.port
	}
	if o.dataDir != "" {
		cfg.DataDir = o.dataDir
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
}

func loadConfig(ctx context.Context, o *overrides) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	o.apply(cfg)
	logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "midnight",
	})
	return cfg, nil
}

func addServe(root *cobra.Command) {
	o := &overrides{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API for one app instance",
		Example: `
midnight serve
midnight serve --port 9090 --data-dir ./state
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig(ctx, o)
			if err != nil {
				return err
			}
			return serve(ctx, cfg)
		},
	}
	o.bind(cmd)
	root.AddCommand(cmd)
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	a, err := app.New(ctx, cfg, app.Options{}, log)
	if err != nil {
		return err
	}
	if err := a.Init(ctx); err != nil {
		a.Teardown(context.Background())
		return err
	}

	e := a.Router()
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err = <-errCh:
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := e.Shutdown(shutdownCtx); serr != nil {
		log.Warn().Err(serr).Msg("http shutdown")
	}
	a.Teardown(shutdownCtx)
	return err
}
