package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	webAdapter "photo-agency/internal/adapters/web"
	"photo-agency/internal/app"
	"photo-agency/internal/config"
	"photo-agency/internal/core"
	"photo-agency/internal/db"
	"photo-agency/internal/jobs"
	"photo-agency/internal/logger"
	"photo-agency/internal/notify"

	"github.com/asaskevich/EventBus"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Runtime holds the wired process: config, pool, event bus and application service.
type Runtime struct {
	Config  *config.Config
	Pool    *pgxpool.Pool
	Bus     EventBus.Bus
	Service app.ApplicationService
}

// NewRuntime connects to the database and wires every service.
func NewRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	bus := EventBus.New()
	var sender notify.Sender = notify.NewLogSender()
	if cfg.SMTP.Enabled() {
		sender = notify.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	}
	if err := notify.NewNotifier(sender).Subscribe(bus); err != nil {
		pool.Close()
		return nil, err
	}

	svc := app.NewAppService(
		pool,
		cfg.CompanyCode,
		core.NewCompanyService(pool),
		core.NewOrderService(pool, cfg.PricingOptions(), bus),
		core.NewInvoiceService(pool, cfg.InvoiceOptions(), bus),
		core.NewReportingService(pool),
		core.NewUserService(pool),
	)

	return &Runtime{Config: cfg, Pool: pool, Bus: bus, Service: svc}, nil
}

// Close waits for pending notifications and releases the pool.
func (rt *Runtime) Close() {
	rt.Bus.WaitAsync()
	rt.Pool.Close()
}

// Serve runs the HTTP API and the billing scheduler until ctx is cancelled.
func Serve(ctx context.Context, rt *Runtime) error {
	log := logger.WithComponent("server")
	cfg := rt.Config

	if err := cfg.RequireJWTSecret(); err != nil {
		return err
	}

	loc, err := time.LoadLocation(cfg.CronLocation)
	if err != nil {
		return fmt.Errorf("invalid CRON_LOCATION %q: %w", cfg.CronLocation, err)
	}
	sched, err := jobs.New(rt.Service, jobs.Options{Location: loc, AutoPeriodInvoicing: cfg.AutoPeriodInvoicing})
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           webAdapter.NewHandler(rt.Service, cfg.AllowedOrigins, cfg.JWTSecret),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
