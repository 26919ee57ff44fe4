package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"standbot/internal/controllers"
	"standbot/internal/providers"
	"standbot/internal/scheduler/interfaces"
	"standbot/internal/services"
	"standbot/internal/structures"
	"standbot/internal/transport/telegram"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

type App struct {
	WebServer  *http.Server
	conf       *structures.Config
	logger     providers.Logger
	scheduler  interfaces.SchedulerInterface
	dispatcher *services.Dispatcher
	poller     *telegram.Poller
}

func NewApp(healthController *controllers.HealthController, scheduler interfaces.SchedulerInterface, dispatcher *services.Dispatcher, poller *telegram.Poller, conf *structures.Config, logger providers.Logger, router providers.RouterProviderInterface, metrics providers.MetricsProviderInterface) *App {
	// Inner mux: API routes
	apiMux := http.NewServeMux()
	for _, route := range router.GetRoutes() {
		apiMux.Handle(route.Url, route.Handler)
	}

	// Wrap API routes with metrics middleware
	instrumentedAPI := providers.MetricsMiddleware(metrics, router, apiMux)

	// Outer mux: infrastructure + instrumented API
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthController.Health)
	if conf.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Handle("/", instrumentedAPI)

	return &App{
		WebServer: &http.Server{
			Addr:         conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		conf:       conf,
		logger:     logger,
		scheduler:  scheduler,
		dispatcher: dispatcher,
		poller:     poller,
	}
}

// Run blocks until SIGINT/SIGTERM or a component fails, then shuts down and
// persists dialogue states.
func (a *App) Run() error {
	a.logger.Infof(providers.TypeApp, "Starting %s", a.conf.AppName)
	if err := a.scheduler.Restore(); err != nil {
		a.logger.Errorf(providers.TypeApp, "Restore error: %s", err)
	}
	a.scheduler.Init()

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		return a.dispatcher.Run(ctx)
	})
	if a.conf.Telegram.Mode == structures.ModePolling {
		g.Go(func() error {
			return a.poller.Run(ctx)
		})
	}
	g.Go(func() error {
		a.logger.Infof(providers.TypeApp, "Listening HTTP clients on %s:%d", a.conf.WebServer.Host, a.conf.WebServer.Port)
		if err := a.WebServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		if sigCtx.Err() != nil {
			a.logger.Infof(providers.TypeApp, "Shutdown signal received")
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.WebServer.Shutdown(shutdownCtx)
	})

	runErr := g.Wait()
	a.scheduler.Stop()

	if err := a.scheduler.Persist(); err != nil {
		return errors.Join(runErr, err)
	}
	if runErr != nil {
		return runErr
	}
	a.logger.Infof(providers.TypeApp, "gracefully stopped")
	return nil
}
