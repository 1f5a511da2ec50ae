package app

import (
	"cashflip/internal/config"
	"cashflip/internal/cronrunner"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

type App struct {
	ServiceProvider *ServiceProvider
}

func NewApp() *App {
	return &App{}
}

func (s *App) initServiceProvider() {
	s.ServiceProvider = newServiceProvider()
}

func (s *App) Run() error {
	err := config.Load(".env")
	if err != nil {
		log.Printf("Error loading .env file: %v", err)
	}
	s.initServiceProvider()
	defer s.ServiceProvider.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := s.ServiceProvider.Logger()
	r := s.ServiceProvider.Router(ctx)

	runner, err := s.initCron(ctx)
	if err != nil {
		return err
	}
	runner.Start()
	defer runner.Stop()

	srv := &http.Server{
		Addr:    s.ServiceProvider.HTTPCfg().Address(),
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.ServiceProvider.HTTPCfg().ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// initCron регистрирует фоновые проходы по сессиям
func (s *App) initCron(ctx context.Context) (*cronrunner.Runner, error) {
	sp := s.ServiceProvider
	runner := cronrunner.New(sp.Logger().Named("cron"), ctx)
	flipServ := sp.FlipService(ctx)

	if _, err := runner.Add("auto_flip", sp.EngineCfg().AutoFlipSpec(), flipServ.AutoFlipIdle); err != nil {
		return nil, fmt.Errorf("register auto flip job: %w", err)
	}
	if _, err := runner.Add("expire", sp.EngineCfg().ExpirySpec(), flipServ.ExpireStale); err != nil {
		return nil, fmt.Errorf("register expiry job: %w", err)
	}
	return runner, nil
}
