package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"github.com/gin-gonic/gin"

	"github.com/nurpe/mplads-works/internal/auth"
	"github.com/nurpe/mplads-works/internal/cache"
	"github.com/nurpe/mplads-works/internal/config"
	"github.com/nurpe/mplads-works/internal/csvreport"
	"github.com/nurpe/mplads-works/internal/db"
	"github.com/nurpe/mplads-works/internal/excel"
	httphandler "github.com/nurpe/mplads-works/internal/http"
	"github.com/nurpe/mplads-works/internal/http/middleware"
	"github.com/nurpe/mplads-works/internal/logger"
	"github.com/nurpe/mplads-works/internal/model"
	"github.com/nurpe/mplads-works/internal/pdf"
	"github.com/nurpe/mplads-works/internal/query"
	"github.com/nurpe/mplads-works/internal/repository"
	"github.com/nurpe/mplads-works/internal/service"
)

func init() {
	_, err := memlimit.SetGoMemLimitWithOpts(
		memlimit.WithRatio(0.8),
		memlimit.WithProvider(
			memlimit.ApplyFallback(
				memlimit.FromCgroup,
				memlimit.FromSystem,
			),
		),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set memory limit: %v\n", err)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	responses, err := cache.New(cfg.Cache)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init response cache")
	}
	defer responses.Close()

	if cfg.Cache.Backend == config.CacheBackendMemory {
		monitor := cache.NewMonitor(responses, log, cfg.Memory.CheckInterval, cfg.Memory.FlushRatio)
		go monitor.Run(ctx)
	}

	worksRepo := repository.NewWorksRepository(database, cfg.DB.QueryTimeout)
	mpRepo := repository.NewMPRepository(database, cfg.DB.QueryTimeout)
	builder := query.NewBuilder(query.Limits{DefaultLimit: cfg.Works.DefaultLimit, MaxLimit: cfg.Works.MaxLimit})

	worksService := service.NewWorksService(worksRepo, mpRepo, builder, responses, log, cfg.Works)

	pdfGenerator := pdf.NewGenerator()
	excelGenerator := excel.NewGenerator()
	reportService := service.NewReportService(
		worksService,
		map[model.ReportFormat]service.WorksGenerator{
			model.ReportFormatCSV:  csvreport.NewGenerator(),
			model.ReportFormatXLSX: excelGenerator,
			model.ReportFormatPDF:  pdfGenerator,
		},
		map[model.ReportFormat]service.MPReportGenerator{
			model.ReportFormatXLSX: excelGenerator,
			model.ReportFormatPDF:  pdfGenerator,
		},
		map[model.ReportFormat]service.StatesReportGenerator{
			model.ReportFormatXLSX: excelGenerator,
			model.ReportFormatPDF:  pdfGenerator,
		},
	)

	var authMiddleware gin.HandlerFunc
	if cfg.Auth.AccessSecret != "" {
		authMiddleware = middleware.Auth(auth.NewParser(cfg.Auth.AccessSecret))
	} else {
		log.Warn().Msg("JWT_ACCESS_SECRET is empty, admin routes are disabled")
	}

	handler := httphandler.NewHandler(worksService, reportService, mpRepo, log)
	router, err := httphandler.NewRouter(handler, authMiddleware, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	srv := &http.Server{Addr: addr, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("cache", cfg.Cache.Backend).Msg("starting works service")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server stopped")
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if sqlDB, err := database.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("works service stopped")
}
