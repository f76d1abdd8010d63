// Пакет shopplan - HTTP API планировщика спринтов цеха.
//
// Основные возможности:
//   - REST API бэклога, мощности, календаря, сводки и мутаций спринта.
//   - Плановое автоназначение задач по расписанию cron.
//   - Метрики prometheus на отдельном порту.
//   - Выгрузка плана спринта в PDF.
package shopplan

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aisa-it/shopplan/internal/shopplan/config"
	"github.com/aisa-it/shopplan/internal/shopplan/cronmanager"
	"github.com/aisa-it/shopplan/internal/shopplan/dao"
	"github.com/aisa-it/shopplan/internal/shopplan/planner"
	"github.com/gofrs/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

type Services struct {
	db      *gorm.DB
	store   *dao.Store
	planner *planner.SprintPlanner
	metrics *sprintMetrics
	cfg     *config.Config
	version string
}

// NewServices собирает сервисы API. Метрики регистрируются в reg.
func NewServices(db *gorm.DB, cfg *config.Config, settings planner.Settings, reg prometheus.Registerer, version string) *Services {
	store := dao.NewStore(db)
	return &Services{
		db:      db,
		store:   store,
		planner: planner.NewSprintPlanner(store, settings),
		metrics: newSprintMetrics(reg),
		cfg:     cfg,
		version: version,
	}
}

// ServerHeader middleware adds a `Server` header to the response.
func ServerHeader(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderServer, "ShopPlan")
		return next(c)
	}
}

// NewEcho создаёт echo со всеми маршрутами API без метрик запросов.
func (s *Services) NewEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}

		// Ignore 404
		if code == http.StatusNotFound {
			c.NoContent(http.StatusNotFound)
			return
		}
		slog.Error("Unhandled error in endpoint", "url", c.Request().URL, "err", err)
		EErrorMsgStatus(c, nil, code)
	}

	e.Use(ServerHeader)
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return uuid.Must(uuid.NewV4()).String()
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		MinLength: 2048,
	}))
	e.Pre(middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/metrics")
		},
	}))

	e.Validator = NewRequestValidator()

	apiGroup := e.Group("/api/")
	s.AddSprintServices(apiGroup)

	// Version endpoint
	apiGroup.GET("version/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"version":              s.version,
			"hours_per_day":        s.planner.Settings().HoursPerDay,
			"operator_week_hours":  s.planner.Settings().OperatorWeeklyHours,
			"auto_assign_schedule": s.cfg.AutoAssignSchedule,
		})
	})

	// Health endpoint
	apiGroup.GET("_health/", func(c echo.Context) error {
		sqlDB, err := s.db.DB()
		if err != nil {
			return EError(c, err)
		}
		if err := sqlDB.PingContext(c.Request().Context()); err != nil {
			return EErrorMsgStatus(c, err, http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	return e
}

// runAutoAssign общий вход автоназначения для API и расписания.
func (s *Services) runAutoAssign(ctx context.Context, maxTasks int) (int, error) {
	assigned, err := s.planner.AutoAssign(ctx, maxTasks)
	s.metrics.autoAssigned.Add(float64(assigned))
	return assigned, err
}

func (s *Services) cronJobs() cronmanager.JobRegistry {
	jobs := cronmanager.JobRegistry{}
	if s.cfg.AutoAssignSchedule != "" {
		maxTasks := s.cfg.AutoAssignMaxTasks
		if maxTasks <= 0 {
			maxTasks = s.planner.Settings().AutoAssignMaxTasks
		}
		jobs["sprint_auto_assign"] = cronmanager.Job{
			Func: func(ctx context.Context) error {
				assigned, err := s.runAutoAssign(ctx, maxTasks)
				if err != nil {
					return err
				}
				slog.Info("Scheduled auto-assign", "assigned", assigned)
				return nil
			},
			Schedule: s.cfg.AutoAssignSchedule,
		}
	}
	return jobs
}

// Server запускает API, сервер метрик и расписание до получения SIGINT/SIGTERM.
func Server(db *gorm.DB, cfg *config.Config, version string) error {
	s := NewServices(db, cfg, planner.SettingsFromConfig(cfg), prometheus.DefaultRegisterer, version)

	e := s.NewEcho()
	e.Use(echoprometheus.NewMiddleware(metricsNamespace))

	cronManager := cronmanager.NewCronManager(s.cronJobs())
	if err := cronManager.LoadJobs(); err != nil {
		return err
	}
	cronManager.Start()
	defer cronManager.Stop()

	bootTimeGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "boot_time",
		Help:      "Server startup time",
	})
	bootTimeGauge.Set(float64(time.Now().UnixMilli()))
	if err := prometheus.Register(bootTimeGauge); err != nil {
		return err
	}

	metrics := echo.New()
	metrics.HideBanner = true
	metrics.HidePort = true
	metrics.GET("/metrics", echoprometheus.NewHandler()) // adds route to serve gathered metrics

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Metrics server started", "addr", cfg.MetricsAddr)
		if err := metrics.Start(cfg.MetricsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		slog.Info("API server started", "addr", cfg.HTTPAddr, "version", version)
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("Shutting down gracefully, press Ctrl+C again to force")
		stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(e.Shutdown(shutdownCtx), metrics.Shutdown(shutdownCtx))
	})

	return g.Wait()
}
