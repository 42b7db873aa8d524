package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	echoSwagger "github.com/swaggo/echo-swagger"
)

const locationRateWindow = time.Minute

// RateLimiter counts hits per key inside a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

type RouterConfig struct {
	LogLevel slog.Level

	// LocationLimiter and LocationLimitPerMinute throttle location pings per
	// order. A nil limiter or a non-positive limit disables throttling.
	LocationLimiter        RateLimiter
	LocationLimitPerMinute int64
}

// NewRouter builds the echo instance with every route of the API.
func NewRouter(s *Server, cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(gommonLevel(cfg.LogLevel))
	e.Validator = NewRequestValidator()
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(requestLogger(s.logger))

	e.GET("/health", s.Health)
	e.GET("/openapi.yaml", func(ctx echo.Context) error {
		return ctx.Blob(http.StatusOK, "application/yaml", openAPIDocument)
	})
	e.GET("/docs/*", echoSwagger.EchoWrapHandler(echoSwagger.URL("/openapi.yaml")))

	api := e.Group("/api/v1")
	api.POST("/orders", s.CreateOrder)
	api.GET("/orders", s.ListOrders)
	api.GET("/orders/:orderId", s.GetOrder)
	api.POST("/orders/:orderId/claim", s.ClaimOrder)
	api.POST("/orders/:orderId/in-transit", s.MarkInTransit)
	api.POST("/orders/:orderId/deliver", s.MarkDelivered)

	var pingMiddleware []echo.MiddlewareFunc
	if cfg.LocationLimiter != nil && cfg.LocationLimitPerMinute > 0 {
		pingMiddleware = append(pingMiddleware,
			rateLimit(cfg.LocationLimiter, cfg.LocationLimitPerMinute, s.logger))
	}
	api.POST("/orders/:orderId/location", s.ReportLocation, pingMiddleware...)

	return e
}

// rateLimit rejects pings over the limit with 429. A limiter failure lets the
// request through.
func rateLimit(limiter RateLimiter, perMinute int64, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			reqCtx := ctx.Request().Context()
			key := "ratelimit:location:" + ctx.Param("orderId")

			allowed, count, err := limiter.Allow(reqCtx, key, perMinute, locationRateWindow)
			if err != nil {
				logger.WarnContext(reqCtx, "Rate limiter unavailable", "key", key, "error", err)
				return next(ctx)
			}
			if !allowed {
				logger.DebugContext(reqCtx, "Location ping throttled", "key", key, "count", count)
				return ctx.JSON(http.StatusTooManyRequests, Error{
					Code:    http.StatusTooManyRequests,
					Message: "Too many location reports",
				})
			}

			return next(ctx)
		}
	}
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(ctx echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			logger.InfoContext(ctx.Request().Context(), "Request handled", attrs...)
			return nil
		},
	})
}

func gommonLevel(level slog.Level) log.Lvl {
	switch {
	case level <= slog.LevelDebug:
		return log.DEBUG
	case level <= slog.LevelInfo:
		return log.INFO
	case level <= slog.LevelWarn:
		return log.WARN
	default:
		return log.ERROR
	}
}
