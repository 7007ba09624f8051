package handlers

import (
	"net/http"
	"strconv"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/ytakahashi/todo-rpc/internal/metrics"
)

// NewRouter wires the todo API, the optional LINE webhook and /metrics.
func NewRouter(todo *TodoHandler, webhook *WebhookHandler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	todo.Register(e)
	if webhook != nil {
		e.POST("/webhook", webhook.HandleWebhook)
	}
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	return e
}

// Instrument logs every request and records it in the HTTP metrics.
func Instrument(next http.Handler, log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)

		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(m.Code)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method).Observe(m.Duration.Seconds())

		log.Info("handled",
			zap.String("method", r.Method),
			zap.String("url", r.URL.String()),
			zap.Int("status", m.Code),
			zap.Duration("duration", m.Duration),
			zap.String("request_id", w.Header().Get(echo.HeaderXRequestID)),
		)
	})
}
