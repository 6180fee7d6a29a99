package middleware

import (
	"log/slog"
	"time"

	"storefront/internal/logging"

	"github.com/labstack/echo/v4"
)

// リクエストごとのloggerをcontextに入れ、終わったら1行出す
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			l := base.With(
				"method", req.Method,
				"path", c.Path(),
				"uri", req.RequestURI,
				"remote_ip", c.RealIP(),
			)
			if rid := c.Response().Header().Get(echo.HeaderXRequestID); rid != "" {
				l = l.With("request_id", rid)
			} else if rid := req.Header.Get(echo.HeaderXRequestID); rid != "" {
				l = l.With("request_id", rid)
			}
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			attrs := []any{"status", status, "latency_ms", time.Since(start).Milliseconds()}
			switch {
			case status >= 500:
				l.Error("request", append(attrs, "err", err)...)
			case status >= 400:
				l.Warn("request", attrs...)
			default:
				l.Info("request", attrs...)
			}
			return nil
		}
	}
}
