package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SlogRequestLogger logs one line per API request. Server errors log at
// error level and client errors at warn. Zone lookups also carry the queried
// name and type so a lookup can be matched against the DNS query log.
func SlogRequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if logger == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("route", c.FullPath()),
			slog.Int("status", status),
			slog.Int("bytes", max(c.Writer.Size(), 0)),
			slog.Int64("latency_ms", time.Since(start).Milliseconds()),
			slog.String("client_ip", c.ClientIP()),
			slog.String("request_id", GetRequestID(c)),
		}
		if name := c.Query("name"); name != "" {
			attrs = append(attrs, slog.String("qname", name))
		}
		if qtype := c.Query("type"); qtype != "" {
			attrs = append(attrs, slog.String("qtype", qtype))
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny).String(); errs != "" {
			attrs = append(attrs, slog.String("errors", errs))
		}

		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}
		logger.LogAttrs(c.Request.Context(), level, "api request", attrs...)
	}
}
