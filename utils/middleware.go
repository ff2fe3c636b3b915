package utils

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RequestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
	// longer ids from outside are replaced to keep them out of the logs
	requestIDMaxLen = 64
)

// RequestID reuses X-Request-ID from the client or generates a UUID
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" || len(rid) > requestIDMaxLen {
			rid = uuid.NewString()
		}
		c.Set(RequestIDKey, rid)
		c.Header(requestIDHeader, rid)
		c.Next()
	}
}

// Logger writes one structured line per request, level chosen by status
func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(RequestIDKey)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.ByType(gin.ErrorTypePrivate).String()))
		}

		switch {
		case status >= 500:
			log.Error("request failed", fields...)
		case status >= 400:
			log.Warn("client error", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

// SecurityHeaders sets the usual hardening headers. The meeting page embeds
// the conferencing service, so that origin may be framed and may use the
// camera and microphone.
func SecurityHeaders(meetingDomain string) gin.HandlerFunc {
	origin := "https://" + meetingDomain
	csp := "default-src 'self'; script-src 'self' 'unsafe-inline' " + origin +
		"; style-src 'self' 'unsafe-inline'; img-src 'self' data:; frame-src " + origin +
		"; connect-src 'self'; frame-ancestors 'none'"
	permissions := "camera=(self \"" + origin + "\"), microphone=(self \"" + origin + "\"), " +
		"display-capture=(self \"" + origin + "\"), fullscreen=(self \"" + origin + "\"), geolocation=()"
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", csp)
		c.Header("Permissions-Policy", permissions)
		c.Next()
	}
}
