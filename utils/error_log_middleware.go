package utils

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorLogWriter struct {
	gin.ResponseWriter
	gc  *gin.Context
	log *zap.Logger
}

func (w errorLogWriter) Write(b []byte) (int, error) {
	status := w.gc.Writer.Status()
	if status >= 400 {
		w.log.Debug("error response",
			zap.Int("status", status),
			zap.String("path", w.gc.Request.URL.Path),
			zap.ByteString("body", b))
	}
	return w.ResponseWriter.Write(b)
}

// ErrorLogMiddleware logs error response bodies in debug mode. It doesn't work
// with GZIP, install it after the gzip middleware.
func ErrorLogMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer = &errorLogWriter{gc: c, ResponseWriter: c.Writer, log: log}
		c.Next()
	}
}
