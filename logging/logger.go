package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const RequestIDKey = "requestId"

func New(level, format string, out io.Writer) *log.Logger {
	if out == nil {
		out = os.Stdout
	}
	l := log.New()
	l.SetOutput(out)

	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = log.InfoLevel
	}
	l.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		l.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		l.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return l
}

// Discard is handy in tests.
func Discard() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

func Component(l *log.Logger, name string) *log.Entry {
	return l.WithField("component", name)
}

// Middleware logs one line per request once the handler chain has finished.
func Middleware(l *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := log.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
			"remoteAddr": c.ClientIP(),
		}
		if id, ok := c.Get(RequestIDKey); ok {
			fields["requestId"] = id
		}
		entry := l.WithFields(fields)

		switch {
		case len(c.Errors) > 0:
			entry.WithField("err", c.Errors.String()).Error("request failed")
		case c.Writer.Status() >= 500:
			entry.Error("request handled")
		default:
			entry.Info("request handled")
		}
	}
}
