package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marcus/tdash/internal/auth"
)

// UserIDKey is the gin context key holding the authenticated user id.
const UserIDKey = "user_id"

type contextKey int

const (
	ctxKeyRequestID contextKey = iota
	ctxKeyLogger
)

// getRequestID returns the request ID from the context.
func getRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// logFor returns the context-scoped logger, falling back to the default logger.
func logFor(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKeyLogger).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

func withContext(c *gin.Context, ctx context.Context) {
	c.Request = c.Request.WithContext(ctx)
}

// generateRequestID creates a random hex string for request tracing.
func generateRequestID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b)
}

// requestIDMiddleware generates a unique request ID and adds it to the context and response headers.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := generateRequestID()
		c.Header("X-Request-ID", id)
		withContext(c, context.WithValue(c.Request.Context(), ctxKeyRequestID, id))
		c.Next()
	}
}

// loggerMiddleware creates a per-request logger with the request ID and stores it in the context.
func loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		l := slog.Default().With("rid", getRequestID(ctx))
		withContext(c, context.WithValue(ctx, ctxKeyLogger, l))
		c.Next()
	}
}

// recoveryMiddleware catches panics and returns a 500 response.
func recoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logFor(c.Request.Context()).Error("panic recovered", "panic", rec, "path", c.Request.URL.Path)
				writeError(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
			}
		}()
		c.Next()
	}
}

// metricsMiddleware records request counts and categorizes response status codes.
func metricsMiddleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		m.RecordRequest()
		c.Next()
		switch code := c.Writer.Status(); {
		case code >= 500:
			m.RecordError()
		case code >= 400:
			m.RecordClientError()
		}
	}
}

// loggingMiddleware logs each request with method, path, status, and duration.
func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logFor(c.Request.Context()).Info("req",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"dur", time.Since(start).String(),
		)
	}
}

// jwtAuthMiddleware verifies the Bearer token, stores the user id under
// UserIDKey and enriches the request logger with it.
func jwtAuthMiddleware(issuer *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			writeError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing authorization header")
			return
		}
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid authorization format")
			return
		}

		userID, err := issuer.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid or expired token")
			return
		}

		c.Set(UserIDKey, userID)
		ctx := c.Request.Context()
		withContext(c, context.WithValue(ctx, ctxKeyLogger, logFor(ctx).With("uid", userID)))
		c.Next()
	}
}
