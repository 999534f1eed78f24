package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"open-factcheck/internal/apperr"
	"open-factcheck/internal/auth"
	"open-factcheck/internal/logger"
	"open-factcheck/internal/metrics"
	"open-factcheck/internal/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const userKey = "user"

// UserLoader resolves an authenticated user id to its record
type UserLoader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// AuthMiddleware authenticates bearer tokens. The role always comes from the
// stored user record.
type AuthMiddleware struct {
	verifier *auth.JWTVerifier
	users    UserLoader
	log      *logger.Logger
}

func NewAuthMiddleware(verifier *auth.JWTVerifier, users UserLoader, log *logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, users: users, log: log.With("middleware", "AuthMiddleware")}
}

// RequireAuth rejects requests without a valid token for an active user
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
			respondUnauthorized(c, "missing or invalid token")
			return
		}
		userID, err := am.verifier.UserIDFromToken(header[7:])
		if err != nil {
			am.log.Debug("Rejected token", "error", err)
			respondUnauthorized(c, "missing or invalid token")
			return
		}
		user, err := am.users.Get(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				respondUnauthorized(c, "unknown or inactive user")
				return
			}
			respondError(c, am.log, err)
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// currentUser returns the user set by RequireAuth
func currentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// RequestLogger logs one line per request, at a level chosen by status
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if u := currentUser(c); u != nil {
			fields = append(fields, "user_id", u.ID.String())
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

// Metrics records request latency by route
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		metrics.ObserveRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), start)
	}
}

// CORS builds the cors middleware from a comma-separated origin list
func CORS(origins string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	var list []string
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			list = append(list, o)
		}
	}
	if len(list) == 0 || (len(list) == 1 && list[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = list
	}
	return cors.New(cfg)
}
