package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"companion-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const actorContextKey = "actor"

// GinZapLogger returns a gin middleware that logs requests using zap.
// Health and metrics probes are skipped to keep the log readable.
func GinZapLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		if path == "/health" || path == "/metrics" {
			return
		}

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		fields := []zapcore.Field{
			zap.Int("status", statusCode),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", latency),
			zap.String("user-agent", c.Request.UserAgent()),
		}
		if errorMessage != "" {
			fields = append(fields, zap.String("error", errorMessage))
		}

		if statusCode >= http.StatusInternalServerError {
			logger.Error("Request handled", fields...)
		} else if statusCode >= http.StatusBadRequest {
			logger.Warn("Request handled", fields...)
		} else {
			logger.Info("Request handled", fields...)
		}
	}
}

// AuthMiddleware verifies the bearer token and stores the resulting Actor in
// the request context. Tokens are issued by the external identity provider;
// this service only verifies them. Websocket clients may pass the token as a
// 'token' query parameter since browsers cannot set headers on upgrades.
func AuthMiddleware(jwtSecret string, logger *zap.Logger) gin.HandlerFunc {
	secret := []byte(jwtSecret)
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			respondError(c, models.ErrUnauthorized)
			c.Abort()
			return
		}

		claims := &models.UserClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			logger.Debug("Token verification failed", zap.Error(err))
			respondError(c, models.ErrUnauthorized)
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			logger.Warn("Token carries a malformed user id", zap.String("uid", claims.UserID))
			respondError(c, models.ErrUnauthorized)
			c.Abort()
			return
		}

		role := models.RoleUser
		if claims.Role == string(models.RoleAdmin) {
			role = models.RoleAdmin
		}

		c.Set(actorContextKey, models.Actor{
			UserID:      userID,
			DisplayName: claims.DisplayName,
			Role:        role,
		})
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return c.Query("token")
}

// actorFromContext returns the Actor stored by AuthMiddleware.
func actorFromContext(c *gin.Context) (models.Actor, bool) {
	v, ok := c.Get(actorContextKey)
	if !ok {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}

// AdminOnly rejects non-admin actors before the handler runs. Services check
// the actor again themselves; this just fails fast.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFromContext(c)
		if !ok {
			respondError(c, models.ErrUnauthorized)
			c.Abort()
			return
		}
		if !actor.IsAdmin() {
			respondError(c, models.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
