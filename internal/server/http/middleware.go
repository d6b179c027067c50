package httpserver

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/vls-lab/ctf-server/internal/model"
	"github.com/vls-lab/ctf-server/internal/service"
)

const (
	ctxUserID = "vls.userID"
	ctxRole   = "vls.role"
)

// AccessLog logs one structured line per request: method, path, status,
// duration, client. Never payloads.
func AccessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("client", c.ClientIP()),
		)
	}
}

// Recover converts panics into 500s and logs the stack.
func Recover(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("path", c.Request.URL.Path),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, Response{
					Code: http.StatusInternalServerError, Msg: "internal",
				})
			}
		}()
		c.Next()
	}
}

// RequireAuth validates the Bearer token and stores the caller's identity
// in the request context.
func RequireAuth(signKey []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Code: http.StatusUnauthorized, Msg: "missing bearer token",
			})
			return
		}

		var claims service.AccessClaims
		tok, err := jwt.ParseWithClaims(parts[1], &claims, func(t *jwt.Token) (any, error) {
			return signKey, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !tok.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Code: http.StatusUnauthorized, Msg: "invalid token",
			})
			return
		}
		uid, err := uuid.FromString(claims.Subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Code: http.StatusUnauthorized, Msg: "invalid token subject",
			})
			return
		}

		c.Set(ctxUserID, uid)
		c.Set(ctxRole, model.Role(claims.Role))
		c.Next()
	}
}

// RequireRole aborts with 403 unless the authenticated caller has the role.
func RequireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		got, ok := c.Get(ctxRole)
		if !ok || got.(model.Role) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, Response{
				Code: http.StatusForbidden, Msg: "forbidden",
			})
			return
		}
		c.Next()
	}
}

// userIDFrom fetches the authenticated user ID set by RequireAuth.
func userIDFrom(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
