package server

import (
	"crypto/subtle"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	authdomain "github.com/indigobills/indigobills/internal/auth/domain"
	"github.com/indigobills/indigobills/internal/usercontext"
	"go.uber.org/zap"
)

// TokenRequired authenticates requests with a bearer API token. The raw
// token is hashed and matched against api_tokens; the handler chain then
// sees the owning user through the request context.
func (s *Server) TokenRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		hash := authdomain.HashToken(raw)

		var token authdomain.APIToken
		err := s.db.WithContext(c.Request.Context()).
			Where("key_hash = ? AND is_active = ?", hash, true).
			First(&token).Error
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		// Constant-time recheck of the stored hash. The indexed lookup
		// already matched, this guards against a lossy collation on the
		// key_hash column.
		if subtle.ConstantTimeCompare([]byte(token.KeyHash), []byte(hash)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		if token.ExpiresAt != nil && token.ExpiresAt.Before(time.Now()) {
			s.log.Warn("expired api token used", zap.Int64("token_id", int64(token.ID)))
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := usercontext.WithUserID(c.Request.Context(), token.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
