package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Lwan2205/storefront/internal/config"
	"github.com/Lwan2205/storefront/internal/models"
	"github.com/Lwan2205/storefront/internal/utils"
)

const sessionKey = "session"

// SessionMiddleware attaches a models.Session to every request. Browsers
// without a valid session cookie get a fresh one; the backend auth cookie is
// read as-is and forwarded by the services.
type SessionMiddleware struct {
	secret  string
	cfg     config.SessionConfig
	backend string
	limiter *InvalidSessionRateLimiter
}

// NewSessionMiddleware creates a new SessionMiddleware.
func NewSessionMiddleware(cfg *config.Config, limiter *InvalidSessionRateLimiter) *SessionMiddleware {
	return &SessionMiddleware{
		secret:  cfg.SessionSecret,
		cfg:     cfg.Session,
		backend: cfg.Backend.SessionCookie,
		limiter: limiter,
	}
}

// Handle resolves or issues the session.
func (m *SessionMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := ""
		if raw, err := c.Cookie(m.cfg.CookieName); err == nil && raw != "" {
			claims, err := utils.ValidateSessionToken(m.secret, raw)
			switch {
			case err == nil:
				sessionID = claims.SessionID
			case errors.Is(err, utils.ErrInvalidSession):
				if !m.limiter.Allow(c.ClientIP()) {
					utils.Error(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many invalid session attempts")
					c.Abort()
					return
				}
				log.Warn().Str("ip", c.ClientIP()).Msg("Invalid session cookie, issuing a new session")
			}
		}

		if sessionID == "" {
			sessionID = uuid.NewString()
			token, err := utils.GenerateSessionToken(m.secret, sessionID, m.cfg.TTL)
			if err != nil {
				log.Error().Err(err).Msg("Failed to sign session token")
				utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to start session")
				c.Abort()
				return
			}
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(m.cfg.CookieName, token, int(m.cfg.TTL.Seconds()), "/", "", m.cfg.Secure, true)
		}

		backendToken, _ := c.Cookie(m.backend)
		c.Set(sessionKey, models.Session{ID: sessionID, BackendToken: backendToken})
		c.Next()
	}
}

// RequireBackendAuth rejects requests that carry no backend auth cookie. The
// backend still decides whether the caller is an admin.
func RequireBackendAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if SessionFrom(c).BackendToken == "" {
			utils.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Please login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// SessionFrom returns the request's session.
func SessionFrom(c *gin.Context) models.Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(models.Session); ok {
			return s
		}
	}
	return models.Session{}
}
