package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"netfusion-go/internal/auth"
	"netfusion-go/pkg/api"
)

const (
	requestIDKey  = "requestid"
	sessionKey    = "session"
	sessionCookie = "netfusion_session"
	stateCookie   = "netfusion_oauth_state"

	// SessionHeader carries a reissued token after a Google refresh
	SessionHeader = "X-Session-Token"

	// refreshSkew renews Google tokens slightly before they lapse
	refreshSkew = time.Minute
)

// accessLog writes one structured line per request and records HTTP metrics.
// It renders chain errors itself so the logged status is the one sent.
func (ctl *Controller) accessLog() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if chainErr := c.Next(); chainErr != nil {
			if err := ctl.ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(http.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		route := c.Route().Path
		if ctl.metrics != nil {
			ctl.metrics.ObserveHTTP(c.Method(), route, strconv.Itoa(status))
		}

		fields := map[string]interface{}{
			"method":      c.Method(),
			"path":        c.Path(),
			"route":       route,
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  c.Locals(requestIDKey),
			"ip":          c.IP(),
		}
		switch {
		case status >= http.StatusInternalServerError:
			ctl.log.WithFields(fields).Error("HTTP request")
		case status >= http.StatusBadRequest:
			ctl.log.WithFields(fields).Warn("HTTP request")
		default:
			ctl.log.WithFields(fields).Debug("HTTP request")
		}
		return nil
	}
}

// rateLimit allows max requests per client IP in each window
func rateLimit(max int, window time.Duration, message string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(http.StatusTooManyRequests, message)
		},
	})
}

// bearerToken reads the session token from the Authorization header, falling
// back to the session cookie
func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return c.Cookies(sessionCookie)
}

// requireSession verifies the session token and renews the Google access
// token when it is about to expire
func (ctl *Controller) requireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ctl.sessions == nil {
			return api.ErrNotConfigured
		}

		token := bearerToken(c)
		if token == "" {
			return fiber.NewError(http.StatusUnauthorized, "Access token required")
		}

		sess, err := ctl.sessions.Verify(token)
		if err != nil {
			ctl.secLog.SafeWarn("Rejected session token", map[string]interface{}{
				"path":   c.Path(),
				"ip":     c.IP(),
				"reason": err.Error(),
			})
			return err
		}

		if err := ctl.refreshGoogle(c, sess); err != nil {
			return err
		}

		c.Locals(sessionKey, sess)
		return c.Next()
	}
}

func (ctl *Controller) refreshGoogle(c *fiber.Ctx, sess *auth.Session) error {
	g := sess.Google
	if ctl.oauth == nil || g.RefreshToken == "" || g.Expiry.IsZero() {
		return nil
	}
	if ctl.now().Add(refreshSkew).Before(g.Expiry) {
		return nil
	}

	tok, err := ctl.oauth.Refresh(c.UserContext(), g.RefreshToken)
	if err != nil {
		ctl.log.WithError(err).WithField("user_id", sess.UserID).Warn("Google token refresh failed")
		return fiber.NewError(http.StatusUnauthorized, "Google authorization expired")
	}
	sess.Google = ctl.googleTokens(tok)

	renewed, err := ctl.sessions.Issue(*sess)
	if err != nil {
		return err
	}
	c.Set(SessionHeader, renewed)
	ctl.setSessionCookie(c, renewed)
	return nil
}

func (ctl *Controller) googleTokens(tok *api.Token) auth.GoogleTokens {
	g := auth.GoogleTokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}
	if tok.ExpiresIn > 0 {
		g.Expiry = ctl.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	return g
}

func (ctl *Controller) setSessionCookie(c *fiber.Ctx, token string) {
	ttl := auth.DefaultSessionTTL
	if ctl.sessions != nil {
		ttl = ctl.sessions.TTL()
	}
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  ctl.now().Add(ttl),
		HTTPOnly: true,
		Secure:   ctl.cfg.SecureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// currentSession returns the session stored by requireSession
func currentSession(c *fiber.Ctx) (*auth.Session, error) {
	sess, ok := c.Locals(sessionKey).(*auth.Session)
	if !ok || sess == nil {
		return nil, api.ErrMissingToken
	}
	if sess.Google.AccessToken == "" {
		return nil, fmt.Errorf("%w: session has no Google access token", api.ErrMissingToken)
	}
	return sess, nil
}
