package handler

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"netfusion-go/internal/auth"
	"netfusion-go/pkg/api"
)

const stateTTL = 10 * time.Minute

// GoogleLogin redirects the browser to the Google consent page
func (ctl *Controller) GoogleLogin(c *fiber.Ctx) error {
	if ctl.oauth == nil || ctl.sessions == nil {
		return api.ErrNotConfigured
	}

	state := uuid.NewString()
	c.Cookie(&fiber.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		Expires:  ctl.now().Add(stateTTL),
		HTTPOnly: true,
		Secure:   ctl.cfg.SecureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(ctl.oauth.AuthCodeURL(state), http.StatusFound)
}

// GoogleCallback finishes the OAuth flow and hands the session token to the
// frontend as a query parameter
func (ctl *Controller) GoogleCallback(c *fiber.Ctx) error {
	if ctl.oauth == nil || ctl.sessions == nil {
		return api.ErrNotConfigured
	}

	if reason := c.Query("error"); reason != "" {
		ctl.secLog.SafeWarn("Google sign-in declined", map[string]interface{}{"reason": reason})
		return c.Redirect(ctl.frontendURL("/auth/callback", url.Values{"error": {reason}}), http.StatusFound)
	}

	state := c.Query("state")
	if state == "" || state != c.Cookies(stateCookie) {
		ctl.secLog.SafeWarn("OAuth state mismatch", map[string]interface{}{"ip": c.IP()})
		return fiber.NewError(http.StatusBadRequest, "Invalid OAuth state")
	}
	c.ClearCookie(stateCookie)

	code := c.Query("code")
	if code == "" {
		return fiber.NewError(http.StatusBadRequest, "Missing authorization code")
	}

	tok, err := ctl.oauth.Exchange(c.UserContext(), code)
	if err != nil {
		return upstream(err)
	}
	user, err := ctl.oauth.UserInfo(c.UserContext(), tok.AccessToken)
	if err != nil {
		return upstream(err)
	}

	signed, err := ctl.sessions.Issue(auth.Session{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Google: ctl.googleTokens(tok),
	})
	if err != nil {
		return err
	}

	ctl.secLog.SafeInfo("User signed in", map[string]interface{}{"user_id": user.ID})
	ctl.setSessionCookie(c, signed)
	return c.Redirect(ctl.frontendURL("/auth/callback", url.Values{"token": {signed}}), http.StatusFound)
}

func (ctl *Controller) Logout(c *fiber.Ctx) error {
	c.ClearCookie(sessionCookie)
	return c.JSON(fiber.Map{"success": true})
}

// Me returns the signed-in user without the Google credentials
func (ctl *Controller) Me(c *fiber.Ctx) error {
	sess, ok := c.Locals(sessionKey).(*auth.Session)
	if !ok || sess == nil {
		return api.ErrMissingToken
	}
	return c.JSON(fiber.Map{
		"id":    sess.UserID,
		"email": sess.Email,
		"name":  sess.Name,
	})
}

func (ctl *Controller) frontendURL(path string, q url.Values) string {
	base := strings.TrimRight(ctl.cfg.FrontendURL, "/")
	return base + path + "?" + q.Encode()
}
