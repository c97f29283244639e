package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/valyala/fasthttp"
)

const (
	DefaultAuthEndpoint     = "https://accounts.google.com/o/oauth2/v2/auth"
	DefaultTokenEndpoint    = "https://oauth2.googleapis.com/token"
	DefaultUserInfoEndpoint = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// Scopes requested at consent time
var Scopes = []string{
	"https://www.googleapis.com/auth/webmasters.readonly",
	"https://www.googleapis.com/auth/analytics.readonly",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

type OAuthConfig struct {
	ClientID         string
	ClientSecret     string
	RedirectURL      string
	AuthEndpoint     string
	TokenEndpoint    string
	UserInfoEndpoint string
}

type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
}

type UserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// OAuthClient runs the Google authorization-code flow
type OAuthClient struct {
	cfg       OAuthConfig
	transport *Transport
}

func NewOAuthClient(cfg OAuthConfig, transport *Transport) *OAuthClient {
	if cfg.AuthEndpoint == "" {
		cfg.AuthEndpoint = DefaultAuthEndpoint
	}
	if cfg.TokenEndpoint == "" {
		cfg.TokenEndpoint = DefaultTokenEndpoint
	}
	if cfg.UserInfoEndpoint == "" {
		cfg.UserInfoEndpoint = DefaultUserInfoEndpoint
	}
	return &OAuthClient{cfg: cfg, transport: transport}
}

func (c *OAuthClient) Configured() bool {
	return c.cfg.ClientID != "" && c.cfg.ClientSecret != ""
}

// AuthCodeURL returns the consent page URL. Offline access and a forced
// consent prompt make Google return a refresh token every time.
func (c *OAuthClient) AuthCodeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", c.cfg.ClientID)
	q.Set("redirect_uri", c.cfg.RedirectURL)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(Scopes, " "))
	q.Set("access_type", "offline")
	q.Set("prompt", "consent")
	if state != "" {
		q.Set("state", state)
	}
	return c.cfg.AuthEndpoint + "?" + q.Encode()
}

// Exchange trades an authorization code for tokens
func (c *OAuthClient) Exchange(ctx context.Context, code string) (*Token, error) {
	if code == "" {
		return nil, fmt.Errorf("authorization code is required")
	}
	form := url.Values{}
	form.Set("code", code)
	form.Set("redirect_uri", c.cfg.RedirectURL)
	form.Set("grant_type", "authorization_code")
	return c.token(ctx, form)
}

// Refresh obtains a new access token. Google omits the refresh token from
// the answer, so the given one is carried over.
func (c *OAuthClient) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	if refreshToken == "" {
		return nil, ErrMissingToken
	}
	form := url.Values{}
	form.Set("refresh_token", refreshToken)
	form.Set("grant_type", "refresh_token")

	tok, err := c.token(ctx, form)
	if err != nil {
		return nil, err
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = refreshToken
	}
	return tok, nil
}

func (c *OAuthClient) token(ctx context.Context, form url.Values) (*Token, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)

	var tok Token
	err := c.transport.DoJSON(ctx, Request{
		Method: fasthttp.MethodPost,
		URL:    c.cfg.TokenEndpoint,
		Header: map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
		Body:   []byte(form.Encode()),
	}, nil, &tok)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("token exchange: %w", ErrMissingToken)
	}
	return &tok, nil
}

func (c *OAuthClient) UserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	if accessToken == "" {
		return nil, ErrMissingToken
	}
	var info UserInfo
	err := c.transport.DoJSON(ctx, Request{
		Method: fasthttp.MethodGet,
		URL:    c.cfg.UserInfoEndpoint,
		Header: BearerHeader(accessToken),
	}, nil, &info)
	if err != nil {
		return nil, fmt.Errorf("user info: %w", err)
	}
	return &info, nil
}
