package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/recipehub/recipe-api/internal/core/ports"
)

// OAuthHandler drives the Google sign-in redirect flow and hands the session
// token to the frontend.
type OAuthHandler struct {
	provider    ports.IdentityProvider
	states      ports.StateStore
	authService ports.AuthService
	frontendURL string
	log         zerolog.Logger
}

func NewOAuthHandler(provider ports.IdentityProvider, states ports.StateStore, authService ports.AuthService, frontendURL string, log zerolog.Logger) *OAuthHandler {
	return &OAuthHandler{
		provider:    provider,
		states:      states,
		authService: authService,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		log:         log,
	}
}

// GoogleLogin redirects to the Google consent screen.
//
// @Summary      Start Google sign-in
// @Tags         auth
// @Success      302
// @Failure      500  {object}  map[string]string
// @Router       /auth/google [get]
func (h *OAuthHandler) GoogleLogin(c echo.Context) error {
	state, err := h.states.Issue(c.Request().Context())
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, h.provider.AuthCodeURL(state))
}

// GoogleCallback completes sign-in and redirects to the frontend with the
// session token, or to the frontend login page on any failure.
//
// @Summary      Google sign-in callback
// @Tags         auth
// @Param        state  query  string  true  "Anti-forgery state"
// @Param        code   query  string  true  "Authorization code"
// @Success      302
// @Router       /auth/google/callback [get]
func (h *OAuthHandler) GoogleCallback(c echo.Context) error {
	ctx := c.Request().Context()

	ok, err := h.states.Consume(ctx, c.QueryParam("state"))
	if err != nil || !ok {
		h.log.Warn().Err(err).Msg("google callback with unknown state")
		return h.failure(c)
	}

	code := c.QueryParam("code")
	if code == "" {
		return h.failure(c)
	}

	profile, err := h.provider.Exchange(ctx, code)
	if err != nil {
		h.log.Warn().Err(err).Msg("google code exchange failed")
		return h.failure(c)
	}

	res, err := h.authService.AuthenticateFederated(ctx, *profile)
	if err != nil {
		h.log.Error().Err(err).Msg("google sign-in failed")
		return h.failure(c)
	}

	q := url.Values{}
	q.Set("token", res.Token)
	q.Set("userId", res.User.ID)
	return c.Redirect(http.StatusFound, h.frontendURL+"/auth-callback?"+q.Encode())
}

func (h *OAuthHandler) failure(c echo.Context) error {
	return c.Redirect(http.StatusFound, h.frontendURL+"/login")
}
