package http

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/jacobmr/teslatracker/core"
	"github.com/jacobmr/teslatracker/service"
)

// FrontendConfig holds the landing URLs users are redirected to after the
// OAuth flow finishes.
type FrontendConfig struct {
	SuccessURL string // receives ?token=<session token>
	ErrorURL   string // receives ?error=<user-facing message>
}

// AuthHandlers contains HTTP handlers for the auth endpoints
type AuthHandlers struct {
	authService    *service.AuthService
	vehicleService *service.VehicleService
	frontend       FrontendConfig
	metrics        *Metrics
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService, vehicleService *service.VehicleService, frontend FrontendConfig, metrics *Metrics) *AuthHandlers {
	return &AuthHandlers{
		authService:    authService,
		vehicleService: vehicleService,
		frontend:       frontend,
		metrics:        metrics,
	}
}

// Begin redirects the user to the provider authorization page
func (h *AuthHandlers) Begin(c *gin.Context) {
	redirectURL, err := h.authService.Begin(c.Request.Context())
	if err != nil {
		h.metrics.RecordLogin("begin_failed")
		h.redirectError(c, "Authentication failed. Please try again.")
		return
	}

	h.metrics.RecordLogin("started")
	c.Redirect(http.StatusFound, redirectURL)
}

// Callback handles the provider redirect back to us. Success redirects to
// the frontend with the session token, every failure redirects to the error
// landing page with a short, non-technical message.
func (h *AuthHandlers) Callback(c *gin.Context) {
	token, err := h.authService.Complete(
		c.Request.Context(),
		c.Query("code"),
		c.Query("state"),
		c.Query("error"),
	)
	if err != nil {
		h.metrics.RecordLogin(loginOutcome(err))
		h.redirectError(c, callbackErrorMessage(err))
		return
	}

	h.metrics.RecordLogin("success")
	c.Redirect(http.StatusFound, h.frontend.SuccessURL+"?token="+url.QueryEscape(token))
}

// callbackErrorMessage maps a callback failure to its user-facing message.
// Diagnostic detail never leaves the server log.
func callbackErrorMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrMissingParams):
		return "Missing required parameters"
	case errors.Is(err, core.ErrInvalidState):
		return "Invalid state parameter"
	case errors.Is(err, core.ErrExchangeFailed):
		return "Failed to authenticate with Tesla"
	default:
		return "Authentication failed. Please try again."
	}
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, core.ErrProviderDenied):
		return "provider_denied"
	case errors.Is(err, core.ErrMissingParams):
		return "missing_params"
	case errors.Is(err, core.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, core.ErrExchangeFailed):
		return "exchange_failed"
	default:
		return "error"
	}
}

func (h *AuthHandlers) redirectError(c *gin.Context, message string) {
	c.Redirect(http.StatusFound, h.frontend.ErrorURL+"?error="+url.QueryEscape(message))
}

// Refresh revalidates the caller's session and refreshes the stored Tesla
// credential when needed
func (h *AuthHandlers) Refresh(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		h.metrics.RecordRefresh("unauthorized")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), token)
	if err != nil {
		// A failed verification answers exactly like a missing header so
		// the response leaks nothing about which check failed.
		switch {
		case errors.Is(err, core.ErrInvalidToken):
			h.metrics.RecordRefresh("unauthorized")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication failed"})
		case errors.Is(err, core.ErrAccountNotFound):
			h.metrics.RecordRefresh("not_found")
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		default:
			h.metrics.RecordRefresh("error")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh token"})
		}
		return
	}

	if !result.Refreshed {
		h.metrics.RecordRefresh("still_valid")
		c.JSON(http.StatusOK, gin.H{"message": "Token still valid"})
		return
	}

	h.metrics.RecordRefresh("refreshed")
	c.JSON(http.StatusOK, gin.H{
		"message":    "Token refreshed successfully",
		"expires_at": result.ExpiresAt,
	})
}

// Me returns the linked account of the authenticated user
func (h *AuthHandlers) Me(c *gin.Context) {
	identity, exists := c.Get("identity")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User not found in context"})
		return
	}

	acct, err := h.authService.Account(c.Request.Context(), identity.(string))
	if err != nil {
		if errors.Is(err, core.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"email":            acct.Email,
		"full_name":        acct.FullName,
		"linked_at":        acct.CreatedAt,
		"token_expires_at": acct.TokenExpiresAt,
	})
}

// Vehicles lists the vehicles of the authenticated user
func (h *AuthHandlers) Vehicles(c *gin.Context) {
	identity, exists := c.Get("identity")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User not found in context"})
		return
	}

	vehicles, err := h.vehicleService.Vehicles(c.Request.Context(), identity.(string))
	if err != nil {
		if errors.Is(err, core.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list vehicles"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"vehicles": vehicles})
}

// bearerToken extracts the token of a "Bearer <token>" Authorization header
func bearerToken(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	if len(auth) < 8 || auth[:7] != "Bearer " {
		return "", false
	}
	return auth[7:], true
}
