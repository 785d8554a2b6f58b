package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront_back_end/internal/auth"
)

// 🔐 POST /jwt-token
// Le corps est l'ensemble des claims ; seul "email" est obligatoire.
func (h *Handler) IssueToken(c *gin.Context) {
	var claims map[string]interface{}
	if err := c.ShouldBindJSON(&claims); err != nil {
		badRequest(c, "Claims invalides", err)
		return
	}

	token, _, err := h.Tokens.Issue(claims)
	if errors.Is(err, auth.ErrMissingEmail) {
		badRequest(c, "Email requis", nil)
		return
	}
	if err != nil {
		log.Printf("❌ Erreur génération token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Impossible de générer le token"})
		return
	}

	h.setSessionCookie(c, token, int(h.Tokens.TTL().Seconds()))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// 🚪 GET /remove-token
func (h *Handler) ClearToken(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SameSite=None exige Secure ; en HTTP local on retombe sur Lax.
func (h *Handler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	if h.CookieSecure {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(auth.CookieName, value, maxAge, "/", "", h.CookieSecure, true)
}
