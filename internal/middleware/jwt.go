package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront_back_end/internal/auth"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/store"
)

const sessionKey = "session"

// UserFinder résout l'email d'un jeton vers un utilisateur enregistré.
type UserFinder interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Authenticate protège un groupe de routes : cookie absent, jeton invalide
// ou expiré, ou email inconnu donnent 401 avant tout accès aux données.
func Authenticate(tokens *auth.Manager, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(auth.CookieName)
		if err != nil || tokenString == "" {
			log.Println("❌ Cookie de session absent")
			unauthorized(c)
			return
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			log.Printf("❌ Jeton de session invalide: %v", err)
			unauthorized(c)
			return
		}

		email, err := auth.EmailFrom(claims)
		if err != nil {
			log.Printf("❌ %v", err)
			unauthorized(c)
			return
		}

		user, err := users.FindUserByEmail(c.Request.Context(), email)
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("❌ Aucun utilisateur pour %s", email)
			unauthorized(c)
			return
		}
		if err != nil {
			log.Printf("❌ Erreur recherche utilisateur: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
			return
		}

		c.Set(sessionKey, &auth.Session{Email: email, Claims: claims, User: user})
		c.Next()
	}
}

// SessionFrom renvoie la session posée par Authenticate.
func SessionFrom(c *gin.Context) (*auth.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*auth.Session)
	return s, ok
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Accès non autorisé"})
}
