package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RateCounter incrémente un compteur à fenêtre fixe et renvoie sa valeur.
type RateCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// APIRateLimit limite le nombre de requêtes par IP sur une fenêtre.
// Si le compteur est indisponible, la requête passe.
func APIRateLimit(counter RateCounter, max int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "api_requests:" + c.ClientIP()

		requests, err := counter.Hit(c.Request.Context(), key, window)
		if err != nil {
			log.Printf("⚠️ Rate limit indisponible: %v", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", max))
		if requests > int64(max) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Trop de requêtes. Réessayez plus tard",
				"retry_after": int(window.Seconds()),
			})
			return
		}

		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", int64(max)-requests))
		c.Next()
	}
}
