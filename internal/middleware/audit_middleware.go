package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront_back_end/internal/models"
	"storefront_back_end/internal/store"
)

// MaxAuditedBody borne le corps lu avant le handler de mise à jour.
const MaxAuditedBody = int64(1 << 20)

type ProductFinder interface {
	ProductsByID(ctx context.Context, id primitive.ObjectID) ([]models.Product, error)
}

// AuditPriceChanges journalise les changements de prix faits via la route
// de mise à jour produit, une fois la requête réussie.
func AuditPriceChanges(products ProductFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxAuditedBody)
		bodyBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			log.Printf("❌ Corps de mise à jour illisible: %v", err)
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Corps de requête trop volumineux"})
			return
		}
		// Restaurer le body pour le handler
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		var input struct {
			Price *float64 `json:"price"`
		}
		if err := json.Unmarshal(bodyBytes, &input); err != nil || input.Price == nil {
			c.Next()
			return
		}

		productID := c.Param("productId")
		oldPrice, known := currentPrice(c.Request.Context(), products, productID)

		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		switch {
		case !known:
			log.Printf("💰 Prix initial audité: produit %s (%.2f)", productID, *input.Price)
		case oldPrice != *input.Price:
			log.Printf("💰 Changement de prix audité: produit %s (%.2f → %.2f)", productID, oldPrice, *input.Price)
		}
	}
}

func currentPrice(ctx context.Context, products ProductFinder, productID string) (float64, bool) {
	id, err := store.ParseID(productID)
	if err != nil {
		return 0, false
	}
	found, err := products.ProductsByID(ctx, id)
	if err != nil {
		log.Printf("⚠️ Erreur récupération ancien prix: %v", err)
		return 0, false
	}
	if len(found) == 0 {
		return 0, false
	}
	return found[0].Price, true
}
