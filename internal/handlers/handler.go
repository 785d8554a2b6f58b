package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront_back_end/internal/auth"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/services"
	"storefront_back_end/internal/store"
)

// PaymentGateway est le prestataire de paiement (Stripe en production).
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amountCents int64, idempotencyKey string) (*services.Intent, error)
	ParseWebhook(payload []byte, signature string) (services.WebhookEvent, error)
}

type ProductCache interface {
	Products(ctx context.Context) ([]models.Product, bool)
	StoreProducts(ctx context.Context, products []models.Product)
	InvalidateProducts(ctx context.Context)
}

type ProductIndex interface {
	Index(ctx context.Context, product models.Product) error
	Search(ctx context.Context, query string) ([]models.Product, error)
}

type PhotoStorage interface {
	Upload(ctx context.Context, productID, filename, contentType string, r io.Reader, size int64) (string, error)
}

type ReceiptMailer interface {
	SendReceipt(ctx context.Context, to string, p models.Payment) error
}

// Handler regroupe les routes de l'API. Store, Tokens et Payments sont
// obligatoires ; Cache, Search, Photos et Mailer sont optionnels.
type Handler struct {
	Store    store.Store
	Tokens   *auth.Manager
	Payments PaymentGateway

	Cache  ProductCache
	Search ProductIndex
	Photos PhotoStorage
	Mailer ReceiptMailer

	CookieSecure bool
}

const backgroundTimeout = 30 * time.Second

// background lance une tâche détachée de la requête (indexation, e-mail).
func (h *Handler) background(c *gin.Context, name string, task func(ctx context.Context) error) {
	ctx := context.WithoutCancel(c.Request.Context())
	go func() {
		ctx, cancel := context.WithTimeout(ctx, backgroundTimeout)
		defer cancel()
		if err := task(ctx); err != nil {
			log.Printf("❌ Tâche %s échouée: %v", name, err)
		}
	}()
}

func badRequest(c *gin.Context, msg string, err error) {
	body := gin.H{"error": msg}
	if err != nil {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}

// storeError traduit une erreur du store en réponse JSON.
func storeError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrInvalidID) {
		badRequest(c, "Identifiant invalide", err)
		return
	}
	log.Printf("❌ Erreur base de données: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur base de données"})
}

// Home répond au health check.
func Home(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte("<h1>Api is working fine</h1>"))
}
