package handlers

import (
	"context"
	"errors"
	"log"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront_back_end/internal/middleware"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/services"
)

const (
	maxWebhookBody    = int64(65536)
	idempotencyHeader = "Idempotency-Key"
)

// Stripe refuse au-delà de 99 999 999 centimes ; la borne évite aussi un
// débordement à la conversion en int64.
type paymentIntentRequest struct {
	Price float64 `json:"price" binding:"required,gt=0,lte=999999.99"`
}

type paymentRequest struct {
	Payment *models.Payment `json:"payment" binding:"required"`
}

// 💳 POST /create-payment-intent
// price est en unités ; Stripe reçoit des centimes arrondis.
func (h *Handler) CreatePaymentIntent(c *gin.Context) {
	var req paymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Prix invalide", err)
		return
	}

	amount := int64(math.Round(req.Price * 100))
	if amount <= 0 {
		badRequest(c, "Prix invalide", nil)
		return
	}

	key := c.GetHeader(idempotencyHeader)
	if key == "" {
		key = uuid.NewString()
	}

	intent, err := h.Payments.CreateIntent(c.Request.Context(), amount, key)
	if err != nil {
		log.Printf("❌ Erreur Stripe: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Le prestataire de paiement a échoué"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"clientSecret": intent.ClientSecret})
}

// 💰 POST /payments
// Enregistre le paiement puis supprime les lignes de panier réglées. Un
// checkoutToken déjà vu rejoue le résultat sans rien réécrire.
func (h *Handler) RecordPayment(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Paiement invalide", err)
		return
	}
	p := req.Payment
	p.ID = primitive.NilObjectID
	if p.CheckoutToken == "" {
		p.CheckoutToken = c.GetHeader(idempotencyHeader)
	}
	if p.Email == "" {
		if s, ok := middleware.SessionFrom(c); ok {
			p.Email = s.Email
		}
	}

	settlement, err := h.Store.RecordPayment(c.Request.Context(), p)
	if err != nil {
		storeError(c, err)
		return
	}

	if settlement.Replayed {
		log.Printf("🔁 Paiement rejoué (checkoutToken %s)", p.CheckoutToken)
	} else {
		log.Printf("✅ Paiement enregistré pour %s : %d article(s) retiré(s)", p.UID, settlement.Carts.DeletedCount)
		h.sendReceipt(c, *p)
	}

	c.JSON(http.StatusOK, gin.H{
		"paymentResult": settlement.Payment,
		"deleteResult":  settlement.Carts,
		"replayed":      settlement.Replayed,
	})
}

func (h *Handler) sendReceipt(c *gin.Context, p models.Payment) {
	if h.Mailer == nil || p.Email == "" {
		return
	}
	h.background(c, "reçu "+p.Email, func(ctx context.Context) error {
		return h.Mailer.SendReceipt(ctx, p.Email, p)
	})
}

// 📜 GET /payment-history (?uid= pour filtrer)
func (h *Handler) PaymentHistory(c *gin.Context) {
	payments, err := h.Store.ListPayments(c.Request.Context(), c.Query("uid"))
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

// 🔔 POST /webhook
func (h *Handler) StripeWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)

	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Lecture corps échouée"})
		return
	}

	event, err := h.Payments.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if errors.Is(err, services.ErrWebhookNotConfigured) {
		log.Printf("⚠️ Webhook reçu sans secret configuré")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Webhook non configuré"})
		return
	}
	if err != nil {
		log.Printf("❌ Webhook rejeté: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature invalide"})
		return
	}

	var status string
	switch event.Type {
	case "payment_intent.succeeded":
		status = models.PaymentStatusSucceeded
	case "payment_intent.payment_failed":
		status = models.PaymentStatusFailed
	default:
		c.Status(http.StatusOK)
		return
	}

	res, err := h.Store.SetPaymentStatus(c.Request.Context(), event.PaymentIntentID, status)
	if err != nil {
		storeError(c, err)
		return
	}
	log.Printf("🔔 %s : %s (%d paiement(s) mis à jour)", event.Type, event.PaymentIntentID, res.ModifiedCount)
	c.Status(http.StatusOK)
}
