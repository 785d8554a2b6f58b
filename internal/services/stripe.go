package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/stripe/stripe-go/v83/webhook"
)

var ErrWebhookNotConfigured = errors.New("STRIPE_WEBHOOK_SECRET non configuré")

// Intent est la partie d'un PaymentIntent Stripe utile au client.
type Intent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
}

// WebhookEvent résume un événement Stripe vérifié.
type WebhookEvent struct {
	Type            string
	PaymentIntentID string
}

// StripeGateway crée les intentions de paiement et vérifie les webhooks.
type StripeGateway struct {
	currency      string
	webhookSecret string
}

// NewStripeGateway initialise la clé globale du SDK Stripe.
func NewStripeGateway(secretKey, currency, webhookSecret string) *StripeGateway {
	stripe.Key = secretKey
	log.Println("✅ Stripe initialisé")
	return &StripeGateway{currency: currency, webhookSecret: webhookSecret}
}

// CreateIntent demande une intention de paiement par carte pour un montant
// en centimes dans la devise configurée.
func (g *StripeGateway) CreateIntent(ctx context.Context, amountCents int64, idempotencyKey string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountCents),
		Currency:           stripe.String(g.currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("création PaymentIntent: %w", err)
	}
	log.Printf("💳 PaymentIntent créé : %s (%d %s)", pi.ID, pi.Amount, pi.Currency)

	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}

// ParseWebhook vérifie la signature Stripe-Signature et extrait l'intention concernée.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (WebhookEvent, error) {
	if g.webhookSecret == "" {
		return WebhookEvent{}, ErrWebhookNotConfigured
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return WebhookEvent{}, fmt.Errorf("signature Stripe invalide: %w", err)
	}

	out := WebhookEvent{Type: string(event.Type)}
	if strings.HasPrefix(out.Type, "payment_intent.") && event.Data != nil {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return WebhookEvent{}, fmt.Errorf("décodage PaymentIntent: %w", err)
		}
		out.PaymentIntentID = pi.ID
	}
	return out, nil
}
