package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"
)

const testWebhookSecret = "whsec_test_secret"

func signedPayload(t *testing.T, payload string, secret string) (string, []byte) {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: []byte(payload),
		Secret:  secret,
	})
	return signed.Header, signed.Payload
}

func TestParseWebhookPaymentIntent(t *testing.T) {
	g := &StripeGateway{currency: "usd", webhookSecret: testWebhookSecret}
	header, body := signedPayload(t, `{
		"id": "evt_1",
		"object": "event",
		"type": "payment_intent.succeeded",
		"data": {"object": {"id": "pi_123", "object": "payment_intent", "amount": 2500}}
	}`, testWebhookSecret)

	event, err := g.ParseWebhook(body, header)
	require.NoError(t, err)
	assert.Equal(t, "payment_intent.succeeded", event.Type)
	assert.Equal(t, "pi_123", event.PaymentIntentID)
}

func TestParseWebhookOtherEvent(t *testing.T) {
	g := &StripeGateway{currency: "usd", webhookSecret: testWebhookSecret}
	header, body := signedPayload(t, `{
		"id": "evt_2",
		"object": "event",
		"type": "customer.created",
		"data": {"object": {"id": "cus_1", "object": "customer"}}
	}`, testWebhookSecret)

	event, err := g.ParseWebhook(body, header)
	require.NoError(t, err)
	assert.Equal(t, "customer.created", event.Type)
	assert.Empty(t, event.PaymentIntentID)
}

func TestParseWebhookRejectsBadSignature(t *testing.T) {
	g := &StripeGateway{currency: "usd", webhookSecret: testWebhookSecret}
	header, body := signedPayload(t, `{"id":"evt_3","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_9"}}}`, "whsec_other")

	_, err := g.ParseWebhook(body, header)
	assert.Error(t, err)
}

func TestParseWebhookRequiresSecret(t *testing.T) {
	g := &StripeGateway{currency: "usd"}
	_, err := g.ParseWebhook([]byte(`{}`), "")
	assert.ErrorIs(t, err, ErrWebhookNotConfigured)
}

// stripeAPI redirige le SDK vers un faux serveur le temps du test.
func stripeAPI(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		HTTPClient:        srv.Client(),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	stripe.SetBackend(stripe.APIBackend, backend)
	t.Cleanup(func() { stripe.SetBackend(stripe.APIBackend, nil) })
	return srv
}

func TestCreateIntent(t *testing.T) {
	stripeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "checkout-1", r.Header.Get("Idempotency-Key"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "1999", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "card", r.PostForm.Get("payment_method_types[0]"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_1","object":"payment_intent","amount":1999,"currency":"usd","client_secret":"pi_1_secret_x"}`))
	})
	g := NewStripeGateway("sk_test_123", "usd", "")

	intent, err := g.CreateIntent(context.Background(), 1999, "checkout-1")
	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.ID)
	assert.Equal(t, "pi_1_secret_x", intent.ClientSecret)
	assert.EqualValues(t, 1999, intent.Amount)
}

func TestCreateIntentHonoursCancelledContext(t *testing.T) {
	var calls atomic.Int32
	stripeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_2","object":"payment_intent"}`))
	})
	g := NewStripeGateway("sk_test_123", "usd", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.CreateIntent(ctx, 500, "checkout-2")
	assert.Error(t, err)
	assert.Zero(t, calls.Load())
}
