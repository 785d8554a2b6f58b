package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
)

type Payment struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UID           string             `json:"uid" bson:"uid" binding:"required"`
	Email         string             `json:"email,omitempty" bson:"email,omitempty"`
	Amount        float64            `json:"amount" bson:"amount" binding:"gte=0"`
	Currency      string             `json:"currency,omitempty" bson:"currency,omitempty"`
	TransactionID string             `json:"transactionId,omitempty" bson:"transactionId,omitempty"`
	CartIDs       []string           `json:"cartIds" bson:"cartIds" binding:"required,min=1"`
	Status        string             `json:"status,omitempty" bson:"status,omitempty"`
	CheckoutToken string             `json:"checkoutToken,omitempty" bson:"checkoutToken,omitempty"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
}

// CartObjectIDs convertit les identifiants de panier référencés par le paiement.
func (p *Payment) CartObjectIDs() ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(p.CartIDs))
	for _, raw := range p.CartIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return nil, fmt.Errorf("identifiant de panier invalide %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
