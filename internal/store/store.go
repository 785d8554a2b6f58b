// Package store regroupe l'accès aux collections products, carts, payments et users.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront_back_end/internal/models"
)

const (
	ProductsCollection = "products"
	CartsCollection    = "carts"
	PaymentsCollection = "payments"
	UsersCollection    = "users"
)

var (
	ErrNotFound  = errors.New("document introuvable")
	ErrInvalidID = errors.New("identifiant invalide")
)

type InsertResult struct {
	Acknowledged bool        `json:"acknowledged"`
	InsertedID   interface{} `json:"insertedId"`
}

type UpdateResult struct {
	Acknowledged  bool        `json:"acknowledged"`
	MatchedCount  int64       `json:"matchedCount"`
	ModifiedCount int64       `json:"modifiedCount"`
	UpsertedCount int64       `json:"upsertedCount"`
	UpsertedID    interface{} `json:"upsertedId"`
}

type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

// Settlement est le résultat d'un paiement enregistré : insertion du paiement
// puis suppression des lignes de panier réglées. Replayed indique qu'un
// paiement portant le même checkoutToken existait déjà.
type Settlement struct {
	Payment  InsertResult
	Carts    DeleteResult
	Replayed bool
}

type Store interface {
	InsertProduct(ctx context.Context, p *models.Product) (InsertResult, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	ProductsByBrand(ctx context.Context, brand string) ([]models.Product, error)
	ProductsByID(ctx context.Context, id primitive.ObjectID) ([]models.Product, error)
	UpsertProduct(ctx context.Context, id primitive.ObjectID, p *models.Product) (UpdateResult, error)
	SearchProducts(ctx context.Context, query string) ([]models.Product, error)
	SetProductPhoto(ctx context.Context, id primitive.ObjectID, url string) (UpdateResult, error)

	ListCartItems(ctx context.Context, uid string) ([]models.CartItem, error)
	InsertCartItem(ctx context.Context, item *models.CartItem) (InsertResult, error)
	DeleteCartItem(ctx context.Context, id primitive.ObjectID, uid string) (DeleteResult, error)

	RecordPayment(ctx context.Context, p *models.Payment) (Settlement, error)
	ListPayments(ctx context.Context, uid string) ([]models.Payment, error)
	SetPaymentStatus(ctx context.Context, transactionID, status string) (UpdateResult, error)

	InsertUser(ctx context.Context, u *models.User) (InsertResult, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// ParseID convertit un identifiant hexadécimal en ObjectID.
func ParseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}
