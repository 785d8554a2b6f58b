package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// CartItem est une ligne de panier : les champs produit sont dénormalisés.
type CartItem struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UID       string             `json:"uid" bson:"uid" binding:"required"`
	Email     string             `json:"email,omitempty" bson:"email,omitempty"`
	ProductID string             `json:"productId" bson:"productId" binding:"required"`
	Name      string             `json:"name" bson:"name"`
	Brand     string             `json:"brand,omitempty" bson:"brand,omitempty"`
	Price     float64            `json:"price" bson:"price" binding:"gte=0"`
	Photo     string             `json:"photo,omitempty" bson:"photo,omitempty"`
	Quantity  int                `json:"quantity,omitempty" bson:"quantity,omitempty" binding:"gte=0"`
}
