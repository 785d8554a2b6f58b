package models

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name" binding:"required"`
	Brand       string             `json:"brand" bson:"brand" binding:"required"`
	Category    string             `json:"category" bson:"category"`
	Price       float64            `json:"price" bson:"price" binding:"gte=0"`
	Rating      float64            `json:"rating" bson:"rating" binding:"gte=0,lte=5"`
	Photo       string             `json:"photo" bson:"photo"`
	Description string             `json:"description" bson:"description"`
}

// NormalizeBrand met en majuscule le premier caractère uniquement ("nike" → "Nike").
// Le reste est conservé tel quel : "adidas originals" devient "Adidas originals".
func NormalizeBrand(brand string) string {
	r, size := utf8.DecodeRuneInString(brand)
	if r == utf8.RuneError {
		return brand
	}
	var b strings.Builder
	b.Grow(len(brand))
	b.WriteRune(unicode.ToUpper(r))
	b.WriteString(brand[size:])
	return b.String()
}
