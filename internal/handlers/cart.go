package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront_back_end/internal/models"
	"storefront_back_end/internal/store"
)

// 🛒 GET /carts (?uid= pour filtrer)
func (h *Handler) ListCarts(c *gin.Context) {
	items, err := h.Store.ListCartItems(c.Request.Context(), c.Query("uid"))
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// 🛒 POST /carts
func (h *Handler) AddToCart(c *gin.Context) {
	var item models.CartItem
	if err := c.ShouldBindJSON(&item); err != nil {
		badRequest(c, "Article invalide", err)
		return
	}
	item.ID = primitive.NilObjectID

	res, err := h.Store.InsertCartItem(c.Request.Context(), &item)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// 🗑️ DELETE /carts/:uid/:productId
// productId est l'_id de la ligne de panier ; uid doit aussi correspondre.
func (h *Handler) RemoveFromCart(c *gin.Context) {
	id, err := store.ParseID(c.Param("productId"))
	if err != nil {
		badRequest(c, "ID invalide", nil)
		return
	}

	res, err := h.Store.DeleteCartItem(c.Request.Context(), id, c.Param("uid"))
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
