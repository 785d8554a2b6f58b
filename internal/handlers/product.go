package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront_back_end/internal/models"
	"storefront_back_end/internal/store"
)

const maxPhotoSize = 5 << 20

// 🟢 POST /product
func (h *Handler) CreateProduct(c *gin.Context) {
	var p models.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, "Produit invalide", err)
		return
	}
	p.ID = primitive.NilObjectID

	res, err := h.Store.InsertProduct(c.Request.Context(), &p)
	if err != nil {
		storeError(c, err)
		return
	}

	h.productChanged(c, p)
	c.JSON(http.StatusOK, res)
}

// 🟢 GET /products
func (h *Handler) ListProducts(c *gin.Context) {
	ctx := c.Request.Context()
	if h.Cache != nil {
		if cached, ok := h.Cache.Products(ctx); ok {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	products, err := h.Store.ListProducts(ctx)
	if err != nil {
		storeError(c, err)
		return
	}
	if h.Cache != nil {
		h.Cache.StoreProducts(ctx, products)
	}
	c.JSON(http.StatusOK, products)
}

// 🟢 GET /brand/:brand
// Seule la première lettre est passée en majuscule : "nike" cherche "Nike".
func (h *Handler) ProductsByBrand(c *gin.Context) {
	brand := models.NormalizeBrand(c.Param("brand"))

	products, err := h.Store.ProductsByBrand(c.Request.Context(), brand)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// 🟢 GET /:productId: renvoie un tableau, éventuellement vide.
func (h *Handler) ProductByID(c *gin.Context) {
	id, err := store.ParseID(c.Param("productId"))
	if err != nil {
		badRequest(c, "ID produit invalide", nil)
		return
	}

	products, err := h.Store.ProductsByID(c.Request.Context(), id)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// 🟢 PUT /update-product/:productId
// Upsert : un ID inconnu crée le produit.
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, err := store.ParseID(c.Param("productId"))
	if err != nil {
		badRequest(c, "ID produit invalide", nil)
		return
	}

	var p models.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, "Produit invalide", err)
		return
	}

	res, err := h.Store.UpsertProduct(c.Request.Context(), id, &p)
	if err != nil {
		storeError(c, err)
		return
	}
	if res.UpsertedCount > 0 {
		log.Printf("🆕 Produit %s créé par upsert", id.Hex())
	}

	h.productChanged(c, p)
	c.JSON(http.StatusOK, res)
}

// 🔍 GET /search?q=: Elasticsearch, sinon recherche dans le store.
func (h *Handler) SearchProducts(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		badRequest(c, "paramètre 'q' manquant", nil)
		return
	}
	ctx := c.Request.Context()

	if h.Search != nil {
		results, err := h.Search.Search(ctx, query)
		if err == nil && len(results) > 0 {
			c.JSON(http.StatusOK, results)
			return
		}
		if err != nil {
			log.Printf("⚠️ Elasticsearch indisponible, fallback store: %v", err)
		}
	}

	products, err := h.Store.SearchProducts(ctx, query)
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// 🖼️ POST /product/:productId/photo (multipart, champ "photo")
func (h *Handler) UploadProductPhoto(c *gin.Context) {
	if h.Photos == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Stockage des photos non configuré"})
		return
	}

	id, err := store.ParseID(c.Param("productId"))
	if err != nil {
		badRequest(c, "ID produit invalide", nil)
		return
	}

	file, err := c.FormFile("photo")
	if err != nil {
		badRequest(c, "Champ 'photo' manquant", err)
		return
	}
	if file.Size > maxPhotoSize {
		badRequest(c, "Photo trop volumineuse (5 Mo max)", nil)
		return
	}

	ctx := c.Request.Context()
	existing, err := h.Store.ProductsByID(ctx, id)
	if err != nil {
		storeError(c, err)
		return
	}
	if len(existing) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	f, err := file.Open()
	if err != nil {
		badRequest(c, "Lecture du fichier impossible", err)
		return
	}
	defer f.Close()

	url, err := h.Photos.Upload(ctx, id.Hex(), file.Filename, file.Header.Get("Content-Type"), f, file.Size)
	if err != nil {
		log.Printf("❌ Upload photo: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Échec de l'upload"})
		return
	}

	res, err := h.Store.SetProductPhoto(ctx, id, url)
	if err != nil {
		storeError(c, err)
		return
	}

	product := existing[0]
	product.Photo = url
	h.productChanged(c, product)
	c.JSON(http.StatusOK, gin.H{"photo": url, "result": res})
}

// productChanged invalide le cache et réindexe le produit en arrière-plan.
func (h *Handler) productChanged(c *gin.Context, p models.Product) {
	if h.Cache != nil {
		h.Cache.InvalidateProducts(c.Request.Context())
	}
	if h.Search != nil {
		h.background(c, "indexation "+p.ID.Hex(), func(ctx context.Context) error {
			return h.Search.Index(ctx, p)
		})
	}
}
