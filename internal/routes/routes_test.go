package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"storefront_back_end/internal/auth"
	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/store"
)

func TestRegisterRoutesGatesPrivateGroup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := &handlers.Handler{Store: store.NewMemory(), Tokens: auth.NewManager("s", auth.DefaultTTL)}

	gated := 0
	RegisterRoutes(r, h, func(c *gin.Context) {
		gated++
		c.AbortWithStatus(http.StatusTeapot)
	})

	public := []struct{ method, path string }{
		{http.MethodGet, "/"},
		{http.MethodGet, "/users"},
		{http.MethodGet, "/remove-token"},
	}
	for _, tc := range public {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusOK, w.Code, tc.path)
	}
	assert.Zero(t, gated)

	private := []struct{ method, path string }{
		{http.MethodGet, "/carts"},
		{http.MethodPost, "/carts"},
		{http.MethodDelete, "/carts/u1/p1"},
		{http.MethodGet, "/payment-history"},
		{http.MethodPost, "/create-payment-intent"},
		{http.MethodPost, "/payments"},
		{http.MethodPost, "/product"},
		{http.MethodGet, "/products"},
		{http.MethodGet, "/brand/apple"},
		{http.MethodGet, "/search"},
		{http.MethodPut, "/update-product/abc"},
		{http.MethodPost, "/product/abc/photo"},
		{http.MethodGet, "/abc"},
	}
	for _, tc := range private {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusTeapot, w.Code, tc.method+" "+tc.path)
	}
	assert.Equal(t, len(private), gated)
}
