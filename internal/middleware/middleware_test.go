package middleware

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront_back_end/internal/auth"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/store"
)

const testSecret = "middleware-secret"

type fakeUsers struct {
	users map[string]*models.User
	err   error
	calls int
}

func (f *fakeUsers) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func gatedRouter(tokens *auth.Manager, users UserFinder) (*gin.Engine, *bool) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	reached := false
	r.GET("/private", Authenticate(tokens, users), func(c *gin.Context) {
		reached = true
		session, ok := SessionFrom(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{"email": session.Email})
	})
	return r, &reached
}

func requestWithToken(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}
	return req
}

func TestAuthenticate(t *testing.T) {
	tokens := auth.NewManager(testSecret, auth.DefaultTTL)
	users := &fakeUsers{users: map[string]*models.User{"a@b.com": {Email: "a@b.com"}}}

	valid, _, err := tokens.Issue(map[string]interface{}{"email": "a@b.com"})
	require.NoError(t, err)

	t.Run("valid cookie reaches handler with session", func(t *testing.T) {
		r, reached := gatedRouter(tokens, users)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, requestWithToken(valid))

		assert.True(t, *reached)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"email":"a@b.com"}`, rec.Body.String())
	})

	t.Run("missing cookie is rejected before store access", func(t *testing.T) {
		counting := &fakeUsers{users: users.users}
		r, reached := gatedRouter(tokens, counting)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, requestWithToken(""))

		assert.False(t, *reached)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Zero(t, counting.calls)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		forged, _, err := auth.NewManager("wrong-secret", auth.DefaultTTL).Issue(map[string]interface{}{"email": "a@b.com"})
		require.NoError(t, err)

		r, reached := gatedRouter(tokens, users)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, requestWithToken(forged))

		assert.False(t, *reached)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		expired, _, err := auth.NewManager(testSecret, -time.Minute).Issue(map[string]interface{}{"email": "a@b.com"})
		require.NoError(t, err)

		r, reached := gatedRouter(tokens, users)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, requestWithToken(expired))

		assert.False(t, *reached)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		ghost, _, err := tokens.Issue(map[string]interface{}{"email": "ghost@b.com"})
		require.NoError(t, err)

		r, reached := gatedRouter(tokens, users)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, requestWithToken(ghost))

		assert.False(t, *reached)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		r, reached := gatedRouter(tokens, &fakeUsers{err: errors.New("connection reset")})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, requestWithToken(valid))

		assert.False(t, *reached)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

type fakeCounter struct {
	hits map[string]int64
	err  error
}

func (f *fakeCounter) Hit(_ context.Context, key string, _ time.Duration) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.hits[key]++
	return f.hits[key], nil
}

func TestAPIRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("blocks after max requests", func(t *testing.T) {
		r := gin.New()
		r.Use(APIRateLimit(&fakeCounter{hits: map[string]int64{}}, 2, time.Minute))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		codes := []int{}
		for i := 0; i < 3; i++ {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			codes = append(codes, rec.Code)
		}
		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	})

	t.Run("counter failure lets requests through", func(t *testing.T) {
		r := gin.New()
		r.Use(APIRateLimit(&fakeCounter{err: errors.New("redis down")}, 1, time.Minute))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := rec.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, rec.Body.String())

	const given = "6f1c2a9e-3b1d-4c6e-9a57-0d4b5e8f7a21"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, given)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, given, rec.Header().Get(RequestIDHeader))
}

func TestAuditPriceChanges(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	s := store.NewMemory()
	p := &models.Product{Name: "Air Max", Brand: "Nike", Price: 100}
	_, err := s.InsertProduct(ctx, p)
	require.NoError(t, err)

	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	var seenBody string
	r := gin.New()
	r.PUT("/update-product/:productId", AuditPriceChanges(s), func(c *gin.Context) {
		raw, _ := c.GetRawData()
		seenBody = string(raw)
		c.Status(http.StatusOK)
	})

	body := `{"name":"Air Max","brand":"Nike","price":120}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/update-product/"+p.ID.Hex(), strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, body, seenBody)
	assert.Contains(t, buf.String(), "100.00 → 120.00")
}

func TestAuditPriceChangesRejectsOversizedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := store.NewMemory()

	reached := false
	r := gin.New()
	r.PUT("/update-product/:productId", AuditPriceChanges(s), func(c *gin.Context) {
		reached = true
		c.Status(http.StatusOK)
	})

	body := `{"price":1,"description":"` + strings.Repeat("x", int(MaxAuditedBody)) + `"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/update-product/"+primitive.NewObjectID().Hex(), strings.NewReader(body)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.False(t, reached)
}
