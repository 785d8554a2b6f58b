package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront_back_end/internal/models"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

func fakeElastic(t *testing.T, respond func(w http.ResponseWriter, r *http.Request)) (*elasticsearch.Client, *[]recordedRequest) {
	t.Helper()
	var seen []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen = append(seen, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: string(body)})
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		respond(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client, &seen
}

func TestProductIndexIndex(t *testing.T) {
	client, seen := fakeElastic(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})
	idx := NewProductIndex(client)
	id := primitive.NewObjectID()

	err := idx.Index(context.Background(), models.Product{ID: id, Name: "Air Max", Brand: "Nike", Price: 120})
	require.NoError(t, err)

	require.Len(t, *seen, 1)
	req := (*seen)[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/products/_doc/"+id.Hex(), req.Path)
	assert.NotContains(t, req.Body, `"_id"`)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(req.Body), &doc))
	assert.Equal(t, "Nike", doc["brand"])
}

func TestProductIndexIndexError(t *testing.T) {
	client, _ := fakeElastic(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"mapper_parsing_exception"}`))
	})
	err := NewProductIndex(client).Index(context.Background(), models.Product{ID: primitive.NewObjectID(), Name: "x"})
	assert.Error(t, err)
}

func TestProductIndexSearch(t *testing.T) {
	id := primitive.NewObjectID()
	client, seen := fakeElastic(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hits":{"hits":[
			{"_id":"` + id.Hex() + `","_source":{"name":"Air Max","brand":"Nike","price":120}},
			{"_id":"not-an-object-id","_source":{"name":"legacy"}}
		]}}`))
	})

	got, err := NewProductIndex(client).Search(context.Background(), "air")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, "Nike", got[0].Brand)

	require.Len(t, *seen, 1)
	assert.True(t, strings.HasSuffix((*seen)[0].Path, "/_search"))
	assert.Contains(t, (*seen)[0].Body, `"multi_match"`)
}

func TestProductIndexSearchMissingIndex(t *testing.T) {
	client, _ := fakeElastic(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"index_not_found_exception"}}`))
	})
	_, err := NewProductIndex(client).Search(context.Background(), "air")
	assert.Error(t, err)
}
