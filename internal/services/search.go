package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront_back_end/internal/models"
)

const ProductsIndex = "products"

// indexedProduct est le document envoyé à Elasticsearch : _id est une
// métadonnée réservée, l'identifiant passe par DocumentID.
type indexedProduct struct {
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Rating      float64 `json:"rating"`
	Photo       string  `json:"photo"`
	Description string  `json:"description"`
}

// ProductIndex indexe et recherche les produits dans Elasticsearch.
type ProductIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewProductIndex(client *elasticsearch.Client) *ProductIndex {
	return &ProductIndex{client: client, index: ProductsIndex}
}

//
// --- INDEXATION ---
//

func (p *ProductIndex) Index(ctx context.Context, product models.Product) error {
	data, err := json.Marshal(indexedProduct{
		Name:        product.Name,
		Brand:       product.Brand,
		Category:    product.Category,
		Price:       product.Price,
		Rating:      product.Rating,
		Photo:       product.Photo,
		Description: product.Description,
	})
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      p.index,
		DocumentID: product.ID.Hex(),
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, p.client)
	if err != nil {
		return fmt.Errorf("envoi Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("Elastic a renvoyé une erreur pour %s: %s", product.Name, res.String())
	}
	log.Printf("✅ Produit indexé dans Elasticsearch: %s", product.Name)
	return nil
}

//
// --- RECHERCHE ---
//

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string         `json:"_id"`
			Source indexedProduct `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search cherche par nom, marque, catégorie ou description.
func (p *ProductIndex) Search(ctx context.Context, query string) ([]models.Product, error) {
	var buf bytes.Buffer
	q := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^2", "brand", "category", "description"},
				"fuzziness": "AUTO",
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("encodage requête: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{p.index},
		Body:  &buf,
	}
	res, err := req.Do(ctx, p.client)
	if err != nil {
		return nil, fmt.Errorf("requête Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("recherche Elastic: %s", res.String())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("décodage JSON: %w", err)
	}

	products := make([]models.Product, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		id, err := primitive.ObjectIDFromHex(hit.ID)
		if err != nil {
			continue
		}
		src := hit.Source
		products = append(products, models.Product{
			ID:          id,
			Name:        src.Name,
			Brand:       src.Brand,
			Category:    src.Category,
			Price:       src.Price,
			Rating:      src.Rating,
			Photo:       src.Photo,
			Description: src.Description,
		})
	}
	return products, nil
}
