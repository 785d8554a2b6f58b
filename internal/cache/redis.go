package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront_back_end/internal/models"
)

const (
	ProductsKey = "products:all"
	ProductsTTL = time.Hour
)

// Redis met en cache la liste des produits et sert de compteur au rate limiter.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Products renvoie la liste en cache ; false si absente ou illisible.
func (r *Redis) Products(ctx context.Context) ([]models.Product, bool) {
	val, err := r.client.Get(ctx, ProductsKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("⚠️ Lecture cache produits: %v", err)
		}
		return nil, false
	}
	var products []models.Product
	if err := json.Unmarshal([]byte(val), &products); err != nil {
		return nil, false
	}
	return products, true
}

func (r *Redis) StoreProducts(ctx context.Context, products []models.Product) {
	data, err := json.Marshal(products)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, ProductsKey, data, ProductsTTL).Err(); err != nil {
		log.Printf("⚠️ Écriture cache produits: %v", err)
	}
}

func (r *Redis) InvalidateProducts(ctx context.Context) {
	if err := r.client.Del(ctx, ProductsKey).Err(); err != nil {
		log.Printf("⚠️ Invalidation cache produits: %v", err)
	}
}

// Hit incrémente le compteur de la fenêtre ; l'expiration est posée au
// premier hit pour que la fenêtre ne glisse pas.
func (r *Redis) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
