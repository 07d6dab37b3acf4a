// Package cache holds an optional redis cache for the product list, the one
// collection every client reloads constantly. The database stays the source
// of truth; every product- or stock-affecting mutation invalidates the key.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"comanda/internal/models"

	"github.com/go-redis/redis/v8"
)

const (
	productListKey = "products:all"
	productListTTL = 5 * time.Minute
)

var rdb *redis.Client

// Init connects to redis when addr is set. The cache stays disabled (and all
// helpers become no-ops) when addr is empty or the ping fails.
func Init(addr string) {
	if addr == "" {
		return
	}

	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[WARN] Redis unreachable at %s, product cache disabled: %v", addr, err)
		return
	}

	rdb = client
	log.Println("Redis connected, product cache enabled.")
}

func Enabled() bool { return rdb != nil }

func GetProductList(ctx context.Context) ([]models.Product, bool) {
	if rdb == nil {
		return nil, false
	}

	raw, err := rdb.Get(ctx, productListKey).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("Product cache read failed: %v", err)
		}
		return nil, false
	}

	var products []models.Product
	if err := json.Unmarshal([]byte(raw), &products); err != nil {
		log.Printf("Product cache entry invalid, dropping it: %v", err)
		rdb.Del(ctx, productListKey)
		return nil, false
	}
	return products, true
}

func SetProductList(ctx context.Context, products []models.Product) {
	if rdb == nil {
		return
	}

	raw, err := json.Marshal(products)
	if err != nil {
		return
	}
	if err := rdb.Set(ctx, productListKey, raw, productListTTL).Err(); err != nil {
		log.Printf("Product cache write failed: %v", err)
	}
}

// InvalidateProducts drops the cached list. Called by product mutations and
// by every order mutation, since order mutations move stock.
func InvalidateProducts(ctx context.Context) {
	if rdb == nil {
		return
	}
	if err := rdb.Del(ctx, productListKey).Err(); err != nil {
		log.Printf("Product cache invalidation failed: %v", err)
	}
}
