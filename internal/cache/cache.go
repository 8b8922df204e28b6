// Package cache : lecture read-through des produits via Redis. Seules les
// métadonnées (nom, prix, image, catégorie) sont cachées — le stock est
// toujours relu dans ScyllaDB, un stock caché périmé ferait accepter des
// paniers invendables.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"orane_back_end/internal/database"
	"orane_back_end/internal/models"
)

const ProductCacheTTL = 10 * time.Minute

type productMeta struct {
	Name       string     `json:"name"`
	Price      float64    `json:"price"`
	CategoryID gocql.UUID `json:"category_id"`
	ImageURLs  []string   `json:"image_urls"`
	IsActive   bool       `json:"is_active"`
}

func metaKey(productID string) string { return "product:meta:" + productID }

// GetProduct récupère un produit : métadonnées depuis Redis si possible,
// stock toujours depuis ScyllaDB
func GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, err
	}

	session, err := database.GetProductsSession()
	if err != nil {
		return nil, err
	}

	product := &models.Product{ID: gocql.UUID(pid)}

	// 1. Métadonnées depuis le cache
	cached := false
	if data, err := database.Redis.Get(ctx, metaKey(productID)).Result(); err == nil {
		var meta productMeta
		if json.Unmarshal([]byte(data), &meta) == nil {
			product.Name = meta.Name
			product.Price = meta.Price
			product.CategoryID = meta.CategoryID
			product.ImageURLs = meta.ImageURLs
			product.IsActive = meta.IsActive
			cached = true
		}
	}

	if cached {
		// 2a. Seulement le stock depuis ScyllaDB
		if err := session.Query(`SELECT stock, stock_reserved FROM products WHERE product_id = ?`,
			product.ID).WithContext(ctx).Scan(&product.Stock, &product.StockReserved); err != nil {
			return nil, err
		}
		return product, nil
	}

	// 2b. Ligne complète puis mise en cache des métadonnées
	if err := session.Query(`SELECT name, price, stock, stock_reserved, category_id, image_urls, is_active
		FROM products WHERE product_id = ?`, product.ID).WithContext(ctx).Scan(
		&product.Name, &product.Price, &product.Stock, &product.StockReserved,
		&product.CategoryID, &product.ImageURLs, &product.IsActive); err != nil {
		return nil, err
	}

	meta := productMeta{
		Name:       product.Name,
		Price:      product.Price,
		CategoryID: product.CategoryID,
		ImageURLs:  product.ImageURLs,
		IsActive:   product.IsActive,
	}
	if jsonData, err := json.Marshal(meta); err == nil {
		database.Redis.Set(ctx, metaKey(productID), jsonData, ProductCacheTTL)
	}

	return product, nil
}

// GetProductNames récupère plusieurs noms de produits, cache d'abord
func GetProductNames(ctx context.Context, productIDs []string) map[string]string {
	result := make(map[string]string)
	missingIDs := []string{}

	for _, productID := range productIDs {
		key := "product_name:" + productID
		name, err := database.Redis.Get(ctx, key).Result()
		if err == nil {
			result[productID] = name
		} else {
			missingIDs = append(missingIDs, productID)
		}
	}

	if len(missingIDs) > 0 {
		session, err := database.GetProductsSession()
		if err != nil {
			return result
		}
		for _, productID := range missingIDs {
			pid, err := uuid.Parse(productID)
			if err != nil {
				continue
			}
			var name string
			if err := session.Query(`SELECT name FROM products WHERE product_id = ?`,
				gocql.UUID(pid)).WithContext(ctx).Scan(&name); err == nil {
				result[productID] = name
				database.Redis.Set(ctx, "product_name:"+productID, name, ProductCacheTTL)
			}
		}
	}

	return result
}
