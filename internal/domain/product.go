package domain

import (
	"fmt"
	"time"
)

// StockItem is one row of a product's variant stock table. Stock is
// tracked per (size, color) pair; the pair is unique within a product.
type StockItem struct {
	Size     string `dynamodbav:"size"     json:"size"`
	Color    string `dynamodbav:"color"    json:"color"`
	Quantity int    `dynamodbav:"quantity" json:"quantity"`
}

type Product struct {
	ProductID   string      `dynamodbav:"product_id"  json:"product_id"`
	Name        string      `dynamodbav:"name"        json:"name"`
	Description string      `dynamodbav:"description" json:"description"`
	Price       float64     `dynamodbav:"price"       json:"price"`
	ImageURLs   []string    `dynamodbav:"image_urls"  json:"image_urls"`
	CategoryID  string      `dynamodbav:"category_id" json:"category_id"`
	Sizes       []string    `dynamodbav:"sizes"       json:"sizes"`
	Colors      []string    `dynamodbav:"colors"      json:"colors"`
	Stock       []StockItem `dynamodbav:"stock"       json:"stock"`
	// Version is the optimistic-concurrency counter; bumped on every
	// write, and checkout updates are conditioned on it.
	Version   int64     `dynamodbav:"version"    json:"-"`
	CreatedAt time.Time `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt time.Time `dynamodbav:"updated_at" json:"updated_at"`
}

type CreateProductRequest struct {
	Name        string      `json:"name"        binding:"required"`
	Description string      `json:"description"`
	Price       float64     `json:"price"       binding:"required,gt=0"`
	ImageURLs   []string    `json:"image_urls"`
	CategoryID  string      `json:"category_id"`
	Sizes       []string    `json:"sizes"`
	Stock       []StockItem `json:"stock"`
}

type UpdateProductRequest struct {
	Name        string      `json:"name"        binding:"required"`
	Description string      `json:"description"`
	Price       float64     `json:"price"       binding:"required,gt=0"`
	ImageURLs   []string    `json:"image_urls"`
	CategoryID  string      `json:"category_id"`
	Sizes       []string    `json:"sizes"`
	Stock       []StockItem `json:"stock"`
}

// ValidateStock enforces the structural invariants of a stock table:
// non-empty size and color labels, non-negative quantities, and a unique
// (size, color) pair per row.
func ValidateStock(stock []StockItem) error {
	seen := make(map[string]struct{}, len(stock))
	for i, row := range stock {
		if row.Size == "" {
			return fmt.Errorf("stock row %d: size must not be empty", i)
		}
		if row.Color == "" {
			return fmt.Errorf("stock row %d: color must not be empty", i)
		}
		if row.Quantity < 0 {
			return fmt.Errorf("stock row %d: quantity must not be negative", i)
		}
		key := row.Size + "/" + row.Color
		if _, ok := seen[key]; ok {
			return fmt.Errorf("stock row %d: duplicate variant (size %s, color %s)", i, row.Size, row.Color)
		}
		seen[key] = struct{}{}
	}
	return nil
}
