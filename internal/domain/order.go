package domain

import "time"

type OrderStatus string

const (
	OrderStatusCompleted OrderStatus = "Completado"
	OrderStatusPending   OrderStatus = "Pendiente"
	OrderStatusCancelled OrderStatus = "Cancelado"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusPending, OrderStatusCancelled:
		return true
	}
	return false
}

// Order is the immutable record of a purchase. Items are a snapshot of
// the cart lines at purchase time; later product edits never alter them.
type Order struct {
	OrderID    string      `dynamodbav:"order_id"    json:"order_id"`
	FirstName  string      `dynamodbav:"first_name"  json:"first_name"`
	LastName   string      `dynamodbav:"last_name"   json:"last_name"`
	Phone      string      `dynamodbav:"phone"       json:"phone"`
	Address    string      `dynamodbav:"address"     json:"address"`
	City       string      `dynamodbav:"city"        json:"city"`
	PostalCode string      `dynamodbav:"postal_code" json:"postal_code,omitempty"`
	Items      []CartItem  `dynamodbav:"items"       json:"items"`
	Total      float64     `dynamodbav:"total"       json:"total"`
	Status     OrderStatus `dynamodbav:"status"      json:"status"`
	CreatedAt  time.Time   `dynamodbav:"created_at"  json:"created_at"`
}

type CustomerInfo struct {
	FirstName  string `json:"first_name"  binding:"required"`
	LastName   string `json:"last_name"   binding:"required"`
	Phone      string `json:"phone"       binding:"required"`
	Address    string `json:"address"     binding:"required"`
	City       string `json:"city"        binding:"required"`
	PostalCode string `json:"postal_code"`
}

// CheckoutRequest carries the shopper's cart to the reservation
// transaction. CustomerInfo selects the direct-order path; without it the
// checkout hands off to the payment session collaborator.
type CheckoutRequest struct {
	CartItems    []CartItem    `json:"cart_items" binding:"required"`
	CustomerInfo *CustomerInfo `json:"customer_info"`
}

// CheckoutResult holds exactly one of OrderID (direct order) or
// SessionID (payment redirect).
type CheckoutResult struct {
	OrderID   string `json:"order_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}
