package events

import (
	"time"
)

// OrderCreatedEvent is published after a checkout commits: stock has
// been reserved and, on the direct-order path, the order record exists.
type OrderCreatedEvent struct {
	EventID   string      `json:"event_id"`
	OrderID   string      `json:"order_id"`
	Total     float64     `json:"total"`
	Items     []OrderItem `json:"items"`
	Status    string      `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id"`
}

type OrderItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Size        string  `json:"size"`
	Color       string  `json:"color"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}
