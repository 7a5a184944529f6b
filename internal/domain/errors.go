package domain

import (
	"errors"
	"fmt"
)

// ErrTransactionConflict reports that the backing store rejected the
// reservation because a concurrent writer touched one of the products
// between read and commit. Retryable by the caller with fresh reads.
var ErrTransactionConflict = errors.New("stock reservation conflict")

type ReservationReason string

const (
	ReasonProductNotFound    ReservationReason = "product_not_found"
	ReasonVariantUnavailable ReservationReason = "variant_unavailable"
	ReasonInsufficientStock  ReservationReason = "insufficient_stock"
)

// ReservationError identifies the single cart line that made the
// checkout reservation abort. No writes happen once one is raised.
type ReservationError struct {
	Reason      ReservationReason
	ProductID   string
	ProductName string
	Size        string
	Color       string
	Requested   int
	Available   int
}

func (e *ReservationError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID
	}
	switch e.Reason {
	case ReasonProductNotFound:
		return fmt.Sprintf("product %q does not exist", name)
	case ReasonVariantUnavailable:
		return fmt.Sprintf("no stock entry for %q (size %s, color %s)", name, e.Size, e.Color)
	case ReasonInsufficientStock:
		return fmt.Sprintf("insufficient stock for %q (size %s, color %s): requested %d, available %d",
			name, e.Size, e.Color, e.Requested, e.Available)
	}
	return fmt.Sprintf("reservation failed for %q", name)
}
