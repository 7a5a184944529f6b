package domain

// CartItem is one line in a shopper's cart. Price and images are
// snapshots taken when the line was added; they are not re-fetched if the
// product changes afterwards. Stock math at checkout never trusts them.
type CartItem struct {
	ID        string   `json:"id"`
	ProductID string   `json:"product_id" binding:"required"`
	Name      string   `json:"name"`
	Price     float64  `json:"price"`
	Quantity  int      `json:"quantity" binding:"required,min=1"`
	Size      string   `json:"size"`
	Color     string   `json:"color"`
	ImageURLs []string `json:"image_urls"`
}

// CartItemID builds the composite line key. Adding the same variant twice
// increments the existing line instead of creating a duplicate.
func CartItemID(productID, size, color string) string {
	return productID + size + color
}

// CartTotal is the sum of price x quantity over all lines, from the
// snapshotted prices.
func CartTotal(items []CartItem) float64 {
	total := 0.0
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// CartItemCount is the sum of quantities over all lines.
func CartItemCount(items []CartItem) int {
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return count
}
