package domain

// Availability resolution: pure functions over a product's stock table.
// Selections arrive partially (size first, then color), and the sellable
// color set narrows as the shopper picks.

// Availability is the resolver's answer for a product and a partial
// (size, color) selection. Quantity is present only once both are
// selected.
type Availability struct {
	OutOfStock bool     `json:"out_of_stock"`
	TotalStock int      `json:"total_stock"`
	Sizes      []string `json:"sizes"`
	Colors     []string `json:"colors"`
	Quantity   *int     `json:"quantity,omitempty"`
}

// ResolveAvailability applies the selection rules to a stock table.
func ResolveAvailability(stock []StockItem, size, color string) Availability {
	availability := Availability{
		TotalStock: TotalStock(stock),
		Sizes:      StockSizes(stock),
		Colors:     SellableColors(stock, size),
	}
	availability.OutOfStock = availability.TotalStock == 0
	if size != "" && color != "" {
		quantity := AvailableQuantity(stock, size, color)
		availability.Quantity = &quantity
	}
	return availability
}

// TotalStock sums the quantities of every variant row. A product whose
// total is zero is out of stock regardless of any selection.
func TotalStock(stock []StockItem) int {
	total := 0
	for _, row := range stock {
		total += row.Quantity
	}
	return total
}

// StockColors returns the distinct colors present in the stock table, in
// first-seen order. A product's Colors field is always exactly this set.
func StockColors(stock []StockItem) []string {
	var colors []string
	seen := make(map[string]struct{})
	for _, row := range stock {
		if _, ok := seen[row.Color]; ok {
			continue
		}
		seen[row.Color] = struct{}{}
		colors = append(colors, row.Color)
	}
	return colors
}

// StockSizes returns the distinct sizes present in the stock table, in
// first-seen order.
func StockSizes(stock []StockItem) []string {
	var sizes []string
	seen := make(map[string]struct{})
	for _, row := range stock {
		if _, ok := seen[row.Size]; ok {
			continue
		}
		seen[row.Size] = struct{}{}
		sizes = append(sizes, row.Size)
	}
	return sizes
}

// SellableColors returns the colors that can still be bought given a size
// selection. With no size selected every stock color is sellable; with a
// size selected only colors whose row for that size has quantity > 0
// remain.
func SellableColors(stock []StockItem, size string) []string {
	if size == "" {
		return StockColors(stock)
	}
	var colors []string
	seen := make(map[string]struct{})
	for _, row := range stock {
		if row.Size != size || row.Quantity <= 0 {
			continue
		}
		if _, ok := seen[row.Color]; ok {
			continue
		}
		seen[row.Color] = struct{}{}
		colors = append(colors, row.Color)
	}
	return colors
}

// FindStockItem locates the unique row for a (size, color) pair.
func FindStockItem(stock []StockItem, size, color string) (StockItem, bool) {
	for _, row := range stock {
		if row.Size == size && row.Color == color {
			return row, true
		}
	}
	return StockItem{}, false
}

// AvailableQuantity returns the purchasable quantity for a fully selected
// variant, or 0 when no such row exists. A product with declared sizes or
// colors but an empty stock table counts as zero stock for every
// combination.
func AvailableQuantity(stock []StockItem, size, color string) int {
	row, ok := FindStockItem(stock, size, color)
	if !ok {
		return 0
	}
	return row.Quantity
}
