package cart

import "math"

const (
	// MaxQuantity caps a single line. Larger requests and merges saturate here.
	MaxQuantity int64 = 10000
	// MaxUnitPrice is the largest price a line may carry, in the shop currency.
	MaxUnitPrice = 1e12
)

// LineItem is one product row in a browser cart. The JSON names match the
// layout the storefront has always persisted under the cart slot.
type LineItem struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"price"`
	Quantity  int64   `json:"quantity"`
	ImageRef  string  `json:"image,omitempty"`
}

// ProductInput describes the product being added; quantity is passed separately.
type ProductInput struct {
	ProductID int64
	Name      string
	UnitPrice float64
	ImageRef  string
}

// View is a detached snapshot of a cart together with its derived totals.
type View struct {
	Items      []LineItem `json:"items"`
	TotalPrice float64    `json:"totalPrice"`
	TotalCount int64      `json:"totalCount"`
	IsEmpty    bool       `json:"isEmpty"`
}

// Cart holds line items keyed by product id in insertion order.
// A Cart is not safe for concurrent use.
type Cart struct {
	items []LineItem
	index map[int64]int
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{index: make(map[int64]int)}
}

// FromItems builds a cart from previously stored items. Entries that break the
// cart invariants are dropped, oversized quantities are capped at MaxQuantity
// and duplicate product ids are merged.
func FromItems(items []LineItem) *Cart {
	c := New()
	for _, item := range items {
		if item.ProductID <= 0 || item.Quantity < 1 || !ValidUnitPrice(item.UnitPrice) {
			continue
		}
		item.Quantity = capQuantity(item.Quantity)
		if i, ok := c.index[item.ProductID]; ok {
			c.items[i].Quantity = addQuantity(c.items[i].Quantity, item.Quantity)
			continue
		}
		c.index[item.ProductID] = len(c.items)
		c.items = append(c.items, item)
	}
	return c
}

// ValidUnitPrice reports whether p is a finite price within [0, MaxUnitPrice].
func ValidUnitPrice(p float64) bool {
	return !math.IsNaN(p) && p >= 0 && p <= MaxUnitPrice
}

// AddItem merges quantity into an existing entry or appends a new one.
// Non-positive quantities count as 1 and a line never grows past MaxQuantity.
// Name, price and image of an existing entry are never overwritten.
func (c *Cart) AddItem(in ProductInput, quantity int64) {
	quantity = capQuantity(quantity)
	if i, ok := c.index[in.ProductID]; ok {
		c.items[i].Quantity = addQuantity(c.items[i].Quantity, quantity)
		return
	}
	c.index[in.ProductID] = len(c.items)
	c.items = append(c.items, LineItem{
		ProductID: in.ProductID,
		Name:      in.Name,
		UnitPrice: in.UnitPrice,
		Quantity:  quantity,
		ImageRef:  in.ImageRef,
	})
}

// DecrementItem lowers the quantity by one and drops the entry at zero.
func (c *Cart) DecrementItem(productID int64) {
	i, ok := c.index[productID]
	if !ok {
		return
	}
	if c.items[i].Quantity <= 1 {
		c.RemoveItem(productID)
		return
	}
	c.items[i].Quantity--
}

// RemoveItem drops the entry for productID. Unknown ids are ignored.
func (c *Cart) RemoveItem(productID int64) {
	i, ok := c.index[productID]
	if !ok {
		return
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	delete(c.index, productID)
	for j := i; j < len(c.items); j++ {
		c.index[c.items[j].ProductID] = j
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.items = nil
	c.index = make(map[int64]int)
}

// Subtract takes the given lines out of the cart by quantity, typically the
// snapshot an order was placed for. Anything added on top of that snapshot
// stays, and lines that reach zero are removed.
func (c *Cart) Subtract(lines []LineItem) {
	for _, line := range lines {
		i, ok := c.index[line.ProductID]
		if !ok {
			continue
		}
		if c.items[i].Quantity <= line.Quantity {
			c.RemoveItem(line.ProductID)
			continue
		}
		c.items[i].Quantity -= line.Quantity
	}
}

// TotalPrice is the sum of unit price times quantity over all lines.
func (c *Cart) TotalPrice() float64 {
	var total float64
	for _, item := range c.items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}

// TotalCount is the sum of quantities over all lines.
func (c *Cart) TotalCount() int64 {
	var count int64
	for _, item := range c.items {
		count += item.Quantity
	}
	return count
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// Len is the number of distinct products.
func (c *Cart) Len() int {
	return len(c.items)
}

// Items returns a copy of the line items in display order.
func (c *Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// View snapshots the cart with its totals.
func (c *Cart) View() View {
	return View{
		Items:      c.Items(),
		TotalPrice: c.TotalPrice(),
		TotalCount: c.TotalCount(),
		IsEmpty:    c.IsEmpty(),
	}
}

func capQuantity(q int64) int64 {
	if q < 1 {
		return 1
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

// addQuantity expects both operands in [1, MaxQuantity].
func addQuantity(a, b int64) int64 {
	if a > MaxQuantity-b {
		return MaxQuantity
	}
	return a + b
}
