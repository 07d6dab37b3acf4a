package client

import (
	"errors"
	"fmt"
)

// Client-local validation errors, raised before any request is sent.
var (
	ErrNoItems             = errors.New("an order needs at least one item")
	ErrDuplicateProduct    = errors.New("product already in the order")
	ErrNonPositiveQuantity = errors.New("quantity must be greater than zero")
)

// HeldQuantity returns how many units of a product the given order already
// holds. Zero when editing is nil (creating a new order).
func HeldQuantity(editing *Order, productID uint) int {
	if editing == nil {
		return 0
	}
	for _, item := range editing.Items {
		if item.ProductID == productID {
			return item.Quantity
		}
	}
	return 0
}

// MaxQuantity is the largest quantity a form may request for a product:
// reported stock plus whatever the edited order already holds, so decrease
// and no-op edits are never falsely rejected.
func MaxQuantity(p Product, editing *Order) int {
	return p.Stock + HeldQuantity(editing, p.ID)
}

// ClampQuantity caps a requested quantity at MaxQuantity. The second return
// reports whether clamping happened, so the UI can warn; the clamped request
// is what gets sent, never the excessive value.
func ClampQuantity(p Product, requested int, editing *Order) (int, bool) {
	max := MaxQuantity(p, editing)
	if requested > max {
		return max, true
	}
	return requested, false
}

// ValidateItems runs the structural checks on an order's item list: at
// least one item, positive quantities, no product listed twice.
func ValidateItems(items []OrderItemInput) error {
	if len(items) == 0 {
		return ErrNoItems
	}

	seen := make(map[uint]bool, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return ErrNonPositiveQuantity
		}
		if seen[item.ProductID] {
			return ErrDuplicateProduct
		}
		seen[item.ProductID] = true
	}
	return nil
}

// CheckStock verifies every requested quantity against effective stock.
// Advisory: the backend remains the authority and may still reject.
func CheckStock(items []OrderItemInput, products []Product, editing *Order) error {
	byID := make(map[uint]Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for _, item := range items {
		p, ok := byID[item.ProductID]
		if !ok {
			return fmt.Errorf("unknown product %d", item.ProductID)
		}
		if max := MaxQuantity(p, editing); item.Quantity > max {
			return fmt.Errorf("only %d items in stock for %s", max, p.Name)
		}
	}
	return nil
}
