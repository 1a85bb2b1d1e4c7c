package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Product is the storefront's view of a catalog item. JSON field names follow the
// backend contract (camelCase).
type Product struct {
	ID            int64           `json:"id,omitempty"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	ImageURL      string          `json:"imageUrl,omitempty"`
	StockQuantity int             `json:"stockQuantity"`
	Category      string          `json:"category"`
	Brand         string          `json:"brand"`
	Active        bool            `json:"active"`
}

// ValidationError is a form-local failure caught before anything is sent to the
// gateway. Fields maps a form field to its message. The account forms reuse it.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range fieldOrder {
		if msg, ok := e.Fields[f]; ok {
			parts = append(parts, msg)
		}
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var fieldOrder = []string{
	"name", "description", "price", "stockQuantity", "category", "brand",
	"username", "email", "password",
}

// Validate checks the admin product form before it is submitted.
func Validate(p Product) error {
	fields := map[string]string{}
	if strings.TrimSpace(p.Name) == "" {
		fields["name"] = "Name is required"
	}
	if strings.TrimSpace(p.Description) == "" {
		fields["description"] = "Description is required"
	}
	if !p.Price.IsPositive() {
		fields["price"] = "Price must be positive"
	}
	if p.StockQuantity < 0 {
		fields["stockQuantity"] = "Stock quantity must be zero or more"
	}
	if strings.TrimSpace(p.Category) == "" {
		fields["category"] = "Category is required"
	}
	if strings.TrimSpace(p.Brand) == "" {
		fields["brand"] = "Brand is required"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
