package category

import (
	"fmt"
	"strings"
)

// Category is the kind of place a user searches for.
type Category string

// Supported categories.
const (
	Restaurant   Category = "restaurant"
	Cafe         Category = "cafe"
	Hotel        Category = "hotel"
	Park         Category = "park"
	ShoppingMall Category = "shopping_mall"
)

var labels = map[Category]string{
	Restaurant:   "Restaurant",
	Cafe:         "Cafe",
	Hotel:        "Hotel",
	Park:         "Park",
	ShoppingMall: "Shopping Mall",
}

// All returns the supported categories in form order.
func All() []Category {
	return []Category{Restaurant, Cafe, Hotel, Park, ShoppingMall}
}

// IsValid checks if the category is one of the supported values.
func (c Category) IsValid() bool {
	_, ok := labels[c]
	return ok
}

// Label returns the human-readable name ("Shopping Mall").
func (c Category) Label() string {
	if l, ok := labels[c]; ok {
		return l
	}
	return string(c)
}

// Parse accepts a slug ("shopping_mall") or a label ("Shopping Mall"), case-insensitive.
func Parse(s string) (Category, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	c := Category(norm)
	if !c.IsValid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}
