package interview

import (
	"fmt"
	"strings"
)

// Category is the kind of interview the questions are tailored to.
type Category string

const (
	CategoryHR         Category = "HR"
	CategoryManagerial Category = "Managerial"
	CategoryGeneral    Category = "General"
	CategoryTechnical  Category = "Technical"

	// CategoryPlaceholder is what a selector shows before a real choice is made.
	CategoryPlaceholder = "Select..."
)

// Categories lists the selectable categories in display order.
func Categories() []Category {
	return []Category{CategoryHR, CategoryManagerial, CategoryGeneral, CategoryTechnical}
}

// ParseCategory resolves a category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	name := strings.TrimSpace(s)
	if name == "" || name == CategoryPlaceholder {
		return "", fmt.Errorf("%w: a category must be chosen", ErrInvalidCategory)
	}

	for _, c := range Categories() {
		if strings.EqualFold(name, string(c)) {
			return c, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, name)
}

// Valid reports whether c is one of the selectable categories.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string { return string(c) }
