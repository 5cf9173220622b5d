package domain

import (
	"fmt"
	"strings"
)

// Category is a topical document class. Its integer value is the class index
// used by the feature model and the classifier, so the order of the constants
// below is part of the persisted model contract.
type Category int

const (
	CategoryLegal Category = iota
	CategoryHR
	CategoryFinance
	CategoryMedical
	CategoryTechnical
)

// NumCategories is the size of the fixed category set.
const NumCategories = 5

var categoryNames = [NumCategories]string{
	CategoryLegal:     "Legal",
	CategoryHR:        "HR",
	CategoryFinance:   "Finance",
	CategoryMedical:   "Medical",
	CategoryTechnical: "Technical",
}

// Categories returns every category in index order.
func Categories() []Category {
	out := make([]Category, NumCategories)
	for i := range out {
		out[i] = Category(i)
	}
	return out
}

// CategoryNames returns the display names in index order.
func CategoryNames() []string {
	out := make([]string, NumCategories)
	copy(out, categoryNames[:])
	return out
}

func (c Category) Valid() bool {
	return c >= 0 && int(c) < NumCategories
}

func (c Category) Index() int {
	return int(c)
}

func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// CategoryFromIndex is the inverse of Category.Index.
func CategoryFromIndex(idx int) (Category, error) {
	c := Category(idx)
	if !c.Valid() {
		return 0, fmt.Errorf("category index out of range: %d", idx)
	}
	return c, nil
}

// ParseCategory resolves a display name case-insensitively.
func ParseCategory(name string) (Category, error) {
	name = strings.TrimSpace(name)
	for i, n := range categoryNames {
		if strings.EqualFold(n, name) {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", name)
}

// CheckClassOrder reports an error unless names matches the fixed category
// order exactly. Model artifacts carry their class list and are rejected when
// it drifts.
func CheckClassOrder(names []string) error {
	if len(names) != NumCategories {
		return fmt.Errorf("class list has %d entries, want %d", len(names), NumCategories)
	}
	for i, n := range names {
		if n != categoryNames[i] {
			return fmt.Errorf("class %d is %q, want %q", i, n, categoryNames[i])
		}
	}
	return nil
}
