package expense

import "strings"

// Category is one of a closed, configurable set of expense categories. The
// default set mirrors the company expense policy; deployments may extend it
// through configuration, which is validated at load time.
type Category string

const (
	CategoryTravel        Category = "Travel"
	CategoryMeals         Category = "Meals"
	CategoryEntertainment Category = "Entertainment"
	CategorySupplies      Category = "Supplies"
	CategorySoftware      Category = "Software"
	CategoryShopping      Category = "Shopping"
	CategoryOther         Category = "Other"
)

// DefaultCategories returns the built-in closed category set
func DefaultCategories() []Category {
	return []Category{
		CategoryTravel,
		CategoryMeals,
		CategoryEntertainment,
		CategorySupplies,
		CategorySoftware,
		CategoryShopping,
		CategoryOther,
	}
}

// Key returns the case-folded form used for matching
func (c Category) Key() string {
	return strings.ToLower(strings.TrimSpace(string(c)))
}

// Matches reports whether the category corresponds to an expected category
// keyword (e.g. submitted "Travel & Transport" matches expected "travel")
func (c Category) Matches(expected string) bool {
	return strings.Contains(c.Key(), strings.ToLower(expected))
}
