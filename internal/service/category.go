package service

import (
	"strings"

	"beckon/internal/domain"
)

// categoryRules is ordered; the first rule with a matching keyword wins.
var categoryRules = []struct {
	category string
	keywords []string
}{
	{domain.CategoryRestaurant, []string{"restaurant", "food", "dinner", "lunch", "brunch", "breakfast"}},
	{domain.CategoryNightlife, []string{"bar", "club", "lounge", "nightlife"}},
	{domain.CategorySalon, []string{"salon", "spa", "hair", "nail"}},
	{domain.CategoryCafe, []string{"cafe", "coffee", "tea"}},
}

// ResolveCategory classifies a free-text query into a service category.
// Deterministic and case-insensitive; unmatched queries fall back to general.
func ResolveCategory(rawQuery string) string {
	normalized := strings.ToLower(rawQuery)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(normalized, kw) {
				return rule.category
			}
		}
	}
	return domain.CategoryGeneral
}
