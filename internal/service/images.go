package service

import (
	"context"
	"strings"
)

// ImageResolver maps a dish to a representative image reference. The
// contract is the seam for a real image-generation service: string in,
// string out, bounded time, never fails in the keyword implementation.
type ImageResolver interface {
	Resolve(ctx context.Context, name, description string) (string, error)
}

// categoryImage pairs a keyword with a stock photo of that category.
// Order matters: the first keyword found in the dish name wins.
var categoryImages = []struct {
	keyword string
	url     string
}{
	{"salmon", "https://images.unsplash.com/photo-1467003909585-2f8a72700288?w=400&h=300&fit=crop"},
	{"salad", "https://images.unsplash.com/photo-1546793665-c74683f339c1?w=400&h=300&fit=crop"},
	{"pasta", "https://images.unsplash.com/photo-1551183053-bf91a1d81141?w=400&h=300&fit=crop"},
	{"pizza", "https://images.unsplash.com/photo-1565299624946-b28f40a0ae38?w=400&h=300&fit=crop"},
	{"taco", "https://images.unsplash.com/photo-1551504734-5ee1c4a1479b?w=400&h=300&fit=crop"},
	{"burger", "https://images.unsplash.com/photo-1568901346375-23c9450c58cd?w=400&h=300&fit=crop"},
	{"chicken", "https://images.unsplash.com/photo-1598103442097-8b74394b95c6?w=400&h=300&fit=crop"},
	{"fish", "https://images.unsplash.com/photo-1535399831218-d5bd36d1a6b3?w=400&h=300&fit=crop"},
	{"soup", "https://images.unsplash.com/photo-1547592166-23ac45744acd?w=400&h=300&fit=crop"},
	{"dessert", "https://images.unsplash.com/photo-1563805042-7684c019e1cb?w=400&h=300&fit=crop"},
}

const defaultFoodImage = "https://images.unsplash.com/photo-1504674900247-0877df9cc836?w=400&h=300&fit=crop"

// KeywordImageResolver resolves images by keyword-category matching.
// It is a pure function of the dish name.
type KeywordImageResolver struct{}

// NewKeywordImageResolver returns the keyword-table resolver.
func NewKeywordImageResolver() *KeywordImageResolver {
	return &KeywordImageResolver{}
}

// Resolve returns the first category image whose keyword occurs in the
// dish name, or the generic food image when nothing matches.
func (r *KeywordImageResolver) Resolve(_ context.Context, name, _ string) (string, error) {
	lower := strings.ToLower(name)
	for _, category := range categoryImages {
		if strings.Contains(lower, category.keyword) {
			return category.url, nil
		}
	}
	return defaultFoodImage, nil
}
