package models

import (
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortRating SortOrder = "rating"
	SortTime   SortOrder = "time"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// RecipeFilter narrows a community listing. Zero values mean "no constraint".
type RecipeFilter struct {
	Tags       []string
	Difficulty Difficulty
	MaxTime    *int
	MinRating  *float64
	Search     string
	Owner      primitive.ObjectID
	Sort       SortOrder
	Skip       int64
	Limit      int64
}

// Matches reports whether r satisfies every constraint of f.
func (f RecipeFilter) Matches(r *CommunityRecipe) bool {
	if !f.Owner.IsZero() && r.User != f.Owner {
		return false
	}
	if f.Difficulty != "" && r.Difficulty != f.Difficulty {
		return false
	}
	if f.MaxTime != nil && r.CookingTime > *f.MaxTime {
		return false
	}
	if f.MinRating != nil && r.Rating < *f.MinRating {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(r.Title), strings.ToLower(f.Search)) {
		return false
	}
	for _, want := range f.Tags {
		found := false
		for _, t := range r.Tags {
			if t == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// SortRecipes orders recipes in place the way the store would.
func SortRecipes(recipes []CommunityRecipe, order SortOrder) {
	newer := func(a, b *CommunityRecipe) bool {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID.Hex() > b.ID.Hex()
		}
		return a.CreatedAt.After(b.CreatedAt)
	}
	sort.SliceStable(recipes, func(i, j int) bool {
		a, b := &recipes[i], &recipes[j]
		switch order {
		case SortRating:
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
		case SortTime:
			if a.CookingTime != b.CookingTime {
				return a.CookingTime < b.CookingTime
			}
		}
		return newer(a, b)
	})
}

func ParseSortOrder(s string) (SortOrder, bool) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortNewest:
		return SortNewest, true
	case SortRating:
		return SortRating, true
	case SortTime:
		return SortTime, true
	}
	return "", false
}
