package models

import "math"

type UserStats struct {
	TotalRecipes  int     `json:"totalRecipes"`
	TotalReviews  int     `json:"totalReviews"`
	AverageRating float64 `json:"averageRating"`
	FavoriteTag   string  `json:"favoriteTag"`
}

// ComputeStats summarises the recipes a user authored. Recipes with a zero
// rating are left out of the average. On a tag count tie the tag seen first
// wins, so recipes must be passed in creation order.
func ComputeStats(recipes []CommunityRecipe) UserStats {
	stats := UserStats{TotalRecipes: len(recipes)}

	var ratingSum float64
	var rated int
	counts := make(map[string]int)
	var seen []string
	for _, r := range recipes {
		stats.TotalReviews += len(r.Reviews)
		if r.Rating > 0 {
			ratingSum += r.Rating
			rated++
		}
		for _, t := range r.Tags {
			if counts[t] == 0 {
				seen = append(seen, t)
			}
			counts[t]++
		}
	}
	best := 0
	for _, t := range seen {
		if counts[t] > best {
			best = counts[t]
			stats.FavoriteTag = t
		}
	}
	if rated > 0 {
		stats.AverageRating = math.Round(ratingSum/float64(rated)*10) / 10
	}
	return stats
}
