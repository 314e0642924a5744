// Package client talks to the recipehub API and the Forkify search API and
// keeps the local cookbook state (favorites, session, community cache).
package client

import (
	"fmt"
	"strconv"
	"strings"

	"recipehub/models"
)

type Source string

const (
	SourceCommunity Source = "community"
	SourceForkify   Source = "forkify"
)

// RecipeID identifies a recipe across both backends. Its text form is
// "<source>:<id>".
type RecipeID struct {
	Source Source
	ID     string
}

func (id RecipeID) String() string {
	return string(id.Source) + ":" + id.ID
}

func (id RecipeID) IsZero() bool { return id.ID == "" }

func (id RecipeID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *RecipeID) UnmarshalText(b []byte) error {
	parsed, err := ParseRecipeID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseRecipeID accepts "community:<hex>", "forkify:<id>", the older
// "community_<hex>" form, and a bare id, which is taken to be a Forkify id.
func ParseRecipeID(s string) (RecipeID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RecipeID{}, fmt.Errorf("empty recipe id")
	}
	if rest, ok := strings.CutPrefix(s, "community_"); ok {
		s = "community:" + rest
	}
	src, id, found := strings.Cut(s, ":")
	if !found {
		return RecipeID{Source: SourceForkify, ID: s}, nil
	}
	if id == "" {
		return RecipeID{}, fmt.Errorf("recipe id %q has no id part", s)
	}
	switch Source(src) {
	case SourceCommunity, SourceForkify:
		return RecipeID{Source: Source(src), ID: id}, nil
	}
	return RecipeID{}, fmt.Errorf("unknown recipe source %q", src)
}

// Recipe is the normalized form of a community or Forkify recipe.
type Recipe struct {
	ID           RecipeID `json:"id"`
	Title        string   `json:"title"`
	Publisher    string   `json:"publisher,omitempty"`
	ImageURL     string   `json:"imageUrl,omitempty"`
	SourceURL    string   `json:"sourceUrl,omitempty"`
	CookingTime  int      `json:"cookingTime,omitempty"`
	Servings     int      `json:"servings,omitempty"`
	Difficulty   string   `json:"difficulty,omitempty"`
	Ingredients  []string `json:"ingredients,omitempty"`
	Instructions []string `json:"instructions,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Rating       float64  `json:"rating,omitempty"`
	Reviews      int      `json:"reviews,omitempty"`
}

// FromCommunity normalizes a recipe from the API service. Relative image
// paths are resolved against baseURL when it is set.
func FromCommunity(r models.CommunityRecipe, baseURL string) Recipe {
	img := r.Image
	if strings.HasPrefix(img, "/") && baseURL != "" {
		img = strings.TrimRight(baseURL, "/") + img
	}
	return Recipe{
		ID:           RecipeID{Source: SourceCommunity, ID: r.ID.Hex()},
		Title:        r.Title,
		ImageURL:     img,
		CookingTime:  r.CookingTime,
		Servings:     r.Servings,
		Difficulty:   string(r.Difficulty),
		Ingredients:  append([]string(nil), r.Ingredients...),
		Instructions: append([]string(nil), r.Instructions...),
		Tags:         append([]string(nil), r.Tags...),
		Rating:       r.Rating,
		Reviews:      len(r.Reviews),
	}
}

func FromCommunityList(rs []models.CommunityRecipe, baseURL string) []Recipe {
	out := make([]Recipe, 0, len(rs))
	for _, r := range rs {
		out = append(out, FromCommunity(r, baseURL))
	}
	return out
}

type ForkifyIngredient struct {
	Quantity    *float64 `json:"quantity"`
	Unit        string   `json:"unit"`
	Description string   `json:"description"`
}

func (i ForkifyIngredient) String() string {
	var parts []string
	if i.Quantity != nil {
		parts = append(parts, strconv.FormatFloat(*i.Quantity, 'f', -1, 64))
	}
	if i.Unit != "" {
		parts = append(parts, i.Unit)
	}
	if i.Description != "" {
		parts = append(parts, i.Description)
	}
	return strings.Join(parts, " ")
}

// ForkifyRecipe is the Forkify wire format. Search results carry only id,
// title, publisher and image_url.
type ForkifyRecipe struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Publisher   string              `json:"publisher"`
	ImageURL    string              `json:"image_url"`
	SourceURL   string              `json:"source_url"`
	CookingTime int                 `json:"cooking_time"`
	Servings    int                 `json:"servings"`
	Ingredients []ForkifyIngredient `json:"ingredients"`
}

func FromForkify(r ForkifyRecipe) Recipe {
	out := Recipe{
		ID:          RecipeID{Source: SourceForkify, ID: r.ID},
		Title:       r.Title,
		Publisher:   r.Publisher,
		ImageURL:    r.ImageURL,
		SourceURL:   r.SourceURL,
		CookingTime: r.CookingTime,
		Servings:    r.Servings,
	}
	for _, ing := range r.Ingredients {
		if s := ing.String(); s != "" {
			out.Ingredients = append(out.Ingredients, s)
		}
	}
	return out
}
