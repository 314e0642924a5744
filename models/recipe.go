package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

const (
	DefaultCookingTime = 30
	DefaultServings    = 4
	DefaultDifficulty  = Medium

	MinRating = 1
	MaxRating = 5
)

// ParseDifficulty accepts any casing of Easy, Medium or Hard.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	}
	return "", fmt.Errorf("invalid difficulty %q: must be Easy, Medium or Hard", s)
}

type Review struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	Text      string             `json:"text" bson:"text"`
	Rating    int                `json:"rating" bson:"rating"`
	User      primitive.ObjectID `json:"user" bson:"user"`
	Username  string             `json:"username" bson:"username"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

type CommunityRecipe struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id"`
	Title        string             `json:"title" bson:"title"`
	Ingredients  []string           `json:"ingredients" bson:"ingredients"`
	Instructions []string           `json:"instructions" bson:"instructions"`
	Image        string             `json:"image" bson:"image"`
	Thumbnail    string             `json:"thumbnail,omitempty" bson:"thumbnail,omitempty"`
	CookingTime  int                `json:"cookingTime" bson:"cookingTime"`
	Servings     int                `json:"servings" bson:"servings"`
	Difficulty   Difficulty         `json:"difficulty" bson:"difficulty"`
	Tags         []string           `json:"tags" bson:"tags"`
	Rating       float64            `json:"rating" bson:"rating"`
	Reviews      []Review           `json:"reviews" bson:"reviews"`
	User         primitive.ObjectID `json:"user" bson:"user"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ApplyDefaults fills zero-valued optional fields.
func (r *CommunityRecipe) ApplyDefaults() {
	if r.CookingTime == 0 {
		r.CookingTime = DefaultCookingTime
	}
	if r.Servings == 0 {
		r.Servings = DefaultServings
	}
	if r.Difficulty == "" {
		r.Difficulty = DefaultDifficulty
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if r.Reviews == nil {
		r.Reviews = []Review{}
	}
}

// Normalize trims text fields and drops empty list entries.
func (r *CommunityRecipe) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Ingredients = CleanList(r.Ingredients)
	r.Instructions = CleanList(r.Instructions)
	r.Tags = CleanTags(r.Tags)
}

func (r *CommunityRecipe) Validate() error {
	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	if len(r.Ingredients) == 0 {
		return fmt.Errorf("at least one ingredient is required")
	}
	if len(r.Instructions) == 0 {
		return fmt.Errorf("at least one instruction is required")
	}
	if _, err := ParseDifficulty(string(r.Difficulty)); err != nil {
		return err
	}
	if r.CookingTime <= 0 || r.Servings <= 0 {
		return fmt.Errorf("cookingTime and servings must be positive")
	}
	return nil
}

func (r *CommunityRecipe) OwnedBy(userID primitive.ObjectID) bool {
	return !userID.IsZero() && r.User == userID
}

func (r *CommunityRecipe) HasReviewFrom(userID primitive.ObjectID) bool {
	for _, rv := range r.Reviews {
		if rv.User == userID {
			return true
		}
	}
	return false
}

// AverageRating is the arithmetic mean of the review ratings, 0 without reviews.
func AverageRating(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, rv := range reviews {
		sum += rv.Rating
	}
	return float64(sum) / float64(len(reviews))
}

func CleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// CleanTags lowercases, trims and de-duplicates tags, keeping first-seen order.
func CleanTags(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// RecipeUpdate carries replace-if-present fields for an edit.
type RecipeUpdate struct {
	Title        *string
	Ingredients  []string
	Instructions []string
	CookingTime  *int
	Servings     *int
	Difficulty   *Difficulty
	Tags         []string
	Image        *string
	Thumbnail    *string
}

func (u RecipeUpdate) Empty() bool {
	return u.Title == nil && u.Ingredients == nil && u.Instructions == nil &&
		u.CookingTime == nil && u.Servings == nil && u.Difficulty == nil &&
		u.Tags == nil && u.Image == nil && u.Thumbnail == nil
}

// Normalize trims and cleans the present fields in place.
func (u *RecipeUpdate) Normalize() {
	if u.Title != nil {
		t := strings.TrimSpace(*u.Title)
		u.Title = &t
	}
	if u.Ingredients != nil {
		u.Ingredients = CleanList(u.Ingredients)
	}
	if u.Instructions != nil {
		u.Instructions = CleanList(u.Instructions)
	}
	if u.Tags != nil {
		u.Tags = CleanTags(u.Tags)
	}
}

// Apply copies the present fields onto r. The result still needs Validate.
func (u RecipeUpdate) Apply(r *CommunityRecipe) {
	if u.Title != nil {
		r.Title = strings.TrimSpace(*u.Title)
	}
	if u.Ingredients != nil {
		r.Ingredients = CleanList(u.Ingredients)
	}
	if u.Instructions != nil {
		r.Instructions = CleanList(u.Instructions)
	}
	if u.CookingTime != nil {
		r.CookingTime = *u.CookingTime
	}
	if u.Servings != nil {
		r.Servings = *u.Servings
	}
	if u.Difficulty != nil {
		r.Difficulty = *u.Difficulty
	}
	if u.Tags != nil {
		r.Tags = CleanTags(u.Tags)
	}
	if u.Image != nil {
		r.Image = *u.Image
	}
	if u.Thumbnail != nil {
		r.Thumbnail = *u.Thumbnail
	}
}
