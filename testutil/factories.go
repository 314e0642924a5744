// Package testutil provides seeded fixture factories shared by package tests.
package testutil

import (
	"fmt"

	"recipehub/models"

	"github.com/brianvoe/gofakeit/v6"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Factory struct {
	faker *gofakeit.Faker
	seq   int
}

func NewFactory(seed int64) *Factory {
	return &Factory{faker: gofakeit.New(seed)}
}

// RecipeOption tweaks a generated recipe.
type RecipeOption func(*models.CommunityRecipe)

func WithTitle(title string) RecipeOption {
	return func(r *models.CommunityRecipe) { r.Title = title }
}

func WithTags(tags ...string) RecipeOption {
	return func(r *models.CommunityRecipe) { r.Tags = tags }
}

func WithCookingTime(minutes int) RecipeOption {
	return func(r *models.CommunityRecipe) { r.CookingTime = minutes }
}

func WithDifficulty(d models.Difficulty) RecipeOption {
	return func(r *models.CommunityRecipe) { r.Difficulty = d }
}

func WithRating(rating float64) RecipeOption {
	return func(r *models.CommunityRecipe) { r.Rating = rating }
}

// Recipe builds a valid, unsaved recipe owned by owner.
func (f *Factory) Recipe(owner primitive.ObjectID, opts ...RecipeOption) *models.CommunityRecipe {
	f.seq++
	r := &models.CommunityRecipe{
		Title:        fmt.Sprintf("%s %d", f.faker.Dinner(), f.seq),
		Ingredients:  []string{f.faker.Vegetable(), f.faker.Fruit(), "salt"},
		Instructions: []string{f.faker.Sentence(6), f.faker.Sentence(8)},
		CookingTime:  f.faker.IntRange(10, 90),
		Servings:     f.faker.IntRange(1, 8),
		Difficulty:   models.Difficulty(f.faker.RandomString([]string{"Easy", "Medium", "Hard"})),
		Tags:         []string{"dinner"},
		User:         owner,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// User builds an unsaved user. Password is stored as given.
func (f *Factory) User() *models.User {
	f.seq++
	return &models.User{
		Username: fmt.Sprintf("%s%d", f.faker.Username(), f.seq),
		Email:    fmt.Sprintf("user%d.%s", f.seq, f.faker.Email()),
		Password: f.faker.Password(true, true, true, false, false, 12),
	}
}

func (f *Factory) ReviewText() string {
	return f.faker.Sentence(10)
}
