package db

import (
	"context"
	"testing"
	"time"

	"recipehub/models"
	"recipehub/testutil"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// storeSuite runs the same behavioural checks against every Store implementation.
type storeSuite struct {
	suite.Suite
	newStore func(t *testing.T) Store
	store    Store
	factory  *testutil.Factory
	ctx      context.Context
}

func (s *storeSuite) SetupTest() {
	s.store = s.newStore(s.T())
	s.factory = testutil.NewFactory(42)
	s.ctx = context.Background()
}

func (s *storeSuite) createUser() *models.User {
	u := s.factory.User()
	s.Require().NoError(s.store.CreateUser(s.ctx, u))
	return u
}

func (s *storeSuite) createRecipe(owner primitive.ObjectID, opts ...testutil.RecipeOption) *models.CommunityRecipe {
	r := s.factory.Recipe(owner, opts...)
	s.Require().NoError(s.store.CreateRecipe(s.ctx, r))
	return r
}

func (s *storeSuite) TestCreateRecipeAppliesDefaults() {
	owner := primitive.NewObjectID()
	r := &models.CommunityRecipe{
		Title:        "Toast",
		Ingredients:  []string{"bread"},
		Instructions: []string{"toast it"},
		User:         owner,
	}
	s.Require().NoError(s.store.CreateRecipe(s.ctx, r))

	got, err := s.store.GetRecipe(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(models.DefaultCookingTime, got.CookingTime)
	s.Equal(models.DefaultServings, got.Servings)
	s.Equal(models.Medium, got.Difficulty)
	s.Equal(owner, got.User)
	s.Empty(got.Reviews)
	s.False(got.CreatedAt.IsZero())
}

func (s *storeSuite) TestGetRecipeMissing() {
	_, err := s.store.GetRecipe(s.ctx, primitive.NewObjectID())
	s.ErrorIs(err, ErrNotFound)
}

func (s *storeSuite) TestListRecipesFilters() {
	owner := primitive.NewObjectID()
	quick := s.createRecipe(owner, testutil.WithTitle("Quick Pasta"), testutil.WithCookingTime(20), testutil.WithTags("pasta", "quick"))
	s.createRecipe(owner, testutil.WithTitle("Slow Stew"), testutil.WithCookingTime(180), testutil.WithTags("stew"))
	exact := s.createRecipe(owner, testutil.WithTitle("Pasta Bake"), testutil.WithCookingTime(30), testutil.WithTags("pasta"))

	maxTime := 30
	got, err := s.store.ListRecipes(s.ctx, models.RecipeFilter{MaxTime: &maxTime, Sort: models.SortTime})
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(quick.ID, got[0].ID)
	s.Equal(exact.ID, got[1].ID)

	got, err = s.store.ListRecipes(s.ctx, models.RecipeFilter{Tags: []string{"pasta", "quick"}})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(quick.ID, got[0].ID)

	got, err = s.store.ListRecipes(s.ctx, models.RecipeFilter{Search: "PASTA"})
	s.Require().NoError(err)
	s.Len(got, 2)

	got, err = s.store.ListRecipes(s.ctx, models.RecipeFilter{Search: "(pasta"})
	s.Require().NoError(err)
	s.Empty(got)

	got, err = s.store.ListRecipes(s.ctx, models.RecipeFilter{Limit: 1, Skip: 1})
	s.Require().NoError(err)
	s.Len(got, 1)
}

func (s *storeSuite) TestAddReviewRecomputesRating() {
	owner := s.createUser()
	recipe := s.createRecipe(owner.ID)

	ratings := []int{5, 4, 2}
	var last *models.CommunityRecipe
	for _, rating := range ratings {
		reviewer := primitive.NewObjectID()
		var err error
		last, err = s.store.AddReview(s.ctx, recipe.ID, models.Review{
			Text:     s.factory.ReviewText(),
			Rating:   rating,
			User:     reviewer,
			Username: "reviewer",
		})
		s.Require().NoError(err)
	}
	s.Len(last.Reviews, 3)
	s.InDelta(11.0/3.0, last.Rating, 1e-9)

	minRating := 3.5
	got, err := s.store.ListRecipes(s.ctx, models.RecipeFilter{MinRating: &minRating})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(recipe.ID, got[0].ID)
}

func (s *storeSuite) TestAddReviewOncePerUser() {
	recipe := s.createRecipe(primitive.NewObjectID())
	reviewer := primitive.NewObjectID()

	_, err := s.store.AddReview(s.ctx, recipe.ID, models.Review{Rating: 4, User: reviewer, Text: "nice"})
	s.Require().NoError(err)

	_, err = s.store.AddReview(s.ctx, recipe.ID, models.Review{Rating: 1, User: reviewer, Text: "changed my mind"})
	s.ErrorIs(err, ErrAlreadyReviewed)

	got, err := s.store.GetRecipe(s.ctx, recipe.ID)
	s.Require().NoError(err)
	s.Len(got.Reviews, 1)
	s.Equal(4.0, got.Rating)

	_, err = s.store.AddReview(s.ctx, primitive.NewObjectID(), models.Review{Rating: 3, User: reviewer})
	s.ErrorIs(err, ErrNotFound)
}

func (s *storeSuite) TestUpdateAndDeleteAreOwnerScoped() {
	owner := primitive.NewObjectID()
	intruder := primitive.NewObjectID()
	recipe := s.createRecipe(owner, testutil.WithTitle("Original"))

	title := "Hijacked"
	_, err := s.store.UpdateRecipe(s.ctx, recipe.ID, intruder, models.RecipeUpdate{Title: &title})
	s.ErrorIs(err, ErrForbidden)
	_, err = s.store.DeleteRecipe(s.ctx, recipe.ID, intruder)
	s.ErrorIs(err, ErrForbidden)

	got, err := s.store.GetRecipe(s.ctx, recipe.ID)
	s.Require().NoError(err)
	s.Equal("Original", got.Title)

	title = "Renamed"
	updated, err := s.store.UpdateRecipe(s.ctx, recipe.ID, owner, models.RecipeUpdate{Title: &title})
	s.Require().NoError(err)
	s.Equal("Renamed", updated.Title)
	s.Equal(recipe.Ingredients, updated.Ingredients)

	_, err = s.store.DeleteRecipe(s.ctx, recipe.ID, owner)
	s.Require().NoError(err)
	_, err = s.store.GetRecipe(s.ctx, recipe.ID)
	s.ErrorIs(err, ErrNotFound)

	_, err = s.store.UpdateRecipe(s.ctx, recipe.ID, owner, models.RecipeUpdate{Title: &title})
	s.ErrorIs(err, ErrNotFound)
}

func (s *storeSuite) TestUsers() {
	u := s.createUser()

	dup := s.factory.User()
	dup.Email = u.Email
	s.ErrorIs(s.store.CreateUser(s.ctx, dup), ErrDuplicate)

	exists, err := s.store.UserExists(s.ctx, "nobody@example.com", u.Username)
	s.Require().NoError(err)
	s.True(exists)

	found, err := s.store.FindUserByEmail(s.ctx, "  "+u.Email+" ")
	s.Require().NoError(err)
	s.Equal(u.ID, found.ID)

	_, err = s.store.FindUserByID(s.ctx, primitive.NewObjectID())
	s.ErrorIs(err, ErrNotFound)
}

func (s *storeSuite) TestSavedRecipes() {
	u := s.createUser()
	first := s.createRecipe(u.ID)
	second := s.createRecipe(u.ID)

	saved, err := s.store.SaveRecipe(s.ctx, u.ID, second.ID)
	s.Require().NoError(err)
	s.Equal([]primitive.ObjectID{second.ID}, saved)

	saved, err = s.store.SaveRecipe(s.ctx, u.ID, first.ID)
	s.Require().NoError(err)
	s.Equal([]primitive.ObjectID{second.ID, first.ID}, saved)

	_, err = s.store.SaveRecipe(s.ctx, u.ID, first.ID)
	s.ErrorIs(err, ErrAlreadySaved)

	_, err = s.store.DeleteRecipe(s.ctx, second.ID, u.ID)
	s.Require().NoError(err)
	recipes, err := s.store.GetRecipes(s.ctx, saved)
	s.Require().NoError(err)
	s.Require().Len(recipes, 1)
	s.Equal(first.ID, recipes[0].ID)

	saved, err = s.store.RemoveRecipe(s.ctx, u.ID, first.ID)
	s.Require().NoError(err)
	s.Equal([]primitive.ObjectID{second.ID}, saved)

	_, err = s.store.RemoveRecipe(s.ctx, u.ID, first.ID)
	s.ErrorIs(err, ErrNotSaved)
}

func (s *storeSuite) TestRecipeTags() {
	owner := primitive.NewObjectID()
	s.createRecipe(owner, testutil.WithTags("vegan", "quick"))
	s.createRecipe(owner, testutil.WithTags("quick", "asian"))

	tags, err := s.store.RecipeTags(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"asian", "quick", "vegan"}, tags)
}

func TestMemoryStore(t *testing.T) {
	suite.Run(t, &storeSuite{newStore: func(*testing.T) Store { return NewMemoryStore() }})
}

func TestMemoryStoreHonoursCancelledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.ListRecipes(ctx, models.RecipeFilter{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStoreNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	})
	f := testutil.NewFactory(1)
	owner := primitive.NewObjectID()
	older := f.Recipe(owner)
	newer := f.Recipe(owner)
	require.NoError(t, store.CreateRecipe(context.Background(), older))
	require.NoError(t, store.CreateRecipe(context.Background(), newer))

	got, err := store.ListRecipes(context.Background(), models.RecipeFilter{Owner: owner})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, newer.ID, got[0].ID)
}
