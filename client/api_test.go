package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"recipehub/auth"
	"recipehub/db"
	"recipehub/middleware"
	"recipehub/ratelim"
	"recipehub/recipes"
	"recipehub/routes"
	"recipehub/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) *httptest.Server {
	t.Helper()
	log := zap.NewNop()
	store := db.NewMemoryStore()
	tokens := auth.NewTokenManager("client-test-secret", time.Hour)
	router := routes.NewRouter(routes.Deps{
		Recipes: recipes.NewHandler(store, log),
		Users:   users.NewHandler(store, store, tokens, log),
		Auth:    middleware.NewAuth(store, tokens, log),
		Limiter: ratelim.NewRateLimiter(1000, 1000),
		Store:   store,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestAPIFlow(t *testing.T) {
	srv := newTestService(t)
	ctx := context.Background()
	api := NewAPI(srv.URL+"/api/", nil)
	assert.Equal(t, srv.URL, api.BaseURL())

	reg, err := api.Register(ctx, "pat", "pat@example.com", "hunter22")
	require.NoError(t, err)
	require.NotEmpty(t, reg.Token)

	_, err = api.Register(ctx, "pat2", "pat@example.com", "hunter22")
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "User already exists", apiErr.Message)

	_, err = api.CreateRecipe(ctx, RecipeInput{Title: "No auth", Ingredients: []string{"x"}, Instructions: []string{"y"}})
	assert.True(t, IsStatus(err, http.StatusUnauthorized))

	login, err := api.Login(ctx, "pat@example.com", "hunter22")
	require.NoError(t, err)
	api.SetToken(login.Token)

	created, err := api.CreateRecipe(ctx, RecipeInput{
		Title:        "Shakshuka",
		Ingredients:  []string{"eggs", "tomatoes"},
		Instructions: []string{"Simmer sauce", "Poach eggs"},
		CookingTime:  25,
		Tags:         []string{"Brunch"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"brunch"}, created.Tags)
	assert.Equal(t, 4, created.Servings)

	updated, err := api.UpdateRecipe(ctx, created.ID.Hex(), RecipeInput{Servings: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Servings)
	assert.Equal(t, "Shakshuka", updated.Title)

	list, err := api.ListRecipes(ctx, ListOptions{MaxTime: 30, Tags: []string{"brunch"}})
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = api.AddReview(ctx, created.ID.Hex(), 9, "too good")
	assert.True(t, IsStatus(err, http.StatusBadRequest))
	reviewed, err := api.AddReview(ctx, created.ID.Hex(), 5, "lovely")
	require.NoError(t, err)
	assert.InDelta(t, 5.0, reviewed.Rating, 1e-9)

	saved, err := api.SaveRecipe(ctx, created.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, []string{created.ID.Hex()}, saved)

	savedRecipes, err := api.SavedRecipes(ctx)
	require.NoError(t, err)
	require.Len(t, savedRecipes, 1)
	norm := FromCommunity(savedRecipes[0], api.BaseURL())
	assert.Equal(t, RecipeID{Source: SourceCommunity, ID: created.ID.Hex()}, norm.ID)
	assert.Equal(t, 1, norm.Reviews)

	stats, err := api.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalRecipes)
	assert.Equal(t, "brunch", stats.FavoriteTag)

	tags, err := api.Tags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"brunch"}, tags)

	suggestions, err := api.Autocomplete(ctx, "shak")
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, created.ID.Hex(), suggestions[0].ID)

	card, err := api.RecipeCard(ctx, created.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(card[:4]))

	remaining, err := api.RemoveRecipe(ctx, created.ID.Hex())
	require.NoError(t, err)
	assert.Empty(t, remaining)

	require.NoError(t, api.DeleteRecipe(ctx, created.ID.Hex()))
	_, err = api.GetRecipe(ctx, created.ID.Hex())
	assert.True(t, IsStatus(err, http.StatusNotFound))

	profile, err := api.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pat", profile.Username)
}

func TestForkifyClient(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/recipes", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("search") == "nothing" {
			w.Write([]byte(`{"status":"success","results":0,"data":{"recipes":[]}}`))
			return
		}
		w.Write([]byte(`{"status":"success","results":1,"data":{"recipes":[
			{"publisher":"Closet Cooking","image_url":"http://img/1.jpg","title":"Pizza Dip","id":"5ed6604591c37cdc054bc886"}]}}`))
	})
	mux.HandleFunc("/api/v2/recipes/5ed6604591c37cdc054bc886", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","data":{"recipe":{
			"id":"5ed6604591c37cdc054bc886","title":"Pizza Dip","publisher":"Closet Cooking",
			"source_url":"http://example.com/pizza-dip","image_url":"http://img/1.jpg",
			"servings":4,"cooking_time":45,
			"ingredients":[{"quantity":0.5,"unit":"cup","description":"mozzarella"},{"quantity":null,"unit":"","description":"basil"}]}}}`))
	})
	mux.HandleFunc("/api/v2/recipes/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"fail","message":"Invalid _id: missing"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	fk := NewForkify(srv.URL+"/api/v2/", nil)
	ctx := context.Background()

	results, err := fk.Search(ctx, "pizza")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, RecipeID{Source: SourceForkify, ID: "5ed6604591c37cdc054bc886"}, results[0].ID)
	assert.Equal(t, "Closet Cooking", results[0].Publisher)

	none, err := fk.Search(ctx, "nothing")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	r, err := fk.Get(ctx, "5ed6604591c37cdc054bc886")
	require.NoError(t, err)
	assert.Equal(t, 45, r.CookingTime)
	assert.Equal(t, []string{"0.5 cup mozzarella", "basil"}, r.Ingredients)

	_, err = fk.Get(ctx, "missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid _id: missing", apiErr.Message)
}
