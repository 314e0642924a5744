package client

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recipe(src Source, id, title string) Recipe {
	return Recipe{ID: RecipeID{Source: src, ID: id}, Title: title}
}

func TestParseRecipeID(t *testing.T) {
	cases := map[string]RecipeID{
		"community:64b7f0c2e4b0a1a2b3c4d5e6": {SourceCommunity, "64b7f0c2e4b0a1a2b3c4d5e6"},
		"community_64b7f0c2e4b0a1a2b3c4d5e6": {SourceCommunity, "64b7f0c2e4b0a1a2b3c4d5e6"},
		"forkify:5ed6604591c37cdc054bc886":   {SourceForkify, "5ed6604591c37cdc054bc886"},
		"5ed6604591c37cdc054bc886":           {SourceForkify, "5ed6604591c37cdc054bc886"},
	}
	for in, want := range cases {
		got, err := ParseRecipeID(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "  ", "community:", "pinterest:123"} {
		_, err := ParseRecipeID(bad)
		assert.Error(t, err, bad)
	}
}

func TestToggleFavoriteTwiceRestoresList(t *testing.T) {
	st, err := LoadState(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	a := recipe(SourceForkify, "a", "Pizza")
	b := recipe(SourceCommunity, "b", "Soup")
	c := recipe(SourceForkify, "c", "Tacos")
	st.ToggleFavorite(a)
	st.ToggleFavorite(b)
	st.ToggleFavorite(c)
	before := st.Favorites()

	x := recipe(SourceForkify, "x", "Ramen")
	assert.True(t, st.ToggleFavorite(x))
	assert.True(t, st.IsFavorite(x.ID))
	assert.False(t, st.ToggleFavorite(x))
	assert.Equal(t, before, st.Favorites())

	assert.False(t, st.ToggleFavorite(b))
	assert.True(t, st.ToggleFavorite(b))
	assert.Equal(t, []Recipe{a, c, b}, st.Favorites())
}

func TestSameIDDifferentSourceAreDistinct(t *testing.T) {
	st, err := LoadState(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	st.ToggleFavorite(recipe(SourceForkify, "abc", "From search"))
	st.ToggleFavorite(recipe(SourceCommunity, "abc", "From community"))
	assert.Len(t, st.Favorites(), 2)
}

func TestMergeSavedIsUnionByID(t *testing.T) {
	st, err := LoadState(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	local := recipe(SourceForkify, "f1", "Local only")
	shared := recipe(SourceCommunity, "c1", "Both")
	st.ToggleFavorite(local)
	st.ToggleFavorite(shared)

	server := []Recipe{recipe(SourceCommunity, "c1", "Both (server copy)"), recipe(SourceCommunity, "c2", "Server only")}
	merged := st.MergeSaved(server)

	require.Len(t, merged, 3)
	assert.Equal(t, local, merged[0])
	assert.Equal(t, shared, merged[1])
	assert.Equal(t, "c2", merged[2].ID.ID)

	again := st.MergeSaved(server)
	assert.Equal(t, merged, again)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	st, err := LoadState(path)
	require.NoError(t, err)

	fav := recipe(SourceForkify, "f1", "Pasta")
	fav.Ingredients = []string{"0.5 kg pasta"}
	st.ToggleFavorite(fav)
	st.AddCommunity(recipe(SourceCommunity, "c1", "Stew"))
	st.SetSession(&Session{UserID: "u1", Username: "ann", Email: "ann@example.com", Token: "tok"})
	require.NoError(t, st.Save())

	loaded, err := LoadState(path)
	require.NoError(t, err)
	assert.Equal(t, []Recipe{fav}, loaded.Favorites())
	assert.Equal(t, "Stew", loaded.Community()[0].Title)
	require.NotNil(t, loaded.Session())
	assert.Equal(t, "tok", loaded.Session().Token)

	loaded.SetSession(nil)
	require.NoError(t, loaded.Save())
	again, err := LoadState(path)
	require.NoError(t, err)
	assert.Nil(t, again.Session())
}

func TestLoadStateRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := LoadState(path)
	assert.Error(t, err)
}

type fakeSearcher struct {
	mu      sync.Mutex
	calls   map[string]int
	block   map[string]chan struct{}
	results map[string][]Recipe
	err     error
}

func (f *fakeSearcher) Search(ctx context.Context, q string) ([]Recipe, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[q]++
	wait := f.block[q]
	f.mu.Unlock()

	if wait != nil {
		close(wait)
		<-ctx.Done()
		// a late response that must not win
		return []Recipe{recipe(SourceForkify, "late", "Stale " + q)}, nil
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.results[q], nil
}

func TestSearchDiscardsSupersededResults(t *testing.T) {
	started := make(chan struct{})
	fs := &fakeSearcher{
		block:   map[string]chan struct{}{"pizza": started},
		results: map[string][]Recipe{"pasta": {recipe(SourceForkify, "p1", "Pasta")}},
	}
	st, err := LoadState(filepath.Join(t.TempDir(), "state.json"), WithSearcher(fs))
	require.NoError(t, err)

	type outcome struct {
		results []Recipe
		current bool
	}
	first := make(chan outcome, 1)
	go func() {
		r, ok := st.Search(context.Background(), "pizza")
		first <- outcome{r, ok}
	}()
	<-started

	got, current := st.Search(context.Background(), "pasta")
	assert.True(t, current)
	assert.Equal(t, "Pasta", got[0].Title)

	stale := <-first
	assert.False(t, stale.current)
	assert.Nil(t, stale.results)
	assert.Equal(t, []Recipe{recipe(SourceForkify, "p1", "Pasta")}, st.Results())
}

func TestSearchFailureDegradesToEmpty(t *testing.T) {
	fs := &fakeSearcher{err: errors.New("network down")}
	st, err := LoadState(filepath.Join(t.TempDir(), "state.json"), WithSearcher(fs))
	require.NoError(t, err)

	got, current := st.Search(context.Background(), "curry")
	assert.True(t, current)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, st.Results())
}

func TestSearchIgnoresBlankQuery(t *testing.T) {
	fs := &fakeSearcher{}
	st, err := LoadState(filepath.Join(t.TempDir(), "state.json"), WithSearcher(fs))
	require.NoError(t, err)

	_, current := st.Search(context.Background(), "   ")
	assert.True(t, current)
	assert.Zero(t, fs.calls["   "])
	assert.Empty(t, fs.calls)
}
