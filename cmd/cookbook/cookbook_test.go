package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"recipehub/client"
	"recipehub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    format
		wantErr bool
	}{
		{in: "table", want: formatTable},
		{in: "JSON", want: formatJSON},
		{in: " yaml ", want: formatYAML},
		{in: "xml", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func sampleRecipes() []client.Recipe {
	return []client.Recipe{
		{ID: client.RecipeID{Source: client.SourceForkify, ID: "f1"}, Title: "Pizza Dip", Publisher: "Closet Cooking", CookingTime: 45},
		{ID: client.RecipeID{Source: client.SourceCommunity, ID: "c1"}, Title: "Stew", Rating: 4.5, Reviews: 2},
	}
}

func TestPrinterTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newPrinter(&buf, formatTable).recipes(sampleRecipes()))
	out := buf.String()
	assert.Contains(t, out, "forkify:f1")
	assert.Contains(t, out, "45 min")
	assert.Contains(t, out, "4.5 (2)")

	buf.Reset()
	require.NoError(t, newPrinter(&buf, formatTable).recipes(nil))
	assert.Equal(t, "No recipes found.\n", buf.String())
}

func TestPrinterStructured(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newPrinter(&buf, formatJSON).recipes(sampleRecipes()))
	assert.Contains(t, buf.String(), `"id": "community:c1"`)

	buf.Reset()
	require.NoError(t, newPrinter(&buf, formatYAML).stats(models.UserStats{TotalRecipes: 3, FavoriteTag: "soup"}))
	assert.Contains(t, buf.String(), "favoritetag: soup")

	buf.Reset()
	newPrinter(&buf, formatJSON).message("not shown")
	assert.Empty(t, buf.String())
}

func TestFavCommandTogglesLocalFavorite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","data":{"recipe":{"id":"abc","title":"Tacos","publisher":"Test","cooking_time":20,"servings":2,"ingredients":[]}}}`))
	}))
	defer srv.Close()

	statePath := filepath.Join(t.TempDir(), "state.json")
	args := []string{"cookbook", "--state", statePath, "--forkify-url", srv.URL, "--format", "json", "fav", "forkify:abc"}

	require.NoError(t, rootCmd().Run(context.Background(), args))
	st, err := client.LoadState(statePath)
	require.NoError(t, err)
	favs := st.Favorites()
	require.Len(t, favs, 1)
	assert.Equal(t, "Tacos", favs[0].Title)

	require.NoError(t, rootCmd().Run(context.Background(), args))
	st, err = client.LoadState(statePath)
	require.NoError(t, err)
	assert.Empty(t, st.Favorites())
}

func TestCommunityArgRejectsForkifyIDs(t *testing.T) {
	err := rootCmd().Run(context.Background(), []string{"cookbook", "--state", filepath.Join(t.TempDir(), "s.json"), "save", "forkify:abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a community recipe")
}
