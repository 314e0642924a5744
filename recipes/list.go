package recipes

import (
	"context"
	"net/http"
	"strings"

	"recipehub/autocom"
	"recipehub/models"
	"recipehub/rdx"
	"recipehub/utils"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

const suggestionLimit = 10

// parseFilter builds a listing filter from the query string.
func parseFilter(r *http.Request) (models.RecipeFilter, error) {
	q := r.URL.Query()
	var f models.RecipeFilter

	if raw := q.Get("tags"); raw != "" {
		tags, err := utils.ParseList(raw)
		if err != nil {
			return f, err
		}
		f.Tags = models.CleanTags(tags)
	}
	if raw := strings.TrimSpace(q.Get("difficulty")); raw != "" {
		d, err := models.ParseDifficulty(raw)
		if err != nil {
			return f, err
		}
		f.Difficulty = d
	}
	if n, ok, err := utils.QueryInt(r, "maxTime"); err != nil {
		return f, err
	} else if ok {
		f.MaxTime = &n
	}
	if v, ok, err := utils.QueryFloat(r, "minRating"); err != nil {
		return f, err
	} else if ok {
		f.MinRating = &v
	}
	f.Search = strings.TrimSpace(q.Get("search"))

	order, ok := models.ParseSortOrder(q.Get("sort"))
	if !ok {
		return f, errBadSort
	}
	f.Sort = order

	skip, limit, err := utils.ParsePagination(r, models.MaxPageSize)
	if err != nil {
		return f, err
	}
	f.Skip, f.Limit = skip, limit
	return f, nil
}

type filterError string

func (e filterError) Error() string { return string(e) }

const errBadSort = filterError("sort must be one of newest, rating, time")

// GET /api/recipes/community
func (h *Handler) ListRecipes(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	filter, err := parseFilter(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	recipes, err := h.store.ListRecipes(ctx, filter)
	if err != nil {
		h.log.Error("list recipes", zap.Error(err), zap.String("requestId", utils.RequestID(r)))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch recipes")
		return
	}
	if recipes == nil {
		recipes = []models.CommunityRecipe{}
	}
	utils.RespondWithJSON(w, http.StatusOK, recipes)
}

// GET /api/recipes/tags
func (h *Handler) GetRecipeTags(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var tags []string
	if h.cache.GetJSON(ctx, rdx.TagsKey, &tags) {
		utils.RespondWithJSON(w, http.StatusOK, tags)
		return
	}

	tags, err := h.store.RecipeTags(ctx)
	if err != nil {
		h.log.Error("list tags", zap.Error(err), zap.String("requestId", utils.RequestID(r)))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch tags")
		return
	}
	h.cache.SetJSON(ctx, rdx.TagsKey, tags)
	utils.RespondWithJSON(w, http.StatusOK, tags)
}

// GET /api/recipes/autocomplete?q=
func (h *Handler) Autocomplete(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	prefix := strings.TrimSpace(r.URL.Query().Get("q"))
	if prefix == "" {
		utils.RespondWithJSON(w, http.StatusOK, []autocom.Suggestion{})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if h.index.Enabled() {
		suggestions, err := h.index.Suggest(ctx, prefix, suggestionLimit)
		if err == nil {
			utils.RespondWithJSON(w, http.StatusOK, suggestions)
			return
		}
		h.log.Warn("autocomplete index unavailable, searching store", zap.Error(err))
	}

	recipes, err := h.store.ListRecipes(ctx, models.RecipeFilter{Search: prefix, Limit: suggestionLimit})
	if err != nil {
		h.log.Error("autocomplete search", zap.Error(err), zap.String("requestId", utils.RequestID(r)))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch suggestions")
		return
	}
	suggestions := make([]autocom.Suggestion, 0, len(recipes))
	for _, rc := range recipes {
		suggestions = append(suggestions, autocom.Suggestion{ID: rc.ID.Hex(), Title: rc.Title})
	}
	utils.RespondWithJSON(w, http.StatusOK, suggestions)
}
