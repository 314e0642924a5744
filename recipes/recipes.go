package recipes

import (
	"context"
	"net/http"

	"recipehub/filemgr"
	"recipehub/models"
	"recipehub/mq"
	"recipehub/rdx"
	"recipehub/utils"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// GET /api/recipes/community/:id
func (h *Handler) GetRecipe(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := recipeID(w, ps)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var recipe models.CommunityRecipe
	if h.cache.GetJSON(ctx, rdx.RecipeKey(id.Hex()), &recipe) {
		utils.RespondWithJSON(w, http.StatusOK, recipe)
		return
	}

	found, err := h.store.GetRecipe(ctx, id)
	if err != nil {
		h.storeError(w, r, err, "fetch")
		return
	}
	h.cache.SetJSON(ctx, rdx.RecipeKey(id.Hex()), found)
	utils.RespondWithJSON(w, http.StatusOK, found)
}

// POST /api/recipes/community
func (h *Handler) CreateRecipe(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user := utils.UserFromRequest(r)
	if user == nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Not authorized, no token")
		return
	}

	form, err := h.parseRecipeForm(w, r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	recipe := &models.CommunityRecipe{User: user.ID}
	form.update.Apply(recipe)
	recipe.Normalize()
	recipe.ApplyDefaults()
	if err := recipe.Validate(); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if form.image != nil {
		saved, ok := h.saveImage(w, r, form)
		if !ok {
			return
		}
		recipe.Image, recipe.Thumbnail = saved.Image, saved.Thumbnail
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.store.CreateRecipe(ctx, recipe); err != nil {
		h.removeImages(recipe.Image, recipe.Thumbnail)
		h.storeError(w, r, err, "create")
		return
	}

	h.cache.Del(ctx, rdx.TagsKey)
	h.events.Emit(ctx, mq.RecipeEvent{
		Type:     mq.RecipeCreated,
		RecipeID: recipe.ID.Hex(),
		Title:    recipe.Title,
		UserID:   user.ID.Hex(),
	})
	utils.RespondWithJSON(w, http.StatusCreated, recipe)
}

// PUT /api/recipes/community/:id
func (h *Handler) UpdateRecipe(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := recipeID(w, ps)
	if !ok {
		return
	}
	user := utils.UserFromRequest(r)
	if user == nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Not authorized, no token")
		return
	}

	form, err := h.parseRecipeForm(w, r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if form.update.Empty() && form.image == nil {
		utils.RespondWithError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	existing, err := h.store.GetRecipe(ctx, id)
	if err != nil {
		h.storeError(w, r, err, "update")
		return
	}
	if !existing.OwnedBy(user.ID) {
		utils.RespondWithError(w, http.StatusUnauthorized, "Not authorized to update this recipe")
		return
	}

	merged := *existing
	form.update.Apply(&merged)
	if err := merged.Validate(); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if form.image != nil {
		saved, ok := h.saveImage(w, r, form)
		if !ok {
			return
		}
		form.update.Image, form.update.Thumbnail = &saved.Image, &saved.Thumbnail
	}

	updated, err := h.store.UpdateRecipe(ctx, id, user.ID, form.update)
	if err != nil {
		if form.image != nil {
			h.removeImages(*form.update.Image, *form.update.Thumbnail)
		}
		h.storeError(w, r, err, "update")
		return
	}
	if form.update.Image != nil && existing.Image != updated.Image {
		h.removeImages(existing.Image, existing.Thumbnail)
	}

	h.cache.Del(ctx, rdx.RecipeKey(id.Hex()), rdx.TagsKey)
	h.events.Emit(ctx, mq.RecipeEvent{
		Type:      mq.RecipeUpdated,
		RecipeID:  id.Hex(),
		Title:     updated.Title,
		PrevTitle: existing.Title,
		UserID:    user.ID.Hex(),
	})
	utils.RespondWithJSON(w, http.StatusOK, updated)
}

// DELETE /api/recipes/community/:id
func (h *Handler) DeleteRecipe(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := recipeID(w, ps)
	if !ok {
		return
	}
	user := utils.UserFromRequest(r)
	if user == nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Not authorized, no token")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	existing, err := h.store.GetRecipe(ctx, id)
	if err != nil {
		h.storeError(w, r, err, "delete")
		return
	}
	if !existing.OwnedBy(user.ID) {
		utils.RespondWithError(w, http.StatusUnauthorized, "Not authorized to delete this recipe")
		return
	}

	deleted, err := h.store.DeleteRecipe(ctx, id, user.ID)
	if err != nil {
		h.storeError(w, r, err, "delete")
		return
	}
	h.removeImages(deleted.Image, deleted.Thumbnail)

	h.cache.Del(ctx, rdx.RecipeKey(id.Hex()), rdx.TagsKey)
	h.events.Emit(ctx, mq.RecipeEvent{
		Type:     mq.RecipeDeleted,
		RecipeID: id.Hex(),
		Title:    deleted.Title,
		UserID:   user.ID.Hex(),
	})
	utils.RespondWithMessage(w, http.StatusOK, "Recipe deleted")
}

func (h *Handler) saveImage(w http.ResponseWriter, r *http.Request, form *recipeForm) (filemgr.Saved, bool) {
	if h.uploads == nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Image uploads are not enabled")
		return filemgr.Saved{}, false
	}
	saved, err := h.uploads.SaveImage(form.image)
	if err != nil {
		if filemgr.IsValidationError(err) {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return filemgr.Saved{}, false
		}
		h.log.Error("save upload", zap.Error(err), zap.String("requestId", utils.RequestID(r)))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to save image")
		return filemgr.Saved{}, false
	}
	return saved, true
}

// removeImages deletes stored files best-effort.
func (h *Handler) removeImages(paths ...string) {
	if h.uploads == nil {
		return
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := h.uploads.Remove(p); err != nil {
			h.log.Warn("remove upload", zap.String("path", p), zap.Error(err))
		}
	}
}
