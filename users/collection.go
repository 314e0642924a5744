package users

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"recipehub/db"
	"recipehub/models"
	"recipehub/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func (h *Handler) pathRecipeID(w http.ResponseWriter, ps httprouter.Params) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid recipe id")
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) *models.User {
	user := utils.UserFromRequest(r)
	if user == nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Not authorized, no token")
	}
	return user
}

func (h *Handler) fail(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, db.ErrNotFound) {
		utils.RespondWithError(w, http.StatusNotFound, "User not found")
		return
	}
	h.log.Error(msg, zap.Error(err))
	utils.RespondWithError(w, http.StatusInternalServerError, msg)
}

// POST /api/users/save-recipe/:id
func (h *Handler) SaveRecipe(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	recipeID, ok := h.pathRecipeID(w, ps)
	if !ok {
		return
	}
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if _, err := h.recipes.GetRecipe(ctx, recipeID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Recipe not found")
			return
		}
		h.fail(w, err, "Failed to save recipe")
		return
	}

	saved, err := h.users.SaveRecipe(ctx, user.ID, recipeID)
	if errors.Is(err, db.ErrAlreadySaved) {
		utils.RespondWithError(w, http.StatusBadRequest, "Recipe already saved")
		return
	}
	if err != nil {
		h.fail(w, err, "Failed to save recipe")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message":      "Recipe saved to collection",
		"savedRecipes": saved,
	})
}

// DELETE /api/users/remove-recipe/:id
func (h *Handler) RemoveRecipe(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	recipeID, ok := h.pathRecipeID(w, ps)
	if !ok {
		return
	}
	user := h.currentUser(w, r)
	if user == nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	saved, err := h.users.RemoveRecipe(ctx, user.ID, recipeID)
	if errors.Is(err, db.ErrNotSaved) {
		utils.RespondWithError(w, http.StatusBadRequest, "Recipe not in collection")
		return
	}
	if err != nil {
		h.fail(w, err, "Failed to remove recipe")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"message":      "Recipe removed from collection",
		"savedRecipes": saved,
	})
}

// GET /api/users/saved-recipes
func (h *Handler) SavedRecipes(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	recipes, err := h.recipes.GetRecipes(ctx, user.SavedRecipes)
	if err != nil {
		h.fail(w, err, "Failed to fetch saved recipes")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, recipes)
}

// GET /api/users/recipes
func (h *Handler) MyRecipes(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}
	recipes, ok := h.ownRecipes(w, r, user)
	if !ok {
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, recipes)
}

// GET /api/users/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user := h.currentUser(w, r)
	if user == nil {
		return
	}
	recipes, ok := h.ownRecipes(w, r, user)
	if !ok {
		return
	}
	// tag ties resolve in creation order
	slices.Reverse(recipes)
	utils.RespondWithJSON(w, http.StatusOK, models.ComputeStats(recipes))
}

func (h *Handler) ownRecipes(w http.ResponseWriter, r *http.Request, user *models.User) ([]models.CommunityRecipe, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	recipes, err := h.recipes.ListRecipes(ctx, models.RecipeFilter{Owner: user.ID, Sort: models.SortNewest})
	if err != nil {
		h.fail(w, err, "Failed to fetch recipes")
		return nil, false
	}
	if recipes == nil {
		recipes = []models.CommunityRecipe{}
	}
	return recipes, true
}
