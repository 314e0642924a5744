package recipes

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"

	"recipehub/models"
	"recipehub/mq"
	"recipehub/rdx"
	"recipehub/utils"

	"github.com/go-playground/validator/v10"
	"github.com/julienschmidt/httprouter"
)

type reviewInput struct {
	Rating float64 `json:"rating" validate:"min=1,max=5"`
	Text   string  `json:"text" validate:"max=2000"`
}

const msgBadRating = "Rating must be an integer between 1 and 5"

func (h *Handler) checkReview(in reviewInput) string {
	if in.Rating != math.Trunc(in.Rating) {
		return msgBadRating
	}
	err := h.validate.Struct(in)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Field() == "Rating" {
				return msgBadRating
			}
		}
		return "Review text must be at most 2000 characters"
	}
	return err.Error()
}

// POST /api/recipes/community/:id/reviews
func (h *Handler) AddReview(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := recipeID(w, ps)
	if !ok {
		return
	}
	user := utils.UserFromRequest(r)
	if user == nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Not authorized, no token")
		return
	}

	var in reviewInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := h.checkReview(in); msg != "" {
		utils.RespondWithError(w, http.StatusBadRequest, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	existing, err := h.store.GetRecipe(ctx, id)
	if err != nil {
		h.storeError(w, r, err, "review")
		return
	}
	if existing.HasReviewFrom(user.ID) {
		utils.RespondWithError(w, http.StatusBadRequest, "You have already reviewed this recipe")
		return
	}

	// the store repeats the duplicate check inside the update, so a
	// concurrent second review still fails here
	recipe, err := h.store.AddReview(ctx, id, models.Review{
		Text:     strings.TrimSpace(in.Text),
		Rating:   int(in.Rating),
		User:     user.ID,
		Username: user.Username,
	})
	if err != nil {
		h.storeError(w, r, err, "review")
		return
	}

	h.cache.Del(ctx, rdx.RecipeKey(id.Hex()))
	h.events.Emit(ctx, mq.RecipeEvent{
		Type:     mq.RecipeReviewed,
		RecipeID: id.Hex(),
		Title:    recipe.Title,
		UserID:   user.ID.Hex(),
	})
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"message": "Review added",
		"recipe":  recipe,
	})
}
