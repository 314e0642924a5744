package recipes

import (
	"context"

	"recipehub/mq"

	"go.uber.org/zap"
)

// OnRecipeEvent keeps the autocomplete index in step with recipe changes.
func (h *Handler) OnRecipeEvent(ctx context.Context, ev mq.RecipeEvent) {
	if !h.index.Enabled() {
		return
	}
	var err error
	switch ev.Type {
	case mq.RecipeCreated:
		err = h.index.Add(ctx, ev.RecipeID, ev.Title)
	case mq.RecipeUpdated:
		if ev.PrevTitle != "" && ev.PrevTitle != ev.Title {
			if err = h.index.Remove(ctx, ev.RecipeID, ev.PrevTitle); err != nil {
				break
			}
		}
		err = h.index.Add(ctx, ev.RecipeID, ev.Title)
	case mq.RecipeDeleted:
		err = h.index.Remove(ctx, ev.RecipeID, ev.Title)
	}
	if err != nil {
		h.log.Warn("autocomplete update failed", zap.String("event", ev.Type), zap.String("recipeId", ev.RecipeID), zap.Error(err))
	}
}
