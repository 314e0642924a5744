package routes

import (
	"context"
	"net/http"
	"time"

	"recipehub/middleware"
	"recipehub/ratelim"
	"recipehub/recipes"
	"recipehub/users"
	"recipehub/utils"

	"github.com/julienschmidt/httprouter"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Recipes   *recipes.Handler
	Users     *users.Handler
	Auth      *middleware.Auth
	Limiter   *ratelim.RateLimiter
	Store     Pinger
	UploadDir string
}

func NewRouter(d Deps) *httprouter.Router {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, http.StatusNotFound, "Not found")
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	AddHealthRoutes(router, d.Store)
	AddRecipeRoutes(router, d)
	AddUserRoutes(router, d)
	AddStaticRoutes(router, d.UploadDir)
	return router
}

func AddStaticRoutes(router *httprouter.Router, uploadDir string) {
	if uploadDir == "" {
		return
	}
	router.ServeFiles("/uploads/*filepath", http.Dir(uploadDir))
}

func AddHealthRoutes(router *httprouter.Router, store Pinger) {
	router.GET("/health", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := store.Ping(ctx); err != nil {
				utils.RespondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Handler(http.MethodGet, "/metrics", middleware.MetricsHandler())
}

func AddRecipeRoutes(router *httprouter.Router, d Deps) {
	h, a, rl := d.Recipes, d.Auth, d.Limiter
	m := middleware.Instrument

	router.GET("/api/recipes/community", m("/api/recipes/community", h.ListRecipes))
	router.GET("/api/recipes/community/:id", m("/api/recipes/community/:id", h.GetRecipe))
	router.GET("/api/recipes/community/:id/card", m("/api/recipes/community/:id/card", h.RecipeCard))
	router.POST("/api/recipes/community", m("/api/recipes/community", a.Authenticate(h.CreateRecipe)))
	router.PUT("/api/recipes/community/:id", m("/api/recipes/community/:id", a.Authenticate(h.UpdateRecipe)))
	router.DELETE("/api/recipes/community/:id", m("/api/recipes/community/:id", a.Authenticate(h.DeleteRecipe)))
	router.POST("/api/recipes/community/:id/reviews", m("/api/recipes/community/:id/reviews", rl.Limit(a.Authenticate(h.AddReview))))
	router.GET("/api/recipes/tags", m("/api/recipes/tags", h.GetRecipeTags))
	router.GET("/api/recipes/autocomplete", m("/api/recipes/autocomplete", h.Autocomplete))
}

func AddUserRoutes(router *httprouter.Router, d Deps) {
	h, a, rl := d.Users, d.Auth, d.Limiter
	m := middleware.Instrument

	router.POST("/api/users/register", m("/api/users/register", rl.Limit(h.Register)))
	router.POST("/api/users/login", m("/api/users/login", rl.Limit(h.Login)))
	router.GET("/api/users/profile", m("/api/users/profile", a.Authenticate(h.Profile)))
	router.POST("/api/users/save-recipe/:id", m("/api/users/save-recipe/:id", a.Authenticate(h.SaveRecipe)))
	router.DELETE("/api/users/remove-recipe/:id", m("/api/users/remove-recipe/:id", a.Authenticate(h.RemoveRecipe)))
	router.GET("/api/users/saved-recipes", m("/api/users/saved-recipes", a.Authenticate(h.SavedRecipes)))
	router.GET("/api/users/recipes", m("/api/users/recipes", a.Authenticate(h.MyRecipes)))
	router.GET("/api/users/stats", m("/api/users/stats", a.Authenticate(h.Stats)))
}
