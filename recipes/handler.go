// Package recipes serves the community recipe resource.
package recipes

import (
	"context"
	"errors"
	"net/http"
	"time"

	"recipehub/autocom"
	"recipehub/db"
	"recipehub/filemgr"
	"recipehub/mq"
	"recipehub/rdx"
	"recipehub/utils"

	"github.com/go-playground/validator/v10"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const requestTimeout = 5 * time.Second

type Handler struct {
	store     db.RecipeStore
	log       *zap.Logger
	validate  *validator.Validate
	uploads   *filemgr.Uploader
	cache     *rdx.Cache
	events    *mq.Bus
	index     *autocom.Index
	publicURL string
}

type Option func(*Handler)

func WithUploads(u *filemgr.Uploader) Option { return func(h *Handler) { h.uploads = u } }
func WithCache(c *rdx.Cache) Option          { return func(h *Handler) { h.cache = c } }
func WithEvents(b *mq.Bus) Option            { return func(h *Handler) { h.events = b } }
func WithAutocomplete(ix *autocom.Index) Option {
	return func(h *Handler) { h.index = ix }
}

// WithPublicURL sets the base URL encoded into recipe card QR codes.
func WithPublicURL(u string) Option { return func(h *Handler) { h.publicURL = u } }

func NewHandler(store db.RecipeStore, log *zap.Logger, opts ...Option) *Handler {
	h := &Handler{
		store:     store,
		log:       log,
		validate:  validator.New(),
		publicURL: "http://localhost:5000",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// recipeID parses the :id route parameter and writes a 400 when it is malformed.
func recipeID(w http.ResponseWriter, ps httprouter.Params) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(ps.ByName("id"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid recipe id")
		return primitive.NilObjectID, false
	}
	return id, true
}

// storeError maps store sentinels to responses. Unknown errors are logged and become 500s.
func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, err error, action string) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Recipe not found")
	case errors.Is(err, db.ErrForbidden):
		utils.RespondWithError(w, http.StatusUnauthorized, "Not authorized to "+action+" this recipe")
	case errors.Is(err, db.ErrAlreadyReviewed):
		utils.RespondWithError(w, http.StatusBadRequest, "You have already reviewed this recipe")
	case errors.Is(err, context.DeadlineExceeded):
		h.log.Error("store timeout", zap.String("action", action), zap.String("requestId", utils.RequestID(r)))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to "+action+" recipe")
	default:
		h.log.Error("store failure", zap.String("action", action), zap.Error(err), zap.String("requestId", utils.RequestID(r)))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to "+action+" recipe")
	}
}
