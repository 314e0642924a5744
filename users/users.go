// Package users serves registration, login and per-user recipe collections.
package users

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"recipehub/auth"
	"recipehub/db"
	"recipehub/models"
	"recipehub/utils"

	"github.com/go-playground/validator/v10"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const requestTimeout = 5 * time.Second

type TokenIssuer interface {
	Generate(userID primitive.ObjectID) (string, error)
}

type Handler struct {
	users    db.UserStore
	recipes  db.RecipeStore
	tokens   TokenIssuer
	log      *zap.Logger
	validate *validator.Validate
}

func NewHandler(users db.UserStore, recipes db.RecipeStore, tokens TokenIssuer, log *zap.Logger) *Handler {
	return &Handler{
		users:    users,
		recipes:  recipes,
		tokens:   tokens,
		log:      log,
		validate: validator.New(),
	}
}

type registerInput struct {
	Username string `json:"username" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type loginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid user data"
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return "Please provide " + field
	case "email":
		return "Please provide a valid email"
	case "min":
		return field + " must be at least " + fe.Param() + " characters"
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	}
	return "Invalid user data"
}

func (h *Handler) issue(w http.ResponseWriter, status int, user *models.User) {
	token, err := h.tokens.Generate(user.ID)
	if err != nil {
		h.log.Error("generate token", zap.Error(err), zap.String("userId", user.ID.Hex()))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	utils.RespondWithJSON(w, status, models.AuthResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Token:    token,
	})
}

// POST /api/users/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in registerInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	in.Username = strings.TrimSpace(in.Username)
	in.Email = models.NormalizeEmail(in.Email)
	if err := h.validate.Struct(in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, h.validationMessage(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	exists, err := h.users.UserExists(ctx, in.Email, in.Username)
	if err != nil {
		h.log.Error("check existing user", zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}
	if exists {
		utils.RespondWithError(w, http.StatusBadRequest, "User already exists")
		return
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		h.log.Error("hash password", zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	user := &models.User{Username: in.Username, Email: in.Email, Password: hashed}
	if err := h.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			utils.RespondWithError(w, http.StatusBadRequest, "User already exists")
			return
		}
		h.log.Error("create user", zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	h.log.Info("user registered", zap.String("userId", user.ID.Hex()))
	h.issue(w, http.StatusCreated, user)
}

// POST /api/users/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in loginInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, h.validationMessage(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	user, err := h.users.FindUserByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		h.log.Error("find user for login", zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}
	if user == nil || !auth.CheckPassword(user.Password, in.Password) {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	h.issue(w, http.StatusOK, user)
}

// GET /api/users/profile
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user := utils.UserFromRequest(r)
	if user == nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Not authorized, no token")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, user.Profile())
}
