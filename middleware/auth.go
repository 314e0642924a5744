package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"recipehub/db"
	"recipehub/globals"
	"recipehub/models"
	"recipehub/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	msgNoToken      = "Not authorized, no token"
	msgTokenFailed  = "Not authorized, token failed"
	msgUserNotFound = "User not found or unauthorized"
)

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	Verify(token string) (primitive.ObjectID, error)
}

type UserFinder interface {
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type Auth struct {
	users  UserFinder
	tokens TokenVerifier
	log    *zap.Logger
}

func NewAuth(users UserFinder, tokens TokenVerifier, log *zap.Logger) *Auth {
	return &Auth{users: users, tokens: tokens, log: log}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if len(header) < 8 || !strings.EqualFold(header[:7], "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}

// Authenticate rejects requests without a valid token for an existing user.
func (a *Auth) Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		token, ok := bearerToken(r)
		if !ok {
			utils.RespondWithError(w, http.StatusUnauthorized, msgNoToken)
			return
		}

		userID, err := a.tokens.Verify(token)
		if err != nil {
			a.log.Debug("token rejected", zap.Error(err), zap.String("requestId", utils.RequestID(r)))
			utils.RespondWithError(w, http.StatusUnauthorized, msgTokenFailed)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		user, err := a.users.FindUserByID(ctx, userID)
		cancel()
		if errors.Is(err, db.ErrNotFound) {
			utils.RespondWithError(w, http.StatusUnauthorized, msgUserNotFound)
			return
		}
		if err != nil {
			a.log.Error("load authenticated user", zap.Error(err), zap.String("userId", userID.Hex()))
			utils.RespondWithError(w, http.StatusUnauthorized, msgTokenFailed)
			return
		}

		next(w, r.WithContext(withUser(r.Context(), user)), ps)
	}
}

// OptionalAuth attaches the user when a valid token is present and never rejects.
func (a *Auth) OptionalAuth(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if token, ok := bearerToken(r); ok {
			if userID, err := a.tokens.Verify(token); err == nil {
				ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
				user, err := a.users.FindUserByID(ctx, userID)
				cancel()
				if err == nil {
					r = r.WithContext(withUser(r.Context(), user))
				}
			}
		}
		next(w, r, ps)
	}
}

func withUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, globals.UserKey, user)
}
