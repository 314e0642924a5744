// Package db holds the recipe and user persistence layer.
package db

import (
	"context"
	"errors"

	"recipehub/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicate       = errors.New("duplicate key")
	ErrAlreadyReviewed = errors.New("already reviewed")
	ErrAlreadySaved    = errors.New("already saved")
	ErrNotSaved        = errors.New("not saved")
	ErrForbidden       = errors.New("not the owner")
)

type RecipeStore interface {
	ListRecipes(ctx context.Context, f models.RecipeFilter) ([]models.CommunityRecipe, error)
	GetRecipe(ctx context.Context, id primitive.ObjectID) (*models.CommunityRecipe, error)
	// GetRecipes returns the recipes in ids order, skipping ids that no longer exist.
	GetRecipes(ctx context.Context, ids []primitive.ObjectID) ([]models.CommunityRecipe, error)
	CreateRecipe(ctx context.Context, r *models.CommunityRecipe) error
	// UpdateRecipe applies upd when owner matches the recipe's author.
	UpdateRecipe(ctx context.Context, id, owner primitive.ObjectID, upd models.RecipeUpdate) (*models.CommunityRecipe, error)
	// DeleteRecipe removes the recipe when owner matches and returns the removed document.
	DeleteRecipe(ctx context.Context, id, owner primitive.ObjectID) (*models.CommunityRecipe, error)
	// AddReview appends rv and recomputes the rating in one document update.
	AddReview(ctx context.Context, id primitive.ObjectID, rv models.Review) (*models.CommunityRecipe, error)
	RecipeTags(ctx context.Context) ([]string, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UserExists(ctx context.Context, email, username string) (bool, error)
	SaveRecipe(ctx context.Context, userID, recipeID primitive.ObjectID) ([]primitive.ObjectID, error)
	RemoveRecipe(ctx context.Context, userID, recipeID primitive.ObjectID) ([]primitive.ObjectID, error)
}

type Store interface {
	RecipeStore
	UserStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
