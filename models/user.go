package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID           primitive.ObjectID   `json:"_id" bson:"_id"`
	Username     string               `json:"username" bson:"username"`
	Email        string               `json:"email" bson:"email"`
	Password     string               `json:"-" bson:"password"`
	SavedRecipes []primitive.ObjectID `json:"savedRecipes" bson:"savedRecipes"`
	CreatedAt    time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt" bson:"updatedAt"`
}

func (u *User) HasSaved(recipeID primitive.ObjectID) bool {
	for _, id := range u.SavedRecipes {
		if id == recipeID {
			return true
		}
	}
	return false
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	ID       primitive.ObjectID `json:"_id"`
	Username string             `json:"username"`
	Email    string             `json:"email"`
	Token    string             `json:"token"`
}

type UserProfileResponse struct {
	ID           primitive.ObjectID   `json:"_id"`
	Username     string               `json:"username"`
	Email        string               `json:"email"`
	SavedRecipes []primitive.ObjectID `json:"savedRecipes"`
}

func (u *User) Profile() UserProfileResponse {
	saved := u.SavedRecipes
	if saved == nil {
		saved = []primitive.ObjectID{}
	}
	return UserProfileResponse{ID: u.ID, Username: u.Username, Email: u.Email, SavedRecipes: saved}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
