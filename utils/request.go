package utils

import (
	"net/http"

	"recipehub/globals"
	"recipehub/models"
)

// UserFromRequest returns the authenticated user attached by the auth middleware.
func UserFromRequest(r *http.Request) *models.User {
	user, _ := r.Context().Value(globals.UserKey).(*models.User)
	return user
}

func RequestID(r *http.Request) string {
	id, _ := r.Context().Value(globals.RequestIDKey).(string)
	return id
}
