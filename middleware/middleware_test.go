package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"recipehub/auth"
	"recipehub/db"
	"recipehub/models"
	"recipehub/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func setupAuth(t *testing.T) (*Auth, *auth.TokenManager, *models.User) {
	t.Helper()
	store := db.NewMemoryStore()
	user := &models.User{Username: "cook", Email: "cook@example.com", Password: "x"}
	require.NoError(t, store.CreateUser(context.Background(), user))
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	return NewAuth(store, tokens, zap.NewNop()), tokens, user
}

func whoAmI(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user := utils.UserFromRequest(r)
	if user == nil {
		utils.RespondWithJSON(w, http.StatusOK, map[string]string{"user": ""})
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"user": user.Username})
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestAuthenticate(t *testing.T) {
	a, tokens, user := setupAuth(t)
	valid, err := tokens.Generate(user.ID)
	require.NoError(t, err)
	orphan, err := tokens.Generate(primitive.NewObjectID())
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"missing header", "", http.StatusUnauthorized, msgNoToken},
		{"not bearer", "Basic abc", http.StatusUnauthorized, msgNoToken},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized, msgTokenFailed},
		{"tampered token", "Bearer " + valid + "x", http.StatusUnauthorized, msgTokenFailed},
		{"deleted user", "Bearer " + orphan, http.StatusUnauthorized, msgUserNotFound},
		{"valid", "Bearer " + valid, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			a.Authenticate(whoAmI)(rec, req, nil)

			assert.Equal(t, tt.status, rec.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, errorOf(t, rec))
			} else {
				assert.Contains(t, rec.Body.String(), `"user":"cook"`)
			}
		})
	}
}

func TestOptionalAuthNeverRejects(t *testing.T) {
	a, tokens, user := setupAuth(t)
	valid, err := tokens.Generate(user.ID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer broken")
	rec := httptest.NewRecorder()
	a.OptionalAuth(whoAmI)(rec, req, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user":""`)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+valid)
	rec = httptest.NewRecorder()
	a.OptionalAuth(whoAmI)(rec, req, nil)
	assert.Contains(t, rec.Body.String(), `"user":"cook"`)
}

func TestRecoverAndRequestID(t *testing.T) {
	panicky := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	h := Chain(panicky, RequestID, Recover(zap.NewNop()), Logging(zap.NewNop()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "Internal server error", errorOf(t, rec))
}

func TestRequestIDKeepsValidHeader(t *testing.T) {
	const id = "3f0b2a56-8e0e-4a3c-9d55-1a2b3c4d5e6f"
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = utils.RequestID(r)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", id)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, id, seen)
	assert.Equal(t, id, rec.Header().Get("X-Request-Id"))
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestInstrumentPassesThroughStatus(t *testing.T) {
	h := Instrument("/teapot", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusTeapot)
	})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/teapot", nil), nil)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
