package globals

// Context keys
type ContextKey string

const (
	UserKey      ContextKey = "user"
	RequestIDKey ContextKey = "requestId"
)

const (
	RecipesCollection = "recipes"
	UsersCollection   = "users"
)
