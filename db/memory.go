package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"recipehub/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps everything in process memory. Documents are copied on the
// way in and out so callers never share state with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	recipes map[primitive.ObjectID]models.CommunityRecipe
	users   map[primitive.ObjectID]models.User
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		recipes: make(map[primitive.ObjectID]models.CommunityRecipe),
		users:   make(map[primitive.ObjectID]models.User),
		now:     time.Now,
	}
}

// SetClock replaces the time source.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *MemoryStore) Ping(context.Context) error  { return nil }
func (s *MemoryStore) Close(context.Context) error { return nil }

func copyRecipe(r models.CommunityRecipe) models.CommunityRecipe {
	r.Ingredients = append([]string(nil), r.Ingredients...)
	r.Instructions = append([]string(nil), r.Instructions...)
	r.Tags = append([]string{}, r.Tags...)
	r.Reviews = append([]models.Review{}, r.Reviews...)
	return r
}

func copyUser(u models.User) models.User {
	u.SavedRecipes = append([]primitive.ObjectID{}, u.SavedRecipes...)
	return u
}

func (s *MemoryStore) ListRecipes(ctx context.Context, f models.RecipeFilter) ([]models.CommunityRecipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	matched := make([]models.CommunityRecipe, 0, len(s.recipes))
	for _, r := range s.recipes {
		if f.Matches(&r) {
			matched = append(matched, copyRecipe(r))
		}
	}
	s.mu.RUnlock()

	models.SortRecipes(matched, f.Sort)

	if f.Skip > 0 {
		if f.Skip >= int64(len(matched)) {
			return []models.CommunityRecipe{}, nil
		}
		matched = matched[f.Skip:]
	}
	if f.Limit > 0 && f.Limit < int64(len(matched)) {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

func (s *MemoryStore) GetRecipe(ctx context.Context, id primitive.ObjectID) (*models.CommunityRecipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.recipes[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyRecipe(r)
	return &out, nil
}

func (s *MemoryStore) GetRecipes(ctx context.Context, ids []primitive.ObjectID) ([]models.CommunityRecipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CommunityRecipe, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.recipes[id]; ok {
			out = append(out, copyRecipe(r))
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateRecipe(ctx context.Context, r *models.CommunityRecipe) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	if _, exists := s.recipes[r.ID]; exists {
		return ErrDuplicate
	}
	r.CreatedAt = now
	r.UpdatedAt = now
	r.ApplyDefaults()
	s.recipes[r.ID] = copyRecipe(*r)
	return nil
}

// ownedRecipe must be called with the write lock held.
func (s *MemoryStore) ownedRecipe(id, owner primitive.ObjectID) (models.CommunityRecipe, error) {
	r, ok := s.recipes[id]
	if !ok {
		return r, ErrNotFound
	}
	if r.User != owner {
		return r, ErrForbidden
	}
	return r, nil
}

func (s *MemoryStore) UpdateRecipe(ctx context.Context, id, owner primitive.ObjectID, upd models.RecipeUpdate) (*models.CommunityRecipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.ownedRecipe(id, owner)
	if err != nil {
		return nil, err
	}
	r = copyRecipe(r)
	upd.Apply(&r)
	r.UpdatedAt = s.now().UTC()
	s.recipes[id] = r
	out := copyRecipe(r)
	return &out, nil
}

func (s *MemoryStore) DeleteRecipe(ctx context.Context, id, owner primitive.ObjectID) (*models.CommunityRecipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.ownedRecipe(id, owner)
	if err != nil {
		return nil, err
	}
	delete(s.recipes, id)
	return &r, nil
}

func (s *MemoryStore) AddReview(ctx context.Context, id primitive.ObjectID, rv models.Review) (*models.CommunityRecipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recipes[id]
	if !ok {
		return nil, ErrNotFound
	}
	if r.HasReviewFrom(rv.User) {
		return nil, ErrAlreadyReviewed
	}
	now := s.now().UTC()
	if rv.ID.IsZero() {
		rv.ID = primitive.NewObjectID()
	}
	if rv.CreatedAt.IsZero() {
		rv.CreatedAt = now
	}
	r = copyRecipe(r)
	r.Reviews = append(r.Reviews, rv)
	r.Rating = models.AverageRating(r.Reviews)
	r.UpdatedAt = now
	s.recipes[id] = r
	out := copyRecipe(r)
	return &out, nil
}

func (s *MemoryStore) RecipeTags(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, r := range s.recipes {
		for _, t := range r.Tags {
			seen[t] = struct{}{}
		}
	}
	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags, nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, u *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	email := models.NormalizeEmail(u.Email)
	for _, existing := range s.users {
		if existing.Email == email || existing.Username == u.Username {
			return ErrDuplicate
		}
	}
	now := s.now().UTC()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Email = email
	if u.SavedRecipes == nil {
		u.SavedRecipes = []primitive.ObjectID{}
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	s.users[u.ID] = copyUser(*u)
	return nil
}

func (s *MemoryStore) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyUser(u)
	return &out, nil
}

func (s *MemoryStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	email = models.NormalizeEmail(email)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			out := copyUser(u)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UserExists(ctx context.Context, email, username string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	email = models.NormalizeEmail(email)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email || u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) SaveRecipe(ctx context.Context, userID, recipeID primitive.ObjectID) ([]primitive.ObjectID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	if u.HasSaved(recipeID) {
		return nil, ErrAlreadySaved
	}
	u = copyUser(u)
	u.SavedRecipes = append(u.SavedRecipes, recipeID)
	u.UpdatedAt = s.now().UTC()
	s.users[userID] = u
	return append([]primitive.ObjectID{}, u.SavedRecipes...), nil
}

func (s *MemoryStore) RemoveRecipe(ctx context.Context, userID, recipeID primitive.ObjectID) ([]primitive.ObjectID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	if !u.HasSaved(recipeID) {
		return nil, ErrNotSaved
	}
	kept := make([]primitive.ObjectID, 0, len(u.SavedRecipes))
	for _, id := range u.SavedRecipes {
		if id != recipeID {
			kept = append(kept, id)
		}
	}
	u.SavedRecipes = kept
	u.UpdatedAt = s.now().UTC()
	s.users[userID] = u
	return append([]primitive.ObjectID{}, kept...), nil
}
