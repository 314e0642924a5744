package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Session is the signed-in user snapshot kept between runs.
type Session struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Token    string `json:"token"`
}

// Searcher runs a recipe search; *Forkify satisfies it.
type Searcher interface {
	Search(ctx context.Context, q string) ([]Recipe, error)
}

type stateFile struct {
	Favorites        []Recipe `json:"favorites"`
	CommunityRecipes []Recipe `json:"communityRecipes"`
	Session          *Session `json:"session,omitempty"`
}

// AppState is the cookbook's local state. It is safe for concurrent use.
type AppState struct {
	path     string
	searcher Searcher
	log      *zap.Logger

	mu        sync.Mutex
	results   []Recipe
	favorites []Recipe
	community []Recipe
	session   *Session

	searchSeq    uint64
	cancelSearch context.CancelFunc
}

type StateOption func(*AppState)

func WithSearcher(s Searcher) StateOption { return func(st *AppState) { st.searcher = s } }
func WithLogger(l *zap.Logger) StateOption {
	return func(st *AppState) { st.log = l }
}

// LoadState reads the state file at path. A missing file gives an empty state.
func LoadState(path string, opts ...StateOption) (*AppState, error) {
	st := &AppState{path: path, log: zap.NewNop()}
	for _, opt := range opts {
		opt(st)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return st, nil
	}
	var f stateFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse state %s: %w", path, err)
	}
	st.favorites = f.Favorites
	st.community = f.CommunityRecipes
	st.session = f.Session
	return st, nil
}

// Save writes the state file through a temp file and rename.
func (s *AppState) Save() error {
	s.mu.Lock()
	f := stateFile{
		Favorites:        cloneRecipes(s.favorites),
		CommunityRecipes: cloneRecipes(s.community),
		Session:          s.session,
	}
	s.mu.Unlock()

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".cookbook-*.json")
	if err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

func cloneRecipes(in []Recipe) []Recipe {
	if in == nil {
		return []Recipe{}
	}
	return append([]Recipe(nil), in...)
}

func indexOf(list []Recipe, id RecipeID) int {
	for i, r := range list {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (s *AppState) Favorites() []Recipe {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRecipes(s.favorites)
}

func (s *AppState) IsFavorite(id RecipeID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.favorites, id) >= 0
}

// ToggleFavorite appends r when no favorite has its ID and removes the
// existing entry otherwise. It reports whether r is now a favorite.
func (s *AppState) ToggleFavorite(r Recipe) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.favorites, r.ID); i >= 0 {
		s.favorites = append(s.favorites[:i:i], s.favorites[i+1:]...)
		return false
	}
	s.favorites = append(s.favorites, r)
	return true
}

// MergeSaved unions server-side saved recipes into the favorites. Local
// entries keep their position; unseen server recipes are appended in order.
func (s *AppState) MergeSaved(saved []Recipe) []Recipe {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range saved {
		if indexOf(s.favorites, r.ID) < 0 {
			s.favorites = append(s.favorites, r)
		}
	}
	return cloneRecipes(s.favorites)
}

func (s *AppState) Community() []Recipe {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRecipes(s.community)
}

func (s *AppState) SetCommunity(rs []Recipe) {
	s.mu.Lock()
	s.community = cloneRecipes(rs)
	s.mu.Unlock()
}

// AddCommunity records a freshly submitted recipe, replacing any cached
// copy with the same ID.
func (s *AppState) AddCommunity(r Recipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.community, r.ID); i >= 0 {
		s.community[i] = r
		return
	}
	s.community = append(s.community, r)
}

func (s *AppState) Session() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	cp := *s.session
	return &cp
}

func (s *AppState) SetSession(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess == nil {
		s.session = nil
		return
	}
	cp := *sess
	s.session = &cp
}

func (s *AppState) Results() []Recipe {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRecipes(s.results)
}

// Search replaces the last results with the matches for q. A newer Search
// cancels this one; a superseded search returns current=false and leaves the
// state untouched. Search failures are logged and yield an empty result set.
func (s *AppState) Search(ctx context.Context, q string) (results []Recipe, current bool) {
	q = strings.TrimSpace(q)
	if q == "" || s.searcher == nil {
		return s.Results(), true
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancelSearch != nil {
		s.cancelSearch()
	}
	s.searchSeq++
	seq := s.searchSeq
	s.cancelSearch = cancel
	s.mu.Unlock()

	found, err := s.searcher.Search(ctx, q)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.log.Warn("recipe search failed", zap.String("query", q), zap.Error(err))
		}
		found = []Recipe{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.searchSeq {
		return nil, false
	}
	s.cancelSearch = nil
	s.results = cloneRecipes(found)
	return cloneRecipes(found), true
}
