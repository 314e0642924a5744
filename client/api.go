package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"recipehub/models"
)

// API is a typed client for the recipehub service.
type API struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// NewAPI accepts the service root ("http://host:5000") or the older form
// ending in "/api".
func NewAPI(baseURL string, hc *http.Client) *API {
	if hc == nil {
		hc = NewHTTPClient(DefaultTimeout)
	}
	baseURL = strings.TrimRight(baseURL, "/")
	baseURL = strings.TrimSuffix(baseURL, "/api")
	return &API{baseURL: baseURL, http: hc}
}

func (a *API) BaseURL() string { return a.baseURL }

func (a *API) SetToken(token string) {
	a.mu.Lock()
	a.token = token
	a.mu.Unlock()
}

func (a *API) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	req, err := newJSONRequest(ctx, method, a.baseURL+path, body)
	if err != nil {
		return err
	}
	a.authorize(req)
	return doJSON(a.http, req, out)
}

func (a *API) authorize(req *http.Request) {
	if token := a.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func recipePath(id string) string {
	return "/api/recipes/community/" + url.PathEscape(id)
}

func (a *API) Register(ctx context.Context, username, email, password string) (*models.AuthResponse, error) {
	var res models.AuthResponse
	body := map[string]string{"username": username, "email": email, "password": password}
	if err := a.do(ctx, http.MethodPost, "/api/users/register", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (a *API) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var res models.AuthResponse
	body := map[string]string{"email": email, "password": password}
	if err := a.do(ctx, http.MethodPost, "/api/users/login", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (a *API) Profile(ctx context.Context) (*models.UserProfileResponse, error) {
	var res models.UserProfileResponse
	if err := a.do(ctx, http.MethodGet, "/api/users/profile", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListOptions mirrors the community listing query parameters. Zero values
// are omitted.
type ListOptions struct {
	Tags       []string
	Difficulty string
	MaxTime    int
	MinRating  float64
	Search     string
	Sort       string
	Page       int
	Limit      int
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	if len(o.Tags) > 0 {
		q.Set("tags", strings.Join(o.Tags, ","))
	}
	if o.Difficulty != "" {
		q.Set("difficulty", o.Difficulty)
	}
	if o.MaxTime > 0 {
		q.Set("maxTime", strconv.Itoa(o.MaxTime))
	}
	if o.MinRating > 0 {
		q.Set("minRating", strconv.FormatFloat(o.MinRating, 'f', -1, 64))
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.Sort != "" {
		q.Set("sort", o.Sort)
	}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	return q
}

func (a *API) ListRecipes(ctx context.Context, opts ListOptions) ([]models.CommunityRecipe, error) {
	path := "/api/recipes/community"
	if q := opts.query(); len(q) > 0 {
		path += "?" + q.Encode()
	}
	var res []models.CommunityRecipe
	if err := a.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (a *API) GetRecipe(ctx context.Context, id string) (*models.CommunityRecipe, error) {
	var res models.CommunityRecipe
	if err := a.do(ctx, http.MethodGet, recipePath(id), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// RecipeInput is the body of a create or update. For updates only non-zero
// fields are sent. ImagePath, when set, switches the request to multipart.
type RecipeInput struct {
	Title        string   `json:"title,omitempty"`
	Ingredients  []string `json:"ingredients,omitempty"`
	Instructions []string `json:"instructions,omitempty"`
	CookingTime  int      `json:"cookingTime,omitempty"`
	Servings     int      `json:"servings,omitempty"`
	Difficulty   string   `json:"difficulty,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	ImagePath    string   `json:"-"`
}

func (a *API) CreateRecipe(ctx context.Context, in RecipeInput) (*models.CommunityRecipe, error) {
	return a.sendRecipe(ctx, http.MethodPost, "/api/recipes/community", in)
}

func (a *API) UpdateRecipe(ctx context.Context, id string, in RecipeInput) (*models.CommunityRecipe, error) {
	return a.sendRecipe(ctx, http.MethodPut, recipePath(id), in)
}

func (a *API) sendRecipe(ctx context.Context, method, path string, in RecipeInput) (*models.CommunityRecipe, error) {
	var res models.CommunityRecipe
	if in.ImagePath == "" {
		if err := a.do(ctx, method, path, in, &res); err != nil {
			return nil, err
		}
		return &res, nil
	}

	body, contentType, err := multipartRecipe(in)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", userAgent)
	a.authorize(req)
	if err := doJSON(a.http, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func multipartRecipe(in RecipeInput) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	fields := map[string]string{"title": in.Title, "difficulty": in.Difficulty}
	if in.CookingTime > 0 {
		fields["cookingTime"] = strconv.Itoa(in.CookingTime)
	}
	if in.Servings > 0 {
		fields["servings"] = strconv.Itoa(in.Servings)
	}
	lists := map[string][]string{
		"ingredients":  in.Ingredients,
		"instructions": in.Instructions,
		"tags":         in.Tags,
	}
	for name, items := range lists {
		if len(items) == 0 {
			continue
		}
		data, err := json.Marshal(items)
		if err != nil {
			return nil, "", err
		}
		fields[name] = string(data)
	}
	for name, v := range fields {
		if v == "" {
			continue
		}
		if err := mw.WriteField(name, v); err != nil {
			return nil, "", err
		}
	}

	f, err := os.Open(in.ImagePath)
	if err != nil {
		return nil, "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	part, err := mw.CreateFormFile("image", filepath.Base(in.ImagePath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf, mw.FormDataContentType(), nil
}

func (a *API) DeleteRecipe(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodDelete, recipePath(id), nil, nil)
}

func (a *API) AddReview(ctx context.Context, id string, rating int, text string) (*models.CommunityRecipe, error) {
	var res struct {
		Recipe models.CommunityRecipe `json:"recipe"`
	}
	body := map[string]any{"rating": rating, "text": text}
	if err := a.do(ctx, http.MethodPost, recipePath(id)+"/reviews", body, &res); err != nil {
		return nil, err
	}
	return &res.Recipe, nil
}

// RecipeCard downloads the printable PDF card of a community recipe.
func (a *API) RecipeCard(ctx context.Context, id string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+recipePath(id)+"/card", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET card: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}
	return io.ReadAll(resp.Body)
}

func (a *API) Tags(ctx context.Context) ([]string, error) {
	var res []string
	if err := a.do(ctx, http.MethodGet, "/api/recipes/tags", nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

type Suggestion struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (a *API) Autocomplete(ctx context.Context, prefix string) ([]Suggestion, error) {
	var res []Suggestion
	path := "/api/recipes/autocomplete?q=" + url.QueryEscape(prefix)
	if err := a.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

type savedResponse struct {
	Message      string   `json:"message"`
	SavedRecipes []string `json:"savedRecipes"`
}

// SaveRecipe adds a community recipe to the caller's collection and returns
// the updated list of saved ids.
func (a *API) SaveRecipe(ctx context.Context, id string) ([]string, error) {
	var res savedResponse
	if err := a.do(ctx, http.MethodPost, "/api/users/save-recipe/"+url.PathEscape(id), nil, &res); err != nil {
		return nil, err
	}
	return res.SavedRecipes, nil
}

func (a *API) RemoveRecipe(ctx context.Context, id string) ([]string, error) {
	var res savedResponse
	if err := a.do(ctx, http.MethodDelete, "/api/users/remove-recipe/"+url.PathEscape(id), nil, &res); err != nil {
		return nil, err
	}
	return res.SavedRecipes, nil
}

func (a *API) SavedRecipes(ctx context.Context) ([]models.CommunityRecipe, error) {
	var res []models.CommunityRecipe
	if err := a.do(ctx, http.MethodGet, "/api/users/saved-recipes", nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (a *API) MyRecipes(ctx context.Context) ([]models.CommunityRecipe, error) {
	var res []models.CommunityRecipe
	if err := a.do(ctx, http.MethodGet, "/api/users/recipes", nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (a *API) Stats(ctx context.Context) (*models.UserStats, error) {
	var res models.UserStats
	if err := a.do(ctx, http.MethodGet, "/api/users/stats", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (a *API) Health(ctx context.Context) error {
	return a.do(ctx, http.MethodGet, "/health", nil, nil)
}
