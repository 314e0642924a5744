package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const DefaultForkifyURL = "https://forkify-api.herokuapp.com/api/v2"

// Forkify is a read-only client for the public Forkify recipe API.
type Forkify struct {
	baseURL string
	http    *http.Client
}

func NewForkify(baseURL string, hc *http.Client) *Forkify {
	if baseURL == "" {
		baseURL = DefaultForkifyURL
	}
	if hc == nil {
		hc = NewHTTPClient(DefaultTimeout)
	}
	return &Forkify{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

type forkifyEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Recipes []ForkifyRecipe `json:"recipes"`
		Recipe  *ForkifyRecipe  `json:"recipe"`
	} `json:"data"`
}

// Search returns the recipes matching q. A query with no matches yields an
// empty slice, not an error.
func (f *Forkify) Search(ctx context.Context, q string) ([]Recipe, error) {
	endpoint := f.baseURL + "/recipes?search=" + url.QueryEscape(q)
	req, err := newJSONRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	var env forkifyEnvelope
	if err := doJSON(f.http, req, &env); err != nil {
		return nil, err
	}
	out := make([]Recipe, 0, len(env.Data.Recipes))
	for _, r := range env.Data.Recipes {
		out = append(out, FromForkify(r))
	}
	return out, nil
}

func (f *Forkify) Get(ctx context.Context, id string) (*Recipe, error) {
	req, err := newJSONRequest(ctx, http.MethodGet, f.baseURL+"/recipes/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var env forkifyEnvelope
	if err := doJSON(f.http, req, &env); err != nil {
		return nil, err
	}
	if env.Data.Recipe == nil {
		return nil, fmt.Errorf("forkify: invalid recipe data for %q", id)
	}
	r := FromForkify(*env.Data.Recipe)
	return &r, nil
}
