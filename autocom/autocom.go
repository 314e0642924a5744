// Package autocom keeps recipe titles in a Redis sorted set for prefix suggestions.
package autocom

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const key = "autocomplete:recipes"

type Suggestion struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Index is nil-safe: without a client every call is a no-op.
type Index struct {
	client *redis.Client
}

func NewIndex(client *redis.Client) *Index {
	return &Index{client: client}
}

func (ix *Index) Enabled() bool { return ix != nil && ix.client != nil }

// Members sort lexically as "<lowercased title>|<id>|<title>" so a prefix
// range over the lowercased title finds matches case-insensitively.
func member(id, title string) string {
	sortKey := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(title)), "|", " ")
	return fmt.Sprintf("%s|%s|%s", sortKey, id, title)
}

func parseMember(m string) (Suggestion, bool) {
	parts := strings.SplitN(m, "|", 3)
	if len(parts) != 3 {
		return Suggestion{}, false
	}
	return Suggestion{ID: parts[1], Title: parts[2]}, true
}

func (ix *Index) Add(ctx context.Context, id, title string) error {
	if !ix.Enabled() {
		return nil
	}
	if err := ix.client.ZAdd(ctx, key, redis.Z{Score: 0, Member: member(id, title)}).Err(); err != nil {
		return fmt.Errorf("failed to add recipe to autocomplete: %w", err)
	}
	return nil
}

func (ix *Index) Remove(ctx context.Context, id, title string) error {
	if !ix.Enabled() {
		return nil
	}
	if err := ix.client.ZRem(ctx, key, member(id, title)).Err(); err != nil {
		return fmt.Errorf("failed to remove recipe from autocomplete: %w", err)
	}
	return nil
}

// Suggest returns up to limit titles starting with prefix.
func (ix *Index) Suggest(ctx context.Context, prefix string, limit int) ([]Suggestion, error) {
	out := []Suggestion{}
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if !ix.Enabled() || prefix == "" {
		return out, nil
	}
	members, err := ix.client.ZRangeByLex(ctx, key, &redis.ZRangeBy{
		Min:   "[" + prefix,
		Max:   "[" + prefix + "\xff",
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("autocomplete lookup: %w", err)
	}
	for _, m := range members {
		if s, ok := parseMember(m); ok {
			out = append(out, s)
		}
	}
	return out, nil
}
