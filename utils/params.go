package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
)

// ParseList accepts a JSON array string or a comma-separated string.
func ParseList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}, nil
	}
	if strings.HasPrefix(raw, "[") {
		var items []string
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, fmt.Errorf("invalid list: %w", err)
		}
		return trimAll(items), nil
	}
	return trimAll(strings.Split(raw, ",")), nil
}

// ParseLines is ParseList that also splits plain text on newlines. Text with
// newlines is never split on commas, so a step can contain one.
func ParseLines(raw string) ([]string, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.Contains(trimmed, "\n") && !strings.HasPrefix(trimmed, "[") {
		return trimAll(strings.Split(trimmed, "\n")), nil
	}
	return ParseList(raw)
}

func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(strings.TrimSuffix(s, "\r")); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// QueryInt parses an optional integer query parameter. ok is false when the
// parameter is absent.
func QueryInt(r *http.Request, name string) (n int, ok bool, err error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, false, nil
	}
	n, err = strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s must be an integer", name)
	}
	return n, true, nil
}

func QueryFloat(r *http.Request, name string) (f float64, ok bool, err error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, false, nil
	}
	f, err = strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%s must be a number", name)
	}
	return f, true, nil
}

// ParsePagination reads page (1-based) and limit. limit 0 means unbounded.
func ParsePagination(r *http.Request, maxLimit int) (skip, limit int64, err error) {
	l, hasLimit, err := QueryInt(r, "limit")
	if err != nil {
		return 0, 0, err
	}
	if hasLimit && (l < 1 || l > maxLimit) {
		return 0, 0, fmt.Errorf("limit must be between 1 and %d", maxLimit)
	}
	p, hasPage, err := QueryInt(r, "page")
	if err != nil {
		return 0, 0, err
	}
	if hasPage && p < 1 {
		return 0, 0, fmt.Errorf("page must be at least 1")
	}
	if !hasLimit {
		return 0, 0, nil
	}
	if !hasPage {
		p = 1
	}
	if int64(p-1) > math.MaxInt64/int64(l) {
		return 0, 0, fmt.Errorf("page out of range")
	}
	return int64(p-1) * int64(l), int64(l), nil
}
