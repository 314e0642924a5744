package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"recipehub/client"
	"recipehub/models"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

type format string

const (
	formatTable format = "table"
	formatJSON  format = "json"
	formatYAML  format = "yaml"
)

var formatFlag = &cli.StringFlag{
	Name:    "format",
	Aliases: []string{"t"},
	Value:   string(formatTable),
	Usage:   "output format (table, json, yaml)",
}

func parseFormat(s string) (format, error) {
	switch f := format(strings.ToLower(strings.TrimSpace(s))); f {
	case formatTable, formatJSON, formatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format: %q", s)
}

type printer struct {
	w      io.Writer
	format format
}

func newPrinter(w io.Writer, f format) *printer {
	return &printer{w: w, format: f}
}

// structured writes v as JSON or YAML. It reports false in table mode so
// the caller renders its own table.
func (p *printer) structured(v any) (bool, error) {
	switch p.format {
	case formatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		defer enc.Close()
		return true, enc.Encode(v)
	}
	return false, nil
}

func (p *printer) message(format string, args ...any) {
	if p.format != formatTable {
		return
	}
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) recipes(rs []client.Recipe) error {
	if done, err := p.structured(rs); done {
		return err
	}
	if len(rs) == 0 {
		fmt.Fprintln(p.w, "No recipes found.")
		return nil
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tTIME\tRATING\tBY")
	for _, r := range rs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Title, minutes(r.CookingTime), stars(r), r.Publisher)
	}
	return tw.Flush()
}

func (p *printer) recipe(r client.Recipe) error {
	if done, err := p.structured(r); done {
		return err
	}
	fmt.Fprintf(p.w, "%s\n%s\n", r.Title, strings.Repeat("=", len([]rune(r.Title))))
	fmt.Fprintf(p.w, "id: %s\n", r.ID)
	var meta []string
	if r.CookingTime > 0 {
		meta = append(meta, minutes(r.CookingTime))
	}
	if r.Servings > 0 {
		meta = append(meta, fmt.Sprintf("serves %d", r.Servings))
	}
	if r.Difficulty != "" {
		meta = append(meta, r.Difficulty)
	}
	if s := stars(r); s != "-" {
		meta = append(meta, s)
	}
	if len(meta) > 0 {
		fmt.Fprintln(p.w, strings.Join(meta, " | "))
	}
	if r.Publisher != "" {
		fmt.Fprintf(p.w, "by %s\n", r.Publisher)
	}
	if len(r.Tags) > 0 {
		fmt.Fprintf(p.w, "tags: %s\n", strings.Join(r.Tags, ", "))
	}
	if len(r.Ingredients) > 0 {
		fmt.Fprintln(p.w, "\nIngredients:")
		for _, ing := range r.Ingredients {
			fmt.Fprintf(p.w, "  - %s\n", ing)
		}
	}
	if len(r.Instructions) > 0 {
		fmt.Fprintln(p.w, "\nInstructions:")
		for i, step := range r.Instructions {
			fmt.Fprintf(p.w, "  %d. %s\n", i+1, step)
		}
	}
	if r.SourceURL != "" {
		fmt.Fprintf(p.w, "\nsource: %s\n", r.SourceURL)
	}
	return nil
}

func (p *printer) stats(s models.UserStats) error {
	if done, err := p.structured(s); done {
		return err
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Recipes\t%d\n", s.TotalRecipes)
	fmt.Fprintf(tw, "Reviews received\t%d\n", s.TotalReviews)
	fmt.Fprintf(tw, "Average rating\t%.1f\n", s.AverageRating)
	tag := s.FavoriteTag
	if tag == "" {
		tag = "-"
	}
	fmt.Fprintf(tw, "Favorite tag\t%s\n", tag)
	return tw.Flush()
}

func minutes(n int) string {
	if n <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d min", n)
}

func stars(r client.Recipe) string {
	if r.Reviews == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f (%d)", r.Rating, r.Reviews)
}
