package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"recipehub/client"

	"github.com/urfave/cli/v3"
)

func requireArg(cmd *cli.Command, name string) (string, error) {
	v := strings.TrimSpace(cmd.Args().First())
	if v == "" {
		return "", fmt.Errorf("missing <%s> argument", name)
	}
	return v, nil
}

func recipeArg(cmd *cli.Command) (client.RecipeID, error) {
	raw, err := requireArg(cmd, "id")
	if err != nil {
		return client.RecipeID{}, err
	}
	return client.ParseRecipeID(raw)
}

// communityArg accepts "community:<hex>" or a bare hex id.
func communityArg(cmd *cli.Command) (string, error) {
	raw, err := requireArg(cmd, "id")
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(raw, string(client.SourceForkify)+":") {
		return "", fmt.Errorf("%s is not a community recipe", raw)
	}
	id, err := client.ParseRecipeID(raw)
	if err != nil {
		return "", err
	}
	return id.ID, nil
}

func (a *app) fetch(ctx context.Context, id client.RecipeID) (client.Recipe, error) {
	if id.Source == client.SourceCommunity {
		r, err := a.api.GetRecipe(ctx, id.ID)
		if err != nil {
			return client.Recipe{}, err
		}
		return client.FromCommunity(*r, a.api.BaseURL()), nil
	}
	r, err := a.forkify.Get(ctx, id.ID)
	if err != nil {
		return client.Recipe{}, err
	}
	return *r, nil
}

func searchCmd() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search Forkify for recipes",
		ArgsUsage: "<query>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			q := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
			if q == "" {
				return errors.New("missing <query> argument")
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			results, _ := a.state.Search(ctx, q)
			return a.out.recipes(results)
		},
	}
}

func showCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a recipe (forkify:<id> or community:<id>)",
		ArgsUsage: "<id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := recipeArg(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			r, err := a.fetch(ctx, id)
			if err != nil {
				return err
			}
			if err := a.out.recipe(r); err != nil {
				return err
			}
			if a.state.IsFavorite(r.ID) {
				a.out.message("\n★ in your favorites")
			}
			return nil
		},
	}
}

func (a *app) startSession(ctx context.Context, id, username, email, token string) {
	a.state.SetSession(&client.Session{UserID: id, Username: username, Email: email, Token: token})
	a.api.SetToken(token)

	saved, err := a.api.SavedRecipes(ctx)
	if err != nil {
		a.out.message("signed in, but saved recipes could not be loaded: %v", err)
	} else {
		a.state.MergeSaved(client.FromCommunityList(saved, a.api.BaseURL()))
	}
	a.save()
}

func registerCmd() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create an account and sign in",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Required: true},
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true, Sources: cli.EnvVars("COOKBOOK_PASSWORD")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			res, err := a.api.Register(ctx, cmd.String("username"), cmd.String("email"), cmd.String("password"))
			if err != nil {
				return err
			}
			a.startSession(ctx, res.ID.Hex(), res.Username, res.Email, res.Token)
			a.out.message("Welcome, %s!", res.Username)
			return nil
		},
	}
}

func loginCmd() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in and merge your saved recipes into favorites",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true, Sources: cli.EnvVars("COOKBOOK_PASSWORD")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			res, err := a.api.Login(ctx, cmd.String("email"), cmd.String("password"))
			if err != nil {
				return err
			}
			a.startSession(ctx, res.ID.Hex(), res.Username, res.Email, res.Token)
			a.out.message("Signed in as %s.", res.Username)
			return nil
		},
	}
}

func logoutCmd() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Forget the stored session",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			a.state.SetSession(nil)
			a.api.SetToken("")
			a.save()
			a.out.message("Signed out.")
			return nil
		},
	}
}

func communityCmd() *cli.Command {
	return &cli.Command{
		Name:  "community",
		Usage: "List community recipes",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "tag", Usage: "require a tag (repeatable)"},
			&cli.StringFlag{Name: "difficulty", Usage: "Easy, Medium or Hard"},
			&cli.IntFlag{Name: "max-time", Usage: "maximum cooking time in minutes"},
			&cli.FloatFlag{Name: "min-rating", Usage: "minimum average rating"},
			&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "title contains"},
			&cli.StringFlag{Name: "sort", Usage: "newest, rating or time"},
			&cli.IntFlag{Name: "page"},
			&cli.IntFlag{Name: "limit"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			list, err := a.api.ListRecipes(ctx, client.ListOptions{
				Tags:       cmd.StringSlice("tag"),
				Difficulty: cmd.String("difficulty"),
				MaxTime:    int(cmd.Int("max-time")),
				MinRating:  cmd.Float("min-rating"),
				Search:     cmd.String("search"),
				Sort:       cmd.String("sort"),
				Page:       int(cmd.Int("page")),
				Limit:      int(cmd.Int("limit")),
			})
			if err != nil {
				return err
			}
			recipes := client.FromCommunityList(list, a.api.BaseURL())
			a.state.SetCommunity(recipes)
			a.save()
			return a.out.recipes(recipes)
		},
	}
}

func submitCmd() *cli.Command {
	return &cli.Command{
		Name:  "submit",
		Usage: "Share a recipe with the community",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Required: true},
			&cli.StringSliceFlag{Name: "ingredient", Aliases: []string{"i"}, Required: true, Usage: "ingredient (repeatable)"},
			&cli.StringSliceFlag{Name: "step", Required: true, Usage: "instruction step (repeatable)"},
			&cli.IntFlag{Name: "time", Usage: "cooking time in minutes (default 30)"},
			&cli.IntFlag{Name: "servings", Usage: "servings (default 4)"},
			&cli.StringFlag{Name: "difficulty", Usage: "Easy, Medium or Hard (default Medium)"},
			&cli.StringSliceFlag{Name: "tag"},
			&cli.StringFlag{Name: "image", Usage: "path to a JPEG, PNG, GIF or WebP image"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			if _, err := a.requireSession(); err != nil {
				return err
			}
			if img := cmd.String("image"); img != "" {
				if _, err := os.Stat(img); err != nil {
					return fmt.Errorf("image: %w", err)
				}
			}
			created, err := a.api.CreateRecipe(ctx, client.RecipeInput{
				Title:        cmd.String("title"),
				Ingredients:  cmd.StringSlice("ingredient"),
				Instructions: cmd.StringSlice("step"),
				CookingTime:  int(cmd.Int("time")),
				Servings:     int(cmd.Int("servings")),
				Difficulty:   cmd.String("difficulty"),
				Tags:         cmd.StringSlice("tag"),
				ImagePath:    cmd.String("image"),
			})
			if err != nil {
				return err
			}
			r := client.FromCommunity(*created, a.api.BaseURL())
			a.state.AddCommunity(r)
			a.save()
			a.out.message("Created %s", r.ID)
			return a.out.recipe(r)
		},
	}
}

func reviewCmd() *cli.Command {
	return &cli.Command{
		Name:      "review",
		Usage:     "Rate a community recipe",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "rating", Aliases: []string{"r"}, Required: true, Usage: "1 to 5"},
			&cli.StringFlag{Name: "text", Usage: "review text"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := communityArg(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			if _, err := a.requireSession(); err != nil {
				return err
			}
			updated, err := a.api.AddReview(ctx, id, int(cmd.Int("rating")), cmd.String("text"))
			if err != nil {
				return err
			}
			a.out.message("Thanks! %q is now rated %.1f from %d reviews.", updated.Title, updated.Rating, len(updated.Reviews))
			return nil
		},
	}
}

func saveCmd() *cli.Command {
	return &cli.Command{
		Name:      "save",
		Usage:     "Save a community recipe to your account",
		ArgsUsage: "<id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := communityArg(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			if _, err := a.requireSession(); err != nil {
				return err
			}
			if _, err := a.api.SaveRecipe(ctx, id); err != nil {
				return err
			}
			if r, err := a.fetch(ctx, client.RecipeID{Source: client.SourceCommunity, ID: id}); err == nil {
				a.state.MergeSaved([]client.Recipe{r})
				a.save()
			}
			a.out.message("Recipe saved to collection")
			return nil
		},
	}
}

func unsaveCmd() *cli.Command {
	return &cli.Command{
		Name:      "unsave",
		Usage:     "Remove a community recipe from your account",
		ArgsUsage: "<id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := communityArg(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			if _, err := a.requireSession(); err != nil {
				return err
			}
			if _, err := a.api.RemoveRecipe(ctx, id); err != nil {
				return err
			}
			rid := client.RecipeID{Source: client.SourceCommunity, ID: id}
			if a.state.IsFavorite(rid) {
				a.state.ToggleFavorite(client.Recipe{ID: rid})
				a.save()
			}
			a.out.message("Recipe removed from collection")
			return nil
		},
	}
}

func savedCmd() *cli.Command {
	return &cli.Command{
		Name:  "saved",
		Usage: "List the recipes saved to your account",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			if _, err := a.requireSession(); err != nil {
				return err
			}
			list, err := a.api.SavedRecipes(ctx)
			if err != nil {
				return err
			}
			saved := client.FromCommunityList(list, a.api.BaseURL())
			a.state.MergeSaved(saved)
			a.save()
			return a.out.recipes(saved)
		},
	}
}

func favoritesCmd() *cli.Command {
	return &cli.Command{
		Name:  "favorites",
		Usage: "List local favorites",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			return a.out.recipes(a.state.Favorites())
		},
	}
}

func favCmd() *cli.Command {
	return &cli.Command{
		Name:      "fav",
		Usage:     "Add a recipe to local favorites, or remove it if already there",
		ArgsUsage: "<id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := recipeArg(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			r := client.Recipe{ID: id}
			if !a.state.IsFavorite(id) {
				if r, err = a.fetch(ctx, id); err != nil {
					return err
				}
			}
			added := a.state.ToggleFavorite(r)
			if err := a.state.Save(); err != nil {
				return err
			}
			if added {
				a.out.message("Added %q to favorites", r.Title)
			} else {
				a.out.message("Removed %s from favorites", id)
			}
			return nil
		},
	}
}

func statsCmd() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show statistics for your own recipes",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			if _, err := a.requireSession(); err != nil {
				return err
			}
			stats, err := a.api.Stats(ctx)
			if err != nil {
				return err
			}
			return a.out.stats(*stats)
		},
	}
}

func cardCmd() *cli.Command {
	return &cli.Command{
		Name:      "card",
		Usage:     "Download a printable PDF card for a community recipe",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "file to write (default recipe-<id>.pdf)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := communityArg(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			pdf, err := a.api.RecipeCard(ctx, id)
			if err != nil {
				return err
			}
			path := cmd.String("output")
			if path == "" {
				path = "recipe-" + id + ".pdf"
			}
			if err := os.WriteFile(path, pdf, 0o644); err != nil {
				return fmt.Errorf("write card: %w", err)
			}
			a.out.message("Wrote %s", path)
			return nil
		},
	}
}
