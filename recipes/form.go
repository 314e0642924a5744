package recipes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"recipehub/models"
	"recipehub/utils"
)

// recipeForm is the parsed body of a create or update request. Only fields
// present in the request are set.
type recipeForm struct {
	update models.RecipeUpdate
	image  *multipart.FileHeader
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "multipart/form-data" || mediaType == "application/x-www-form-urlencoded"
}

func (h *Handler) parseRecipeForm(w http.ResponseWriter, r *http.Request) (*recipeForm, error) {
	var (
		form *recipeForm
		err  error
	)
	if isMultipart(r) {
		form, err = h.parseMultipart(w, r)
	} else {
		form, err = parseJSONRecipe(r)
	}
	if err != nil {
		return nil, err
	}
	form.update.Normalize()
	return form, nil
}

func (h *Handler) parseMultipart(w http.ResponseWriter, r *http.Request) (*recipeForm, error) {
	maxMemory := int64(10 << 20)
	if h.uploads != nil && h.uploads.MaxSize > 0 {
		maxMemory = h.uploads.MaxSize
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxMemory+(1<<20))
	if err := r.ParseMultipartForm(maxMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, fmt.Errorf("failed to parse form: %w", err)
	}
	if r.PostForm == nil {
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("failed to parse form: %w", err)
		}
	}

	values := func(key string) (string, bool) {
		v, ok := r.PostForm[key]
		if !ok || len(v) == 0 {
			return "", false
		}
		return v[0], true
	}

	form := &recipeForm{}
	if err := fillUpdate(&form.update, values); err != nil {
		return nil, err
	}
	if r.MultipartForm != nil {
		if files := r.MultipartForm.File["image"]; len(files) > 0 {
			form.image = files[0]
		}
	}
	return form, nil
}

// fillUpdate reads every recipe field through get, which reports presence.
func fillUpdate(upd *models.RecipeUpdate, get func(string) (string, bool)) error {
	if v, ok := get("title"); ok {
		upd.Title = &v
	}
	if v, ok := get("ingredients"); ok {
		items, err := utils.ParseList(v)
		if err != nil {
			return fmt.Errorf("ingredients: %w", err)
		}
		upd.Ingredients = items
	}
	if v, ok := get("instructions"); ok {
		items, err := utils.ParseLines(v)
		if err != nil {
			return fmt.Errorf("instructions: %w", err)
		}
		upd.Instructions = items
	}
	if v, ok := get("tags"); ok {
		items, err := utils.ParseList(v)
		if err != nil {
			return fmt.Errorf("tags: %w", err)
		}
		upd.Tags = items
	}
	if v, ok := get("cookingTime"); ok && strings.TrimSpace(v) != "" {
		n, err := positiveInt("cookingTime", v)
		if err != nil {
			return err
		}
		upd.CookingTime = &n
	}
	if v, ok := get("servings"); ok && strings.TrimSpace(v) != "" {
		n, err := positiveInt("servings", v)
		if err != nil {
			return err
		}
		upd.Servings = &n
	}
	if v, ok := get("difficulty"); ok && strings.TrimSpace(v) != "" {
		d, err := models.ParseDifficulty(v)
		if err != nil {
			return err
		}
		upd.Difficulty = &d
	}
	return nil
}

func positiveInt(name, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return n, nil
}

// parseJSONRecipe accepts list fields as arrays or as strings, and numbers as
// numbers or numeric strings.
func parseJSONRecipe(r *http.Request) (*recipeForm, error) {
	var body map[string]json.RawMessage
	if err := utils.DecodeJSON(r, &body); err != nil {
		return nil, err
	}

	get := func(key string) (string, bool) {
		raw, ok := body[key]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return "", false
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s, true
		}
		// arrays and numbers are handed on in their JSON text form
		return string(raw), true
	}

	form := &recipeForm{}
	if err := fillUpdate(&form.update, get); err != nil {
		return nil, err
	}
	return form, nil
}
