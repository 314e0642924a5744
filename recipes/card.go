package recipes

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"recipehub/models"
	"recipehub/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// GET /api/recipes/community/:id/card
func (h *Handler) RecipeCard(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, ok := recipeID(w, ps)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	recipe, err := h.store.GetRecipe(ctx, id)
	if err != nil {
		h.storeError(w, r, err, "fetch")
		return
	}

	pdf, err := h.renderCard(recipe)
	if err != nil {
		h.log.Error("render recipe card", zap.Error(err), zap.String("recipeId", id.Hex()))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate recipe card")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=recipe-"+id.Hex()+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

func (h *Handler) recipeURL(recipe *models.CommunityRecipe) string {
	return strings.TrimRight(h.publicURL, "/") + "/api/recipes/community/" + recipe.ID.Hex()
}

func (h *Handler) renderCard(recipe *models.CommunityRecipe) ([]byte, error) {
	qrPNG, err := qrcode.Encode(h.recipeURL(recipe), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("qr code: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(recipe.Title, true)
	pdf.AddPage()

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 160, 10, 35, 35, false, imageOpts, 0, "")

	pdf.SetFont("Arial", "B", 18)
	pdf.MultiCell(140, 9, tr(recipe.Title), "", "L", false)
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 11)
	meta := fmt.Sprintf("%d min  |  serves %d  |  %s", recipe.CookingTime, recipe.Servings, recipe.Difficulty)
	if len(recipe.Reviews) > 0 {
		meta += fmt.Sprintf("  |  %.1f/5 (%d reviews)", recipe.Rating, len(recipe.Reviews))
	}
	pdf.Cell(0, 8, tr(meta))
	pdf.Ln(8)
	if len(recipe.Tags) > 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.Cell(0, 6, tr(strings.Join(recipe.Tags, ", ")))
		pdf.Ln(8)
	}
	pdf.SetY(max(pdf.GetY(), 50))

	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 8, "Ingredients")
	pdf.Ln(9)
	pdf.SetFont("Arial", "", 11)
	for _, ing := range recipe.Ingredients {
		pdf.MultiCell(0, 6, tr("- "+ing), "", "L", false)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 8, "Instructions")
	pdf.Ln(9)
	pdf.SetFont("Arial", "", 11)
	for i, step := range recipe.Instructions {
		pdf.MultiCell(0, 6, tr(fmt.Sprintf("%d. %s", i+1, step)), "", "L", false)
		pdf.Ln(1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return buf.Bytes(), nil
}
