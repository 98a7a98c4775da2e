package handlers

import (
	"errors"
	"log"

	"github.com/ad-match/site/recommend"
	"github.com/ad-match/site/ui"
	"github.com/gofiber/fiber/v2"
)

// RecommendationsResponse is the JSON body of the recommendation endpoints
type RecommendationsResponse struct {
	Query           string             `json:"query"`
	Category        string             `json:"category,omitempty"`
	Count           int                `json:"count"`
	Recommendations []recommend.AdView `json:"recommendations"`
}

func HandleHome(c *fiber.Ctx) error {
	return render(c, ui.HomePage(defaultCount))
}

// HandleRecommendationsFragment renders result cards for htmx. Problems are
// rendered inline with status 200 so htmx swaps them into the page.
func HandleRecommendationsFragment(c *fiber.Ctx) error {
	query := ParseQuery(c)
	if query == "" {
		return render(c, ui.WarningMessage(ui.EnterInterestsMessage))
	}

	k, err := ParseCount(c)
	if err != nil {
		return render(c, ui.ErrorMessage(err.Error()))
	}

	views, err := engine.GetRecommendations(c.UserContext(), query, k)
	if errors.Is(err, recommend.ErrQueryValidation) {
		return render(c, ui.ErrorMessage(err.Error()))
	}
	if err != nil {
		log.Printf("[http] Recommendations for %q failed: %v", query, err)
		return render(c, ui.ErrorMessage("Error getting recommendations. Please try again."))
	}
	return render(c, ui.Recommendations(views))
}

func HandleRecommendations(c *fiber.Ctx) error {
	query := ParseQuery(c)
	k, err := ParseCount(c)
	if err != nil {
		return err
	}

	views, err := engine.GetRecommendations(c.UserContext(), query, k)
	if err != nil {
		return err
	}
	return c.JSON(RecommendationsResponse{
		Query:           query,
		Count:           len(views),
		Recommendations: views,
	})
}

func HandleCategoryRecommendations(c *fiber.Ctx) error {
	category, err := PathParam(c, "category")
	if err != nil {
		return err
	}
	k, err := ParseCount(c)
	if err != nil {
		return err
	}

	views, err := engine.GetRecommendationsByCategory(c.UserContext(), category, k)
	if err != nil {
		return err
	}
	return c.JSON(RecommendationsResponse{
		Query:           category,
		Category:        category,
		Count:           len(views),
		Recommendations: views,
	})
}

// HandleAd returns a single catalog ad. Digit-only ids match integer ad ids.
func HandleAd(c *fiber.Ctx) error {
	id, err := PathParam(c, "id")
	if err != nil {
		return err
	}
	a, found, err := engine.GetAd(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !found {
		return fiber.NewError(fiber.StatusNotFound, "ad not found: "+id)
	}
	return c.JSON(a)
}
