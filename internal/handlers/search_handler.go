package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/counselorcorner/storefront_be/internal/services/search"
)

type SearchHandler struct {
	Search *search.Client
}

func NewSearchHandler(s *search.Client) *SearchHandler {
	return &SearchHandler{Search: s}
}

func splitParam(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (h *SearchHandler) Query(c *fiber.Ctx) error {
	params := search.Params{
		Query:      c.Query("q"),
		Type:       c.Query("type"),
		Categories: splitParam(c.Query("categories")),
		Grades:     splitParam(c.Query("grades")),
		Tags:       splitParam(c.Query("tags")),
		PriceMin:   c.QueryFloat("price_min", 0),
		PriceMax:   c.QueryFloat("price_max", 0),
		SortBy:     c.Query("sort_by", "relevance"),
		Page:       c.QueryInt("page", 1),
		Limit:      c.QueryInt("limit", 20),
	}
	if params.Limit > 100 {
		params.Limit = 100
	}

	res, err := h.Search.Search(c.Context(), params)
	if err != nil {
		log.Error().Err(err).Str("query", params.Query).Msg("search request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "search is temporarily unavailable",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    res,
	})
}
