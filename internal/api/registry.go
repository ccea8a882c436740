// internal/api/registry.go
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// initRegistryRoutes registers the sign language registry and stats endpoints
func (c *Controller) initRegistryRoutes() {
	c.Group.GET("/languages", c.GetLanguages)
	c.Group.GET("/stats", c.GetStats)
}

// LanguageResponse represents a sign language variant in API responses
type LanguageResponse struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// GetLanguages handles GET /languages, returning the active variants.
func (c *Controller) GetLanguages(ctx echo.Context) error {
	languages, err := c.DS.ActiveSignLanguages()
	if err != nil {
		return c.handleError(ctx, err)
	}

	data := make([]LanguageResponse, 0, len(languages))
	for i := range languages {
		data = append(data, LanguageResponse{
			Code:        languages[i].Code,
			Name:        languages[i].Name,
			Description: languages[i].Description,
		})
	}
	return ctx.JSON(http.StatusOK, data)
}

// GetStats handles GET /stats with landing page aggregates.
func (c *Controller) GetStats(ctx echo.Context) error {
	stats, err := c.Manager.GetStats()
	if err != nil {
		return c.handleError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, stats)
}
