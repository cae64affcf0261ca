package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parkease/internal/model"
	"github.com/iliyamo/parkease/internal/repository"
)

// SpotHandler serves the public spot listing.
type SpotHandler struct {
	Spots *repository.SpotRepo
}

type spotsResp struct {
	Spots []model.Spot    `json:"spots"`
	Stats model.SpotStats `json:"stats"`
}

// List returns all spots ordered by label with aggregate counts.  With
// ?status=available only bookable spots are listed.
func (h *SpotHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	var (
		spots []model.Spot
		err   error
	)
	switch c.QueryParam("status") {
	case "":
		spots, err = h.Spots.ListSpots(ctx)
	case string(model.StatusAvailable):
		spots, err = h.Spots.ListAvailable(ctx)
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status filter supports only available"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load spots"})
	}
	st, err := h.Spots.Stats(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load stats"})
	}
	return c.JSON(http.StatusOK, spotsResp{Spots: spots, Stats: st})
}

// Get returns one spot by label.
func (h *SpotHandler) Get(c echo.Context) error {
	s, err := h.Spots.GetSpotByLabel(c.Request().Context(), c.Param("label"))
	if err != nil {
		if errors.Is(err, repository.ErrSpotNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "spot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load spot"})
	}
	return c.JSON(http.StatusOK, s)
}
