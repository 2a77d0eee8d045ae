package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/eatwhat/eatwhat-api/internal/core/domain"
	"github.com/eatwhat/eatwhat-api/internal/core/ports"
	"github.com/eatwhat/eatwhat-api/internal/pkg/metrics"
)

type RestaurantHandler struct {
	restaurants ports.RestaurantService
}

func NewRestaurantHandler(restaurants ports.RestaurantService) *RestaurantHandler {
	return &RestaurantHandler{restaurants: restaurants}
}

// Submit adds a restaurant to the session ledger.
//
// @Summary      Submit a restaurant
// @Tags         restaurants
// @Accept       json
// @Produce      json
// @Param        code  path      string                   true  "Session code"
// @Param        body  body      submitRestaurantRequest  true  "Candidate"
// @Success      200   {object}  Envelope{data=domain.Restaurant}
// @Failure      400   {object}  Envelope
// @Failure      404   {object}  Envelope
// @Failure      409   {object}  Envelope
// @Router       /sessions/{code}/restaurants [post]
func (h *RestaurantHandler) Submit(c echo.Context) error {
	var req submitRestaurantRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	submitter, err := actor(c, req.SubmittedBy)
	if err != nil {
		return err
	}

	r, err := h.restaurants.Submit(c.Request().Context(), ports.SubmitRestaurantInput{
		SessionCode:    sessionCode(c),
		RestaurantName: req.RestaurantName,
		SubmittedBy:    submitter,
	})
	if err != nil {
		return err
	}
	metrics.RestaurantsSubmittedTotal.Inc()
	return okMsg(c, r, "Restaurant submitted successfully")
}

// List returns the ledger in submission order.
//
// @Summary      List restaurants
// @Tags         restaurants
// @Produce      json
// @Param        code  path      string  true  "Session code"
// @Success      200   {object}  Envelope{data=[]domain.Restaurant}
// @Failure      404   {object}  Envelope
// @Router       /sessions/{code}/restaurants [get]
func (h *RestaurantHandler) List(c echo.Context) error {
	list, err := h.restaurants.List(c.Request().Context(), sessionCode(c))
	if err != nil {
		return err
	}
	return ok(c, list)
}

// Count returns the number of ledger entries.
//
// @Summary      Count restaurants
// @Tags         restaurants
// @Produce      json
// @Param        code  path      string  true  "Session code"
// @Success      200   {object}  Envelope{data=countResponse}
// @Failure      404   {object}  Envelope
// @Router       /sessions/{code}/restaurants/count [get]
func (h *RestaurantHandler) Count(c echo.Context) error {
	n, err := h.restaurants.Count(c.Request().Context(), sessionCode(c))
	if err != nil {
		return err
	}
	return ok(c, countResponse{Count: n})
}

// Random picks one entry and locks the session.
//
// @Summary      Pick a random restaurant
// @Tags         restaurants
// @Produce      json
// @Param        code      path      string  true   "Session code"
// @Param        username  query     string  false  "Requesting user"
// @Success      200       {object}  Envelope{data=domain.Restaurant}
// @Failure      400       {object}  Envelope
// @Failure      404       {object}  Envelope
// @Failure      409       {object}  Envelope
// @Router       /sessions/{code}/restaurants/random [get]
func (h *RestaurantHandler) Random(c echo.Context) error {
	requester, err := actor(c, c.QueryParam("username"))
	if err != nil {
		return err
	}

	r, err := h.restaurants.PickRandom(c.Request().Context(), sessionCode(c), requester)
	metrics.PicksTotal.WithLabelValues(pickOutcome(err)).Inc()
	if err != nil {
		return err
	}
	metrics.SessionsLockedTotal.WithLabelValues("pick").Inc()
	return ok(c, r)
}

// CanRequestRandom reports whether username submitted the first entry.
//
// @Summary      Check pick permission
// @Tags         restaurants
// @Produce      json
// @Param        code      path      string  true  "Session code"
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  Envelope{data=canRequestResponse}
// @Failure      404       {object}  Envelope
// @Router       /sessions/{code}/restaurants/can-request-random/{username} [get]
func (h *RestaurantHandler) CanRequestRandom(c echo.Context) error {
	can, err := h.restaurants.CanRequestRandom(c.Request().Context(), sessionCode(c), c.Param("username"))
	if err != nil {
		return err
	}
	return ok(c, canRequestResponse{CanRequest: can})
}

// Delete removes an entry on behalf of its submitter.
//
// @Summary      Delete a restaurant
// @Tags         restaurants
// @Produce      json
// @Param        code      path      string  true  "Session code"
// @Param        id        path      int     true  "Restaurant ID"
// @Param        username  query     string  false "Submitter (taken from the token when present)"
// @Success      200       {object}  Envelope
// @Failure      400       {object}  Envelope
// @Failure      404       {object}  Envelope
// @Failure      409       {object}  Envelope
// @Router       /sessions/{code}/restaurants/{id} [delete]
func (h *RestaurantHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid restaurant id")
	}
	username, err := actor(c, c.QueryParam("username"))
	if err != nil {
		return err
	}

	if err := h.restaurants.Delete(c.Request().Context(), sessionCode(c), id, username); err != nil {
		return err
	}
	return okMsg(c, nil, "Restaurant deleted successfully")
}

func pickOutcome(err error) string {
	switch {
	case err == nil:
		return "picked"
	case errors.Is(err, domain.ErrSessionLocked), errors.Is(err, domain.ErrSessionAlreadyLocked):
		return "locked"
	case errors.Is(err, domain.ErrEmptyLedger):
		return "empty"
	case errors.Is(err, domain.ErrPickInProgress):
		return "busy"
	case errors.Is(err, domain.ErrNotAuthorized):
		return "denied"
	default:
		return "error"
	}
}
