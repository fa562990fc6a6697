package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"navigation-simulator/internal/db"
	"navigation-simulator/internal/directions"
	"navigation-simulator/internal/navigator"
	"navigation-simulator/internal/route"
)

// RouteStore loads and saves routes. It is optional.
type RouteStore interface {
	SaveRoute(ctx context.Context, name string, rt route.Route) (int64, error)
	LoadRoute(ctx context.Context, id int64) (route.Route, error)
	ListRoutes(ctx context.Context, limit int) ([]db.RouteInfo, error)
}

// RouteFetcher requests routes from a directions service. It is optional.
type RouteFetcher interface {
	Fetch(ctx context.Context, locations ...orb.Point) (route.Route, []byte, error)
}

// PlaybackHandler handles HTTP requests that start and inspect playbacks.
type PlaybackHandler struct {
	nav     *navigator.Navigator
	routes  RouteStore
	fetcher RouteFetcher
	log     *zap.Logger
}

// NewPlaybackHandler creates a new PlaybackHandler. routes and fetcher may be nil.
func NewPlaybackHandler(nav *navigator.Navigator, routes RouteStore, fetcher RouteFetcher, log *zap.Logger) *PlaybackHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &PlaybackHandler{nav: nav, routes: routes, fetcher: fetcher, log: log}
}

// RegisterRoutes registers all playback and route routes.
func (h *PlaybackHandler) RegisterRoutes(r *gin.RouterGroup) {
	playbacks := r.Group("/api/v1/playbacks")
	{
		playbacks.POST("", h.StartPlayback)
		playbacks.GET("/current", h.GetCurrent)
		playbacks.GET("/current/line", h.GetCurrentLine)
	}
	routes := r.Group("/api/v1/routes")
	{
		routes.GET("", h.ListRoutes)
	}
}

// StartPlaybackRequest names the route to play. Exactly one source is used, in
// order of precedence: a stored route id, a saved directions response, a list
// of locations to request directions for.
type StartPlaybackRequest struct {
	RouteID    int64           `json:"routeId"`
	Directions json.RawMessage `json:"directions,omitempty"`
	Locations  [][2]float64    `json:"locations,omitempty"`
	Save       bool            `json:"save"`
	Name       string          `json:"name"`
}

type startPlaybackResponse struct {
	Session   string `json:"session"`
	RouteID   int64  `json:"routeId,omitempty"`
	StepCount int    `json:"stepCount"`
}

// StartPlayback resolves a route and plays it, superseding any running playback.
func (h *PlaybackHandler) StartPlayback(c *gin.Context) {
	var req StartPlaybackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	ctx := c.Request.Context()

	rt, routeID, err := h.resolve(ctx, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	if rt.Empty() {
		h.fail(c, navigator.ErrEmptyRoute)
		return
	}
	if req.Save && routeID == 0 && h.routes != nil {
		if routeID, err = h.routes.SaveRoute(ctx, req.Name, rt); err != nil {
			h.fail(c, err)
			return
		}
	}

	session, err := h.nav.Launch(rt, routeID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"success": true, "data": startPlaybackResponse{
		Session:   session.String(),
		RouteID:   routeID,
		StepCount: len(rt.Steps()),
	}})
}

var (
	errNoSource     = errors.New("one of routeId, directions or locations is required")
	errNoStore      = errors.New("route storage is not configured")
	errNoDirections = errors.New("directions are not configured")
	errBadResponse  = errors.New("invalid directions response")
)

func (h *PlaybackHandler) resolve(ctx context.Context, req StartPlaybackRequest) (route.Route, int64, error) {
	switch {
	case req.RouteID > 0:
		if h.routes == nil {
			return route.Route{}, 0, errNoStore
		}
		rt, err := h.routes.LoadRoute(ctx, req.RouteID)
		return rt, req.RouteID, err
	case len(req.Directions) > 0 && string(req.Directions) != "null":
		rt, err := directions.Decode(req.Directions)
		if err != nil && !errors.Is(err, directions.ErrNoRoute) {
			err = fmt.Errorf("%w: %v", errBadResponse, err)
		}
		return rt, 0, err
	case len(req.Locations) > 0:
		if h.fetcher == nil {
			return route.Route{}, 0, errNoDirections
		}
		locs := make([]orb.Point, len(req.Locations))
		for i, l := range req.Locations {
			locs[i] = orb.Point(l)
		}
		rt, _, err := h.fetcher.Fetch(ctx, locs...)
		return rt, 0, err
	}
	return route.Route{}, 0, errNoSource
}

// GetCurrent returns the state of the live playback.
func (h *PlaybackHandler) GetCurrent(c *gin.Context) {
	st, _, ok := h.nav.Status()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "no playback"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": st})
}

// GetCurrentLine returns the live playback's route as GeoJSON.
func (h *PlaybackHandler) GetCurrentLine(c *gin.Context) {
	_, rt, ok := h.nav.Status()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "no playback"})
		return
	}
	c.JSON(http.StatusOK, directions.RouteLine(rt))
}

// ListRoutes returns the stored routes.
func (h *PlaybackHandler) ListRoutes(c *gin.Context) {
	if h.routes == nil {
		h.fail(c, errNoStore)
		return
	}
	list, err := h.routes.ListRoutes(c.Request.Context(), 50)
	if err != nil {
		h.fail(c, err)
		return
	}
	if list == nil {
		list = []db.RouteInfo{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": list})
}

func (h *PlaybackHandler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errNoSource), errors.Is(err, errBadResponse), errors.Is(err, directions.ErrTooFewLocations):
		status = http.StatusBadRequest
	case errors.Is(err, db.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, navigator.ErrEmptyRoute), errors.Is(err, directions.ErrNoRoute):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, errNoStore), errors.Is(err, errNoDirections):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		h.log.Error("playback request failed", zap.Error(err))
	}
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}
