package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"lumebackend/internal/delivery/http/helpers"
	"lumebackend/internal/delivery/http/middleware"
	"lumebackend/internal/domain"
)

// uuidRegex matches a canonical UUID string (8-4-4-4-12 hex).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// RandomPersonSuccessResponse is the success envelope for GET /api/matching/person.
// Data is null when no candidate is eligible.
type RandomPersonSuccessResponse struct {
	Data  *domain.Person    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// RandomEventSuccessResponse is the success envelope for GET /api/matching/event.
// Data is null when no candidate is eligible.
type RandomEventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// SwipeRequest is the request body for POST /api/matching/event/swipe.
type SwipeRequest struct {
	EventID string `json:"event_id"`
}

// Validate implements Validator.
func (s SwipeRequest) Validate() []string {
	var errs []string
	if s.EventID == "" {
		errs = append(errs, "event_id is required")
	} else if !uuidRegex.MatchString(s.EventID) {
		errs = append(errs, "event_id must be a valid uuid")
	}
	return errs
}

type MatchingController struct {
	Logger  *slog.Logger
	Service domain.MatchingService
}

func NewMatchingController(logger *slog.Logger, svc domain.MatchingService) *MatchingController {
	return &MatchingController{
		Logger:  logger,
		Service: svc,
	}
}

// RandomPerson godoc
// @Summary Pick a random person
// @Description Returns one uniformly-random person eligible for the caller: not the caller, not a friend, not excluded, matching the optional filters. Data is null when nobody is eligible.
// @Tags matching
// @Produce json
// @Security BearerAuth
// @Param min_age query int false "Minimum age"
// @Param max_age query int false "Maximum age"
// @Param city_id query int false "City id"
// @Param event_id query string false "Exclude members of this event"
// @Param excluded query string false "Comma-separated person ids to exclude"
// @Success 200 {object} RandomPersonSuccessResponse
// @Failure 401 {object} helpers.APIResponse
// @Router /api/matching/person [get]
func (c *MatchingController) RandomPerson(w http.ResponseWriter, r *http.Request) {
	personID, ok := middleware.PersonIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "not authenticated")
		return
	}

	filter, errs := parsePersonFilter(r)
	if len(errs) > 0 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, strings.Join(errs, "; "))
		return
	}

	person, err := c.Service.PickRandomPerson(r.Context(), personID, filter)
	if err != nil {
		if errors.Is(err, domain.ErrNoCandidate) {
			helpers.WriteJSONSuccess(w, http.StatusOK, nil)
			return
		}
		c.Logger.Error("pick random person failed", "error", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "failed to pick a person")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, person)
}

// RandomEvent godoc
// @Summary Pick a random event
// @Description Returns one uniformly-random event open for the caller that was not shown before, records it in the caller's swipe history. Data is null when no event is eligible.
// @Tags matching
// @Produce json
// @Security BearerAuth
// @Param city_id query int false "City id"
// @Param event_type query string false "Event type"
// @Param online query bool false "Online events only (or offline only when false)"
// @Param excluded query string false "Comma-separated event ids to exclude"
// @Success 200 {object} RandomEventSuccessResponse
// @Failure 401 {object} helpers.APIResponse
// @Router /api/matching/event [get]
func (c *MatchingController) RandomEvent(w http.ResponseWriter, r *http.Request) {
	personID, ok := middleware.PersonIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "not authenticated")
		return
	}

	filter, errs := parseEventFilter(r)
	if len(errs) > 0 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, strings.Join(errs, "; "))
		return
	}

	event, err := c.Service.PickRandomEvent(r.Context(), personID, filter)
	if err != nil {
		if errors.Is(err, domain.ErrNoCandidate) {
			helpers.WriteJSONSuccess(w, http.StatusOK, nil)
			return
		}
		c.Logger.Error("pick random event failed", "error", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "failed to pick an event")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// SwipeEvent godoc
// @Summary Record an event swipe
// @Description Marks an event as shown to the caller so later random draws exclude it. Recording the same event twice is a no-op.
// @Tags matching
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SwipeRequest true "Swiped event"
// @Success 204
// @Failure 400 {object} helpers.APIResponse
// @Failure 401 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse
// @Router /api/matching/event/swipe [post]
func (c *MatchingController) SwipeEvent(w http.ResponseWriter, r *http.Request) {
	personID, ok := middleware.PersonIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "not authenticated")
		return
	}

	var req SwipeRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	if err := c.Service.RecordEventSwipe(r.Context(), personID, req.EventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		c.Logger.Error("record swipe failed", "error", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "failed to record swipe")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parsePersonFilter(r *http.Request) (domain.PersonFilter, []string) {
	var filter domain.PersonFilter
	var errs []string
	q := r.URL.Query()

	if s := q.Get("min_age"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			errs = append(errs, "min_age must be a non-negative integer")
		} else {
			filter.MinAge = &v
		}
	}
	if s := q.Get("max_age"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			errs = append(errs, "max_age must be a non-negative integer")
		} else {
			filter.MaxAge = &v
		}
	}
	if s := q.Get("city_id"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			errs = append(errs, "city_id must be an integer")
		} else {
			filter.CityID = &v
		}
	}
	if s := q.Get("event_id"); s != "" {
		if !uuidRegex.MatchString(s) {
			errs = append(errs, "event_id must be a valid uuid")
		} else {
			eventID := s
			filter.EventID = &eventID
		}
	}
	filter.ExcludedIDs = parseIDList(q.Get("excluded"), &errs)
	return filter, errs
}

func parseEventFilter(r *http.Request) (domain.EventFilter, []string) {
	var filter domain.EventFilter
	var errs []string
	q := r.URL.Query()

	if s := q.Get("city_id"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			errs = append(errs, "city_id must be an integer")
		} else {
			filter.CityID = &v
		}
	}
	if s := q.Get("event_type"); s != "" {
		eventType := s
		filter.EventType = &eventType
	}
	if s := q.Get("online"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			errs = append(errs, "online must be a boolean")
		} else {
			filter.IsOnline = &v
		}
	}
	filter.ExcludedIDs = parseIDList(q.Get("excluded"), &errs)
	return filter, errs
}

func parseIDList(s string, errs *[]string) []string {
	if s == "" {
		return nil
	}
	var ids []string
	for _, id := range strings.Split(s, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if !uuidRegex.MatchString(id) {
			*errs = append(*errs, "excluded ids must be valid uuids")
			return nil
		}
		ids = append(ids, id)
	}
	return ids
}
