package display

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/oshokin/meet-desk/internal/domain/meet"
	"github.com/oshokin/meet-desk/internal/domain/plates"
	"github.com/oshokin/meet-desk/internal/domain/risingbar"
	"github.com/oshokin/meet-desk/internal/live"
	"github.com/oshokin/meet-desk/internal/logger"
	"github.com/oshokin/meet-desk/internal/service/desk"
)

// Service abstracts the desk reads the displays depend on.
type Service interface {
	EvaluateWeight(ctx context.Context, weight float64, gender meet.Gender) plates.LoadCheck
	PlatePlan(ctx context.Context, weight float64, gender meet.Gender) plates.Plan
	Queue(ctx context.Context, contestID string, limit int) (risingbar.Result, error)
	CurrentAttempt(ctx context.Context, contestID string) (*meet.CurrentAttempt, error)
	Snapshot(ctx context.Context, contestID string) (live.Snapshot, error)
}

// Subscriber hands out live event streams.
type Subscriber interface {
	Subscribe(contestID string) (<-chan live.Event, func())
}

// DefaultKeepAlive is how often an idle event stream sends a comment line.
const DefaultKeepAlive = 15 * time.Second

// Handlers holds the display endpoints.
type Handlers struct {
	service    Service
	subscriber Subscriber
	keepAlive  time.Duration

	// closing ends every open live stream; the HTTP server waits for them on shutdown.
	closing   chan struct{}
	closeOnce sync.Once
}

// NewHandlers creates display handlers.
func NewHandlers(service Service, subscriber Subscriber, keepAlive time.Duration) *Handlers {
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}

	return &Handlers{
		service:    service,
		subscriber: subscriber,
		keepAlive:  keepAlive,
		closing:    make(chan struct{}),
	}
}

// Close ends the open live streams. New streams end right after their snapshot.
func (h *Handlers) Close() {
	h.closeOnce.Do(func() {
		close(h.closing)
	})
}

// LoadCheckResponse is the body of /plates/check.
type LoadCheckResponse struct {
	Weight     float64       `json:"weight"`
	Gender     meet.Gender   `json:"gender"`
	Loadable   bool          `json:"loadable"`
	Normalized float64       `json:"normalized"`
	Increment  float64       `json:"increment"`
	BarWeight  float64       `json:"barWeight"`
	Reason     plates.Reason `json:"reason,omitempty"`
}

// PlanResponse is the body of /plates/plan.
type PlanResponse struct {
	Plates              []PlanPlate `json:"plates"`
	Exact               bool        `json:"exact"`
	Total               float64     `json:"total"`
	Increment           float64     `json:"increment"`
	TargetWeight        float64     `json:"targetWeight"`
	BarWeight           float64     `json:"barWeight"`
	WeightToLoad        float64     `json:"weightToLoad"`
	ClampWeight         float64     `json:"clampWeight"`
	ClampWeightPerClamp float64     `json:"clampWeightPerClamp"`
}

// PlanPlate is one plate size on each sleeve.
type PlanPlate struct {
	PlateWeight float64 `json:"plateWeight"`
	Count       int     `json:"count"`
	Color       string  `json:"color"`
}

// QueueResponse is the body of /contests/:contestId/queue.
type QueueResponse struct {
	ContestID string             `json:"contestId"`
	Phase     live.PhaseView     `json:"phase"`
	Attempts  []live.AttemptView `json:"attempts"`
}

// CurrentResponse is the body of /contests/:contestId/current.
type CurrentResponse struct {
	ContestID string            `json:"contestId"`
	Current   *live.CurrentView `json:"current"`
}

// CheckWeight handles GET /plates/check?weight=&gender=.
func (h *Handlers) CheckWeight(c echo.Context) error {
	weight, gender, err := weightQuery(c)
	if err != nil {
		return err
	}

	check := h.service.EvaluateWeight(c.Request().Context(), weight, gender)

	return c.JSON(http.StatusOK, LoadCheckResponse{
		Weight:     weight,
		Gender:     gender,
		Loadable:   check.Loadable,
		Normalized: check.Normalized,
		Increment:  check.Increment,
		BarWeight:  check.BarWeight,
		Reason:     check.Reason,
	})
}

// PlatePlan handles GET /plates/plan?weight=&gender=.
func (h *Handlers) PlatePlan(c echo.Context) error {
	weight, gender, err := weightQuery(c)
	if err != nil {
		return err
	}

	plan := h.service.PlatePlan(c.Request().Context(), weight, gender)

	response := PlanResponse{
		Plates:              make([]PlanPlate, 0, len(plan.Plates)),
		Exact:               plan.Exact,
		Total:               plan.Total,
		Increment:           plan.Increment,
		TargetWeight:        plan.TargetWeight,
		BarWeight:           plan.BarWeight,
		WeightToLoad:        plan.WeightToLoad,
		ClampWeight:         plan.ClampWeight,
		ClampWeightPerClamp: plan.ClampWeightPerClamp,
	}

	for _, entry := range plan.Plates {
		response.Plates = append(response.Plates, PlanPlate(entry))
	}

	return c.JSON(http.StatusOK, response)
}

// Queue handles GET /contests/:contestId/queue?limit=.
func (h *Handlers) Queue(c echo.Context) error {
	contestID := c.Param("contestId")

	limit := 0

	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}

		limit = parsed
	}

	result, err := h.service.Queue(c.Request().Context(), contestID, limit)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, QueueResponse{
		ContestID: contestID,
		Phase:     live.NewPhaseView(result.Phase),
		Attempts:  live.NewAttemptViews(result.Attempts),
	})
}

// Current handles GET /contests/:contestId/current.
func (h *Handlers) Current(c echo.Context) error {
	contestID := c.Param("contestId")

	current, err := h.service.CurrentAttempt(c.Request().Context(), contestID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, CurrentResponse{
		ContestID: contestID,
		Current:   live.NewCurrentView(current),
	})
}

// Live handles GET /contests/:contestId/live as a server-sent events stream.
// The first event is a "snapshot" with the full state.
func (h *Handlers) Live(c echo.Context) error {
	contestID := c.Param("contestId")
	ctx := logger.WithKV(c.Request().Context(), "contest_id", contestID)

	// Subscribe first so nothing published while the snapshot is read is lost.
	events, cancel := h.subscriber.Subscribe(contestID)
	defer cancel()

	snapshot, err := h.service.Snapshot(ctx, contestID)
	if err != nil {
		return toHTTPError(err)
	}

	response := c.Response()
	response.Header().Set(echo.HeaderContentType, "text/event-stream")
	response.Header().Set(echo.HeaderCacheControl, "no-cache")
	response.Header().Set(echo.HeaderConnection, "keep-alive")
	response.WriteHeader(http.StatusOK)

	if err = writeEvent(response, "snapshot", snapshot.View()); err != nil {
		return nil //nolint:nilerr // Client went away.
	}

	logger.DebugKV(ctx, "Display subscribed to live feed")

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.DebugKV(ctx, "Display left live feed")

			return nil
		case <-h.closing:
			logger.DebugKV(ctx, "Live feed closed by shutdown")

			return nil
		case <-ticker.C:
			if _, err = fmt.Fprint(response, ": keep-alive\n\n"); err != nil {
				return nil //nolint:nilerr // Client went away.
			}

			response.Flush()
		case event, ok := <-events:
			if !ok {
				return nil
			}

			if err = writeEvent(response, string(event.Type), event); err != nil {
				return nil //nolint:nilerr // Client went away.
			}
		}
	}
}

func writeEvent(response *echo.Response, name string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", name, err)
	}

	if _, err = fmt.Fprintf(response, "event: %s\ndata: %s\n\n", name, body); err != nil {
		return fmt.Errorf("write %s event: %w", name, err)
	}

	response.Flush()

	return nil
}

func weightQuery(c echo.Context) (float64, meet.Gender, error) {
	weight, err := strconv.ParseFloat(c.QueryParam("weight"), 64)
	if err != nil || !meet.IsFinite(weight) {
		return 0, "", echo.NewHTTPError(http.StatusBadRequest, "weight must be a number")
	}

	gender, _ := meet.ParseGender(c.QueryParam("gender"))

	return weight, gender, nil
}

// toHTTPError maps desk errors to HTTP status codes.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, desk.ErrUnknownContest), errors.Is(err, desk.ErrUnknownAttempt):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "desk read failed").SetInternal(err)
	}
}
