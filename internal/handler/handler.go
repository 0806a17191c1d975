// Package handler serves the single stats endpoint. Requests are dispatched on
// the action query parameter.
package handler

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/arungupta/strava-stats-proxy/internal/api"
	"github.com/arungupta/strava-stats-proxy/internal/auth"
	"github.com/arungupta/strava-stats-proxy/internal/config"
	"github.com/arungupta/strava-stats-proxy/internal/polyline"
	"github.com/arungupta/strava-stats-proxy/internal/route"
)

// Tokens is the part of auth.Client the handler needs.
type Tokens interface {
	ExchangeCode(ctx context.Context, code string) (*auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	AccessToken(ctx context.Context) (*auth.TokenPair, error)
	Seed(ctx context.Context, refreshToken string) error
}

// Activities is the part of api.Client the handler needs.
type Activities interface {
	FetchRecent(ctx context.Context, accessToken string, weeksSince, monthSince time.Time) (*api.Recent, error)
}

// StatsStrategy captures how deployments differ in the stats response.
type StatsStrategy struct {
	// WeekCount is the number of calendar weeks bucketed, newest first.
	WeekCount int
	// SingleWeek emits only the current week's seven days instead of a list
	// of weeks. WeekCount is ignored.
	SingleWeek bool
	// TokenFromRequest takes the refresh token from the refresh_token query
	// parameter and hands the rotated one back in the response instead of
	// persisting it.
	TokenFromRequest bool
	// Renderer draws the latest activity's route. Nil disables maps.
	Renderer route.Renderer
}

// ValidationError reports a bad or missing request parameter.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type Handler struct {
	Tokens     Tokens
	Activities Activities
	Strategy   StatsStrategy
	// AdminKey enables the seed action. Empty rejects every seed request.
	AdminKey string
	Location *time.Location
	Now      func() time.Time
}

func New(tokens Tokens, activities Activities, strategy StatsStrategy, adminKey string, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		Tokens:     tokens,
		Activities: activities,
		Strategy:   strategy,
		AdminKey:   adminKey,
		Location:   loc,
		Now:        time.Now,
	}
}

// NewFromConfig builds a Handler whose stats strategy follows cfg.
func NewFromConfig(cfg *config.Config, tokens Tokens, activities Activities) (*Handler, error) {
	renderer, err := route.NewRenderer(cfg.MapRenderer, cfg.MapboxAccessToken)
	if err != nil {
		return nil, err
	}
	strategy := StatsStrategy{
		WeekCount:        cfg.StatsWeeks,
		SingleWeek:       cfg.StatsLayout == config.LayoutDays,
		TokenFromRequest: cfg.AllowRequestRefreshToken,
		Renderer:         renderer,
	}
	return New(tokens, activities, strategy, cfg.AdminKey, cfg.Location), nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	switch r.URL.Query().Get("action") {
	case "exchange":
		h.exchange(w, r)
	case "seed":
		h.seed(w, r)
	case "stats":
		h.stats(w, r)
	default:
		writeError(w, &ValidationError{Message: "Invalid action"}, "")
	}
}

func (h *Handler) exchange(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, &ValidationError{Message: "Missing code"}, "")
		return
	}

	pair, err := h.Tokens.ExchangeCode(r.Context(), code)
	if err != nil {
		log.Printf("Code exchange failed: %v", err)
		writeError(w, err, "Token exchange failed")
		return
	}
	writeJSON(w, http.StatusOK, pair.Raw)
}

func (h *Handler) seed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if h.AdminKey == "" || subtle.ConstantTimeCompare([]byte(q.Get("admin_key")), []byte(h.AdminKey)) != 1 {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Unauthorized"})
		return
	}

	seedToken := q.Get("seed_token")
	if seedToken == "" {
		writeError(w, &ValidationError{Message: "Missing seed_token"}, "")
		return
	}

	if err := h.Tokens.Seed(r.Context(), seedToken); err != nil {
		log.Printf("Seeding refresh token failed: %v", err)
		writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"message": "Token stored successfully",
	})
}

type statsResponse struct {
	TotalKm        float64         `json:"totalKm"`
	WeeklyDays     any             `json:"weeklyDays"`
	RefreshToken   string          `json:"refresh_token,omitempty"`
	LatestActivity *latestActivity `json:"latestActivity"`
}

type latestActivity struct {
	api.ActivitySummary
	MapURLDark  string        `json:"mapUrlDark,omitempty"`
	MapURLLight string        `json:"mapUrlLight,omitempty"`
	Route       *route.Vector `json:"route,omitempty"`
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pair, err := h.accessToken(r)
	if err != nil {
		log.Printf("Token refresh failed: %v", err)
		writeError(w, err, "Token refresh failed")
		return
	}

	now := h.Now().In(h.Location)
	weekCount := h.Strategy.WeekCount
	if h.Strategy.SingleWeek || weekCount < 1 {
		weekCount = 1
	}

	recent, err := h.Activities.FetchRecent(ctx, pair.AccessToken, api.WeeksStart(now, weekCount), api.MonthStart(now))
	if err != nil {
		log.Printf("Fetching activities failed: %v", err)
		writeError(w, err, "")
		return
	}

	weeks := api.BuildWeeks(recent.Weeks, now, weekCount)
	resp := statsResponse{
		TotalKm:    api.MonthlyTotal(recent.Month, now),
		WeeklyDays: weeks,
	}
	if h.Strategy.SingleWeek {
		resp.WeeklyDays = weeks[0]
	}
	if h.Strategy.TokenFromRequest {
		resp.RefreshToken = pair.RefreshToken
	}
	if recent.Latest != nil {
		resp.LatestActivity = h.summarize(*recent.Latest)
	}

	writeJSON(w, http.StatusOK, resp)
}

// accessToken refreshes either the caller's token or the stored one.
func (h *Handler) accessToken(r *http.Request) (*auth.TokenPair, error) {
	if !h.Strategy.TokenFromRequest {
		return h.Tokens.AccessToken(r.Context())
	}
	refreshToken := r.URL.Query().Get("refresh_token")
	if refreshToken == "" {
		return nil, &ValidationError{Message: "Missing refresh_token"}
	}
	return h.Tokens.Refresh(r.Context(), refreshToken)
}

func (h *Handler) summarize(a api.Activity) *latestActivity {
	latest := &latestActivity{ActivitySummary: api.Summarize(a)}
	if h.Strategy.Renderer == nil || a.Map.SummaryPolyline == "" {
		return latest
	}

	points, err := polyline.Decode(a.Map.SummaryPolyline)
	if err != nil {
		log.Printf("Skipping route map for activity %d: %v", a.ID, err)
		return latest
	}
	if m := h.Strategy.Renderer.Render(points); m != nil {
		latest.MapURLDark = m.URLs[route.StyleDark]
		latest.MapURLLight = m.URLs[route.StyleLight]
		latest.Route = m.Vector
	}
	return latest
}

type errorBody struct {
	Error  string `json:"error"`
	Detail any    `json:"detail,omitempty"`
}

// writeError maps err to a status and body. authMessage labels auth failures
// for the operation that hit them.
func writeError(w http.ResponseWriter, err error, authMessage string) {
	var (
		validationErr *ValidationError
		configErr     *auth.ConfigError
		authErr       *auth.AuthError
		apiErr        *api.APIError
	)

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: validationErr.Message})
	case errors.As(err, &configErr):
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: configErr.Message})
	case errors.As(err, &authErr):
		if authMessage == "" {
			authMessage = "Token refresh failed"
		}
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: authMessage, Detail: authErr.Detail})
	case errors.As(err, &apiErr):
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Failed to fetch activities", Detail: apiErr.Message})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error", Detail: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
