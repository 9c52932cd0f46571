package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/fantasy-matchengine/internal/domain/scoring"
	"github.com/riskibarqy/fantasy-matchengine/internal/platform/logging"
	"github.com/riskibarqy/fantasy-matchengine/internal/usecase"
)

type Handler struct {
	simulationService *usecase.SimulationService
	logger            *logging.Logger
	validator         *validator.Validate
}

func NewHandler(simulationService *usecase.SimulationService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		simulationService: simulationService,
		logger:            logger,
		validator:         validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func (h *Handler) decodeRequest(r *http.Request, payload any) error {
	if err := requestJSON.NewDecoder(r.Body).Decode(payload); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return h.validateRequest(r.Context(), payload)
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"status":       "ok",
		"live_matches": len(h.simulationService.ListMatches(ctx)),
	})
}

func (h *Handler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateMatch")
	defer span.End()

	var req createMatchRequest
	if err := h.decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	state, err := h.simulationService.CreateMatch(ctx, usecase.CreateMatchInput{
		MatchID: req.MatchID,
		Home:    teamRequestToInput(req.Home),
		Away:    teamRequestToInput(req.Away),
		Seed:    req.Seed,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create match failed", "match_id", req.MatchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, matchStateToDTO(state, false))
}

func teamRequestToInput(req teamRequest) usecase.TeamInput {
	players := make([]usecase.LineupInput, 0, len(req.Players))
	for _, p := range req.Players {
		players = append(players, usecase.LineupInput{
			PlayerID: p.PlayerID,
			Position: p.Position,
			Starting: p.Starting,
		})
	}
	return usecase.TeamInput{ID: req.ID, Name: req.Name, Players: players}
}

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatches")
	defer span.End()

	states := h.simulationService.ListMatches(ctx)
	out := make([]matchStateDTO, 0, len(states))
	for _, s := range states {
		out = append(out, matchStateToDTO(s, false))
	}

	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatch")
	defer span.End()

	state, err := h.simulationService.GetState(ctx, strings.TrimSpace(r.PathValue("matchID")))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchStateToDTO(state, true))
}

func (h *Handler) StartMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartMatch")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	state, err := h.simulationService.StartMatch(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "start match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchStateToDTO(state, false))
}

func (h *Handler) StopMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StopMatch")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	state, err := h.simulationService.StopMatch(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "stop match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchStateToDTO(state, false))
}

// ListMatchEvents supports incremental polling via ?after=<sequence>.
func (h *Handler) ListMatchEvents(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatchEvents")
	defer span.End()

	after := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("after")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: invalid after sequence %q", usecase.ErrInvalidInput, raw))
			return
		}
		after = parsed
	}

	events, err := h.simulationService.ListEvents(ctx, strings.TrimSpace(r.PathValue("matchID")), after)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, eventsToDTO(events))
}

func (h *Handler) GetMatchPoints(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatchPoints")
	defer span.End()

	results, err := h.simulationService.MatchPoints(ctx, strings.TrimSpace(r.PathValue("matchID")))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]pointsDTO, 0, len(results))
	for _, item := range results {
		out = append(out, pointsToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) ComputePoints(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ComputePoints")
	defer span.End()

	var req computePointsRequest
	if err := h.decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.simulationService.ComputePoints(ctx, usecase.ComputePointsInput{
		PlayerID: req.PlayerID,
		MatchID:  req.MatchID,
		Position: req.Position,
		Stats:    req.Stats,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, pointsToDTO(result))
}

func (h *Handler) ComputeGameweekPoints(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ComputeGameweekPoints")
	defer span.End()

	var req gameweekPointsRequest
	if err := h.decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	total, err := h.simulationService.GameweekPoints(ctx, usecase.GameweekInput{
		Gameweek: req.Gameweek,
		MatchIDs: req.MatchIDs,
		Lineup: scoring.Lineup{
			TeamID:        req.TeamID,
			StarterIDs:    req.StarterIDs,
			BenchIDs:      req.BenchIDs,
			CaptainID:     req.CaptainID,
			ViceCaptainID: req.ViceCaptainID,
		},
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, gameweekToDTO(total))
}
