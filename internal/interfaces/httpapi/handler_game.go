package httpapi

import (
	"net/http"

	"github.com/riskibarqy/domatch/internal/usecase"
)

// Scores are pointers so that a missing field is rejected rather than read as 0.
type recordMatchRequest struct {
	Player1Score *int    `json:"player1_score" validate:"required,min=0,max=1000"`
	Player2Score *int    `json:"player2_score" validate:"required,min=0,max=1000"`
	Notes        *string `json:"notes" validate:"omitempty,max=500"`
}

func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetGame")
	defer span.End()

	gameID := r.PathValue("gameID")
	detail, err := h.gameService.GetDetail(ctx, gameID)
	if err != nil {
		h.failed(ctx, w, "get game failed", err, "game_id", gameID)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, gameDetailToDTO(detail))
}

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatches")
	defer span.End()

	gameID := r.PathValue("gameID")
	matches, err := h.gameService.ListMatches(ctx, gameID)
	if err != nil {
		h.failed(ctx, w, "list matches failed", err, "game_id", gameID)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, mapSlice(matches, matchToDTO))
}

func (h *Handler) RecordMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecordMatch")
	defer span.End()

	var req recordMatchRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	gameID := r.PathValue("gameID")
	m, err := h.gameService.RecordMatch(ctx, usecase.RecordMatchInput{
		GameID:       gameID,
		Player1Score: *req.Player1Score,
		Player2Score: *req.Player2Score,
		Notes:        req.Notes,
	})
	if err != nil {
		h.failed(ctx, w, "record match failed", err, "game_id", gameID)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, matchToDTO(m))
}

func (h *Handler) GetGameScore(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetGameScore")
	defer span.End()

	gameID := r.PathValue("gameID")
	p1, p2, err := h.gameService.ComputeAggregateScores(ctx, gameID)
	if err != nil {
		h.failed(ctx, w, "compute game score failed", err, "game_id", gameID)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, gameScoreDTO{
		GameID:       gameID,
		Player1Score: p1,
		Player2Score: p2,
	})
}

func (h *Handler) FinishGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.FinishGame")
	defer span.End()

	gameID := r.PathValue("gameID")
	g, err := h.gameService.FinishGame(ctx, gameID)
	if err != nil {
		h.failed(ctx, w, "finish game failed", err, "game_id", gameID, "tie_policy", string(h.gameService.TiePolicy()))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, gameToDTO(g))
}
