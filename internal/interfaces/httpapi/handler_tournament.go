package httpapi

import (
	"net/http"
	"time"

	"github.com/riskibarqy/domatch/internal/usecase"
)

type createTournamentRequest struct {
	Name            string     `json:"name" validate:"required,max=100"`
	Description     string     `json:"description" validate:"omitempty,max=1000"`
	StartDate       time.Time  `json:"start_date" validate:"required"`
	EndDate         *time.Time `json:"end_date"`
	MaxParticipants int        `json:"max_participants" validate:"required,min=2"`
	Prize           *string    `json:"prize" validate:"omitempty,max=200"`
}

type joinTournamentRequest struct {
	PlayerID string `json:"player_id" validate:"required"`
}

func (h *Handler) ListTournaments(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTournaments")
	defer span.End()

	items, err := h.tournamentService.List(ctx, r.URL.Query().Get("status"))
	if err != nil {
		h.failed(ctx, w, "list tournaments failed", err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, mapSlice(items, tournamentToDTO))
}

func (h *Handler) CreateTournament(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateTournament")
	defer span.End()

	actor, err := actorFromContext(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req createTournamentRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.tournamentService.Create(ctx, usecase.CreateTournamentInput{
		Actor:           actor,
		Name:            req.Name,
		Description:     req.Description,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		MaxParticipants: req.MaxParticipants,
		Prize:           req.Prize,
	})
	if err != nil {
		h.failed(ctx, w, "create tournament failed", err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, tournamentToDTO(created))
}

func (h *Handler) ListTournamentParticipants(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTournamentParticipants")
	defer span.End()

	tournamentID := r.PathValue("tournamentID")
	items, err := h.tournamentService.ListParticipants(ctx, tournamentID)
	if err != nil {
		h.failed(ctx, w, "list tournament participants failed", err, "tournament_id", tournamentID)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, mapSlice(items, participantToDTO))
}

func (h *Handler) JoinTournament(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.JoinTournament")
	defer span.End()

	var req joinTournamentRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	tournamentID := r.PathValue("tournamentID")
	participant, err := h.tournamentService.JoinTournament(ctx, usecase.JoinTournamentInput{
		TournamentID: tournamentID,
		PlayerID:     req.PlayerID,
	})
	if err != nil {
		h.failed(ctx, w, "join tournament failed", err, "tournament_id", tournamentID, "player_id", req.PlayerID)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, participantToDTO(participant))
}
