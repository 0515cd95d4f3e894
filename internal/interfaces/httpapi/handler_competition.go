package httpapi

import (
	"net/http"
	"time"

	"github.com/riskibarqy/domatch/internal/usecase"
)

type createCompetitionRequest struct {
	CommunityID string     `json:"community_id" validate:"required"`
	Name        string     `json:"name" validate:"required,max=100"`
	Description *string    `json:"description" validate:"omitempty,max=500"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

type createGameRequest struct {
	Player1ID string `json:"player1_id" validate:"required"`
	Player2ID string `json:"player2_id" validate:"required,nefield=Player1ID"`
}

func (h *Handler) ListCompetitions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListCompetitions")
	defer span.End()

	query := r.URL.Query()
	items, err := h.competitionService.List(ctx, usecase.ListCompetitionsInput{
		CommunityID: query.Get("community_id"),
		Status:      query.Get("status"),
	})
	if err != nil {
		h.failed(ctx, w, "list competitions failed", err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, mapSlice(items, competitionToDTO))
}

func (h *Handler) CreateCompetition(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateCompetition")
	defer span.End()

	actor, err := actorFromContext(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req createCompetitionRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	input := usecase.CreateCompetitionInput{
		Actor:       actor,
		CommunityID: req.CommunityID,
		Name:        req.Name,
		Description: req.Description,
		EndDate:     req.EndDate,
	}
	if req.StartDate != nil {
		input.StartDate = *req.StartDate
	}

	created, err := h.competitionService.Create(ctx, input)
	if err != nil {
		h.failed(ctx, w, "create competition failed", err, "community_id", req.CommunityID)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, competitionToDTO(created))
}

func (h *Handler) GetCompetition(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCompetition")
	defer span.End()

	competitionID := r.PathValue("competitionID")
	c, err := h.competitionService.Get(ctx, competitionID)
	if err != nil {
		h.failed(ctx, w, "get competition failed", err, "competition_id", competitionID)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, competitionToDTO(c))
}

func (h *Handler) StartCompetition(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartCompetition")
	defer span.End()

	actor, err := actorFromContext(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	competitionID := r.PathValue("competitionID")
	c, err := h.competitionService.Start(ctx, actor, competitionID)
	if err != nil {
		h.failed(ctx, w, "start competition failed", err, "competition_id", competitionID)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, competitionToDTO(c))
}

func (h *Handler) FinishCompetition(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.FinishCompetition")
	defer span.End()

	actor, err := actorFromContext(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	competitionID := r.PathValue("competitionID")
	c, err := h.competitionService.Finish(ctx, actor, competitionID)
	if err != nil {
		h.failed(ctx, w, "finish competition failed", err, "competition_id", competitionID)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, competitionToDTO(c))
}

func (h *Handler) ListCompetitionGames(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListCompetitionGames")
	defer span.End()

	competitionID := r.PathValue("competitionID")
	games, err := h.gameService.ListByCompetition(ctx, competitionID)
	if err != nil {
		h.failed(ctx, w, "list games failed", err, "competition_id", competitionID)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, mapSlice(games, gameToDTO))
}

func (h *Handler) CreateGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateGame")
	defer span.End()

	var req createGameRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	competitionID := r.PathValue("competitionID")
	created, err := h.gameService.CreateGame(ctx, usecase.CreateGameInput{
		CompetitionID: competitionID,
		Player1ID:     req.Player1ID,
		Player2ID:     req.Player2ID,
	})
	if err != nil {
		h.failed(ctx, w, "create game failed", err, "competition_id", competitionID)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, gameToDTO(created))
}
