package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/domatch/internal/usecase"
)

type playerRequest struct {
	Name     string  `json:"name" validate:"required,max=100"`
	Nickname *string `json:"nickname" validate:"omitempty,max=50"`
	Phone    string  `json:"phone" validate:"required,max=32"`
}

func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPlayers")
	defer span.End()

	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	players, err := h.playerService.List(ctx, usecase.ListPlayersInput{
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.failed(ctx, w, "list players failed", err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, mapSlice(players, playerToDTO))
}

func (h *Handler) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreatePlayer")
	defer span.End()

	actor, err := actorFromContext(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req playerRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.playerService.Create(ctx, usecase.CreatePlayerInput{
		Actor:    actor,
		Name:     req.Name,
		Nickname: req.Nickname,
		Phone:    req.Phone,
	})
	if err != nil {
		h.failed(ctx, w, "create player failed", err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, playerToDTO(created))
}

func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayer")
	defer span.End()

	playerID := r.PathValue("playerID")
	p, err := h.playerService.Get(ctx, playerID)
	if err != nil {
		h.failed(ctx, w, "get player failed", err, "player_id", playerID)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, playerToDTO(p))
}

func (h *Handler) UpdatePlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdatePlayer")
	defer span.End()

	actor, err := actorFromContext(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req playerRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	playerID := r.PathValue("playerID")
	updated, err := h.playerService.UpdateContact(ctx, usecase.UpdatePlayerContactInput{
		Actor:    actor,
		PlayerID: playerID,
		Name:     req.Name,
		Nickname: req.Nickname,
		Phone:    req.Phone,
	})
	if err != nil {
		h.failed(ctx, w, "update player failed", err, "player_id", playerID)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, playerToDTO(updated))
}

func (h *Handler) DeletePlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeletePlayer")
	defer span.End()

	actor, err := actorFromContext(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	playerID := r.PathValue("playerID")
	if err := h.playerService.Delete(ctx, actor, playerID); err != nil {
		h.failed(ctx, w, "delete player failed", err, "player_id", playerID)
		return
	}

	writeNoContent(w)
}
