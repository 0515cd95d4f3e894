package httpapi

import (
	"net/http"

	"github.com/riskibarqy/domatch/internal/usecase"
)

type communityRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Location    *string `json:"location" validate:"omitempty,max=200"`
}

type joinCommunityRequest struct {
	PlayerID string `json:"player_id" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=admin member"`
}

type addPlayerByPhoneRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Phone string `json:"phone" validate:"required,max=32"`
}

func (h *Handler) ListCommunities(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListCommunities")
	defer span.End()

	items, err := h.communityService.List(ctx)
	if err != nil {
		h.failed(ctx, w, "list communities failed", err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, mapSlice(items, communityToDTO))
}

func (h *Handler) CreateCommunity(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateCommunity")
	defer span.End()

	actor, err := actorFromContext(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req communityRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.communityService.CreateCommunity(ctx, usecase.CreateCommunityInput{
		Actor:       actor,
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
	})
	if err != nil {
		h.failed(ctx, w, "create community failed", err, "user_id", actor.UserID)
		return
	}

	writeSuccessWithWarnings(ctx, w, http.StatusCreated, communityToDTO(result.Community), result.Warnings)
}

func (h *Handler) GetCommunity(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCommunity")
	defer span.End()

	communityID := r.PathValue("communityID")
	c, err := h.communityService.Get(ctx, communityID)
	if err != nil {
		h.failed(ctx, w, "get community failed", err, "community_id", communityID)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, communityToDTO(c))
}

func (h *Handler) UpdateCommunity(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateCommunity")
	defer span.End()

	actor, err := actorFromContext(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req communityRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	communityID := r.PathValue("communityID")
	updated, err := h.communityService.Update(ctx, usecase.UpdateCommunityInput{
		Actor:       actor,
		CommunityID: communityID,
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
	})
	if err != nil {
		h.failed(ctx, w, "update community failed", err, "community_id", communityID)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, communityToDTO(updated))
}

func (h *Handler) DeleteCommunity(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteCommunity")
	defer span.End()

	actor, err := actorFromContext(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	communityID := r.PathValue("communityID")
	if err := h.communityService.Delete(ctx, actor, communityID); err != nil {
		h.failed(ctx, w, "delete community failed", err, "community_id", communityID)
		return
	}

	writeNoContent(w)
}

func (h *Handler) ListCommunityMembers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListCommunityMembers")
	defer span.End()

	communityID := r.PathValue("communityID")
	members, err := h.communityService.ListMembers(ctx, communityID)
	if err != nil {
		h.failed(ctx, w, "list community members failed", err, "community_id", communityID)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, mapSlice(members, memberToDTO))
}

func (h *Handler) JoinCommunity(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.JoinCommunity")
	defer span.End()

	actor, err := actorFromContext(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req joinCommunityRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	communityID := r.PathValue("communityID")
	membership, err := h.communityService.JoinCommunity(ctx, usecase.JoinCommunityInput{
		Actor:       actor,
		CommunityID: communityID,
		PlayerID:    req.PlayerID,
		Role:        req.Role,
	})
	if err != nil {
		h.failed(ctx, w, "join community failed", err, "community_id", communityID, "player_id", req.PlayerID)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, membershipToDTO(membership))
}

func (h *Handler) AddPlayerByPhone(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AddPlayerByPhone")
	defer span.End()

	actor, err := actorFromContext(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req addPlayerByPhoneRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	communityID := r.PathValue("communityID")
	result, err := h.communityService.AddPlayerByPhone(ctx, usecase.AddPlayerByPhoneInput{
		Actor:       actor,
		CommunityID: communityID,
		Name:        req.Name,
		Phone:       req.Phone,
	})
	if err != nil {
		h.failed(ctx, w, "add player by phone failed", err, "community_id", communityID)
		return
	}

	writeSuccessWithWarnings(ctx, w, http.StatusCreated, addPlayerResultDTO{
		Player:        playerToDTO(result.Player),
		Membership:    membershipToDTO(result.Membership),
		PlayerCreated: result.PlayerCreated,
	}, result.Warnings)
}

func (h *Handler) RemoveCommunityMember(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RemoveCommunityMember")
	defer span.End()

	actor, err := actorFromContext(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	communityID := r.PathValue("communityID")
	playerID := r.PathValue("playerID")
	warnings, err := h.communityService.RemoveMember(ctx, actor, communityID, playerID)
	if err != nil {
		h.failed(ctx, w, "remove community member failed", err, "community_id", communityID, "player_id", playerID)
		return
	}

	writeSuccessWithWarnings(ctx, w, http.StatusOK, map[string]string{
		"community_id": communityID,
		"player_id":    playerID,
	}, warnings)
}

func (h *Handler) RetryGroupAttachment(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RetryGroupAttachment")
	defer span.End()

	actor, err := actorFromContext(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	communityID := r.PathValue("communityID")
	result, err := h.communityService.RetryGroupAttachment(ctx, actor, communityID)
	if err != nil {
		h.failed(ctx, w, "retry group attachment failed", err, "community_id", communityID)
		return
	}

	writeSuccessWithWarnings(ctx, w, http.StatusOK, communityToDTO(result.Community), result.Warnings)
}

func (h *Handler) ListCommunityIntegrations(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListCommunityIntegrations")
	defer span.End()

	communityID := r.PathValue("communityID")
	c, err := h.communityService.Get(ctx, communityID)
	if err != nil {
		h.failed(ctx, w, "get community failed", err, "community_id", communityID)
		return
	}

	tasks, err := h.integrationService.ListByCommunity(ctx, c.ID)
	if err != nil {
		h.failed(ctx, w, "list integration tasks failed", err, "community_id", communityID)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, mapSlice(tasks, integrationTaskToDTO))
}
