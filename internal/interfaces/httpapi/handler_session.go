package httpapi

import (
	"net/http"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/domatch/internal/usecase"
)

type updateProfileRequest struct {
	Name     string  `json:"name" validate:"required,max=100"`
	Nickname *string `json:"nickname" validate:"omitempty,max=50"`
	Phone    string  `json:"phone" validate:"omitempty,max=32"`
}

func (h *Handler) BeginSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.BeginSession")
	defer span.End()

	token, err := bearerToken(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	session, err := h.sessionService.Begin(ctx, token)
	if err != nil {
		h.failed(ctx, w, "begin session failed", err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, sessionToDTO(session))
}

func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.EndSession")
	defer span.End()

	token, err := bearerToken(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	h.sessionService.End(ctx, token)
	writeNoContent(w)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetProfile")
	defer span.End()

	session, ok := sessionFromContext(ctx)
	if !ok {
		writeError(ctx, w, errors.Mark(errors.New("session is missing from request context"), usecase.ErrUnauthorized))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, profileToDTO(session.Profile))
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateProfile")
	defer span.End()

	actor, err := actorFromContext(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req updateProfileRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	updated, err := h.sessionService.UpdateProfile(ctx, usecase.UpdateProfileInput{
		Actor:    actor,
		Name:     req.Name,
		Nickname: req.Nickname,
		Phone:    req.Phone,
	})
	if err != nil {
		h.failed(ctx, w, "update profile failed", err, "user_id", actor.UserID)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, profileToDTO(updated))
}
