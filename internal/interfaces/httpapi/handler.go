package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/domatch/internal/platform/logging"
	"github.com/riskibarqy/domatch/internal/usecase"
)

const maxRequestBody = 1 << 20

type Services struct {
	Sessions     *usecase.SessionService
	Players      *usecase.PlayerService
	Communities  *usecase.CommunityService
	Competitions *usecase.CompetitionService
	Games        *usecase.GameService
	Tournaments  *usecase.TournamentService
	Integrations *usecase.IntegrationService
}

type Handler struct {
	sessionService     *usecase.SessionService
	playerService      *usecase.PlayerService
	communityService   *usecase.CommunityService
	competitionService *usecase.CompetitionService
	gameService        *usecase.GameService
	tournamentService  *usecase.TournamentService
	integrationService *usecase.IntegrationService
	logger             *logging.Logger
	validator          *validator.Validate
}

func NewHandler(services Services, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		sessionService:     services.Sessions,
		playerService:      services.Players,
		communityService:   services.Communities,
		competitionService: services.Competitions,
		gameService:        services.Games,
		tournamentService:  services.Tournaments,
		integrationService: services.Integrations,
		logger:             logger.Named("handler"),
		validator:          validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) decodeRequest(ctx context.Context, r *http.Request, payload any) error {
	decoder := sonic.ConfigDefault.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(payload); err != nil {
		return errors.Mark(errors.Wrap(err, "invalid JSON payload"), usecase.ErrInvalidInput)
	}
	return h.validateRequest(ctx, payload)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return errors.Mark(errors.Wrap(err, "validation failed"), usecase.ErrInvalidInput)
	}
	return nil
}

// actorFromContext returns the authenticated caller placed by RequireAuth.
func actorFromContext(ctx context.Context) (usecase.Actor, error) {
	session, ok := sessionFromContext(ctx)
	if !ok {
		return usecase.Actor{}, errors.Mark(errors.New("session is missing from request context"), usecase.ErrUnauthorized)
	}
	return session.Actor(), nil
}

// failed logs err at a level matching its class and writes the error response.
func (h *Handler) failed(ctx context.Context, w http.ResponseWriter, msg string, err error, args ...any) {
	args = append(args, "error", err)
	switch mapError(err).HTTPStatus {
	case http.StatusServiceUnavailable, http.StatusInternalServerError:
		h.logger.ErrorContext(ctx, msg, args...)
	default:
		h.logger.WarnContext(ctx, msg, args...)
	}
	writeError(ctx, w, err)
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.Mark(errors.Newf("query parameter %s must be a non-negative integer", key), usecase.ErrInvalidInput)
	}
	return v, nil
}
