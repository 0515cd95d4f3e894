package usecase

import (
	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/domatch/internal/domain/community"
	"github.com/riskibarqy/domatch/internal/domain/competition"
	"github.com/riskibarqy/domatch/internal/domain/entitystore"
	"github.com/riskibarqy/domatch/internal/domain/game"
	"github.com/riskibarqy/domatch/internal/domain/player"
	"github.com/riskibarqy/domatch/internal/domain/tournament"
)

// Every error a service returns is marked with exactly one of these kinds.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidState         = errors.New("invalid state")
	ErrDuplicateMembership  = errors.New("duplicate membership")
	ErrNotFound             = errors.New("resource not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrRemoteUnavailable    = errors.New("remote service unavailable")
	ErrSecondaryIntegration = errors.New("secondary integration failed")
)

func invalidInput(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvalidInput)
}

func notFound(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrNotFound)
}

func forbidden(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrForbidden)
}

// storeError converts a repository failure into the service taxonomy.
func storeError(err error, op string) error {
	if err == nil {
		return nil
	}
	wrapped := errors.Wrap(err, op)
	switch {
	case errors.Is(err, entitystore.ErrNotFound):
		return errors.Mark(wrapped, ErrNotFound)
	case errors.Is(err, entitystore.ErrStale):
		return errors.Mark(errors.WithHint(wrapped, "the resource was changed by someone else; reload and try again"), ErrInvalidState)
	case errors.Is(err, entitystore.ErrDuplicate):
		return errors.Mark(wrapped, ErrInvalidState)
	case errors.Is(err, entitystore.ErrConstraint):
		return errors.Mark(wrapped, ErrInvalidInput)
	default:
		return errors.Mark(wrapped, ErrRemoteUnavailable)
	}
}

var (
	domainStateErrors = []error{
		game.ErrGameFinished,
		game.ErrNoMatches,
		game.ErrTiedScore,
		competition.ErrInvalidTransition,
		competition.ErrUnfinishedGames,
		tournament.ErrNotOpen,
		tournament.ErrFull,
	}
	domainInputErrors = []error{
		game.ErrNegativeScore,
		game.ErrScoreTooLarge,
		game.ErrSamePlayer,
		game.ErrMatchMismatch,
		player.ErrInvalidPhone,
		player.ErrNameRequired,
		community.ErrInvalidRole,
		competition.ErrInvalidStatus,
	}
)

// domainError classifies a rule violation raised by a domain package. Errors
// that are not rule violations are treated as store failures.
func domainError(err error, op string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.IsAny(err, domainStateErrors...):
		return errors.Mark(errors.Wrap(err, op), ErrInvalidState)
	case errors.IsAny(err, domainInputErrors...):
		return errors.Mark(errors.Wrap(err, op), ErrInvalidInput)
	case isClassified(err):
		return err
	default:
		return storeError(err, op)
	}
}

func isClassified(err error) bool {
	return errors.IsAny(err,
		ErrInvalidInput, ErrInvalidState, ErrDuplicateMembership, ErrNotFound,
		ErrUnauthorized, ErrForbidden, ErrRemoteUnavailable,
	)
}

// Hint returns the first user-facing hint attached to err, if any.
func Hint(err error) string {
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		return hints[0]
	}
	return ""
}
