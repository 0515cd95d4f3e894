package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/domatch/internal/domain/entitystore"
	"github.com/riskibarqy/domatch/internal/domain/player"
	"github.com/riskibarqy/domatch/internal/domain/profile"
	"github.com/riskibarqy/domatch/internal/domain/user"
)

// Session is the explicit caller context handed to use cases: who is calling
// and their application profile.
type Session struct {
	Principal user.Principal
	Profile   profile.Profile
}

func (s Session) Actor() Actor {
	return Actor{
		UserID: s.Principal.UserID,
		Admin:  s.Profile.HasRole(profile.RoleAdmin),
	}
}

type UpdateProfileInput struct {
	Actor    Actor
	Name     string
	Nickname *string
	Phone    string
}

type SessionService struct {
	verifier    user.TokenVerifier
	profileRepo profile.Repository
	now         func() time.Time
}

func NewSessionService(verifier user.TokenVerifier, profileRepo profile.Repository) *SessionService {
	return &SessionService{
		verifier:    verifier,
		profileRepo: profileRepo,
		now:         time.Now,
	}
}

// Begin verifies token and loads the caller's profile, creating it on first sign-in.
func (s *SessionService) Begin(ctx context.Context, token string) (Session, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SessionService.Begin")
	session, err := s.begin(ctx, token)
	endSpan(span, err)
	return session, err
}

func (s *SessionService) begin(ctx context.Context, token string) (Session, error) {
	principal, err := s.Authenticate(ctx, token)
	if err != nil {
		return Session{}, err
	}

	p, exists, err := s.profileRepo.GetByID(ctx, principal.UserID)
	if err != nil {
		return Session{}, storeError(err, "get profile")
	}
	if !exists {
		now := s.now().UTC()
		p = profile.Profile{
			ID:        principal.UserID,
			Name:      defaultProfileName(principal.Email),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.profileRepo.Create(ctx, p); err != nil {
			if !errors.Is(err, entitystore.ErrDuplicate) {
				return Session{}, storeError(err, "create profile")
			}
			if p, _, err = s.profileRepo.GetByID(ctx, principal.UserID); err != nil {
				return Session{}, storeError(err, "get profile")
			}
		}
	}

	return Session{Principal: principal, Profile: p}, nil
}

// Resume rebuilds the session for a principal that was already verified.
func (s *SessionService) Resume(ctx context.Context, principal user.Principal) (Session, error) {
	p, exists, err := s.profileRepo.GetByID(ctx, principal.UserID)
	if err != nil {
		return Session{}, storeError(err, "get profile")
	}
	if !exists {
		p = profile.Profile{ID: principal.UserID, Name: defaultProfileName(principal.Email)}
	}
	return Session{Principal: principal, Profile: p}, nil
}

// Authenticate verifies a bearer token without touching profiles.
func (s *SessionService) Authenticate(ctx context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, errors.Mark(errors.New("access token is required"), ErrUnauthorized)
	}
	principal, err := s.verifier.VerifyAccessToken(ctx, token)
	if err != nil {
		if errors.IsAny(err, ErrUnauthorized, ErrRemoteUnavailable) {
			return user.Principal{}, err
		}
		return user.Principal{}, errors.Mark(errors.Wrap(err, "verify access token"), ErrRemoteUnavailable)
	}
	return principal, nil
}

// End forgets the cached verification of token. Ending an unknown session is not an error.
func (s *SessionService) End(_ context.Context, token string) {
	if token = strings.TrimSpace(token); token != "" {
		s.verifier.Forget(token)
	}
}

func (s *SessionService) UpdateProfile(ctx context.Context, input UpdateProfileInput) (profile.Profile, error) {
	if input.Actor.UserID == "" {
		return profile.Profile{}, errors.Mark(errors.New("no active session"), ErrUnauthorized)
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return profile.Profile{}, invalidInput("profile name is required")
	}

	current, exists, err := s.profileRepo.GetByID(ctx, input.Actor.UserID)
	if err != nil {
		return profile.Profile{}, storeError(err, "get profile")
	}
	if !exists {
		return profile.Profile{}, notFound("profile=%s", input.Actor.UserID)
	}

	current.Name = input.Name
	current.Nickname = trimOptional(input.Nickname)
	current.Phone = ""
	if strings.TrimSpace(input.Phone) != "" {
		phone, err := player.NormalizePhone(input.Phone)
		if err != nil {
			return profile.Profile{}, domainError(err, "normalize phone")
		}
		current.Phone = phone
	}
	current.UpdatedAt = s.now().UTC()

	updated, err := s.profileRepo.Update(ctx, current)
	if err != nil {
		return profile.Profile{}, storeError(err, "update profile")
	}
	return updated, nil
}

func defaultProfileName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local = strings.TrimSpace(local); local != "" {
		return local
	}
	return "player"
}
