package httpapi

import (
	"time"

	"github.com/riskibarqy/domatch/internal/domain/community"
	"github.com/riskibarqy/domatch/internal/domain/competition"
	"github.com/riskibarqy/domatch/internal/domain/game"
	"github.com/riskibarqy/domatch/internal/domain/integration"
	"github.com/riskibarqy/domatch/internal/domain/player"
	"github.com/riskibarqy/domatch/internal/domain/profile"
	"github.com/riskibarqy/domatch/internal/domain/tournament"
	"github.com/riskibarqy/domatch/internal/usecase"
)

type playerDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Nickname  *string   `json:"nickname,omitempty"`
	Phone     string    `json:"phone"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type profileDTO struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Nickname *string  `json:"nickname,omitempty"`
	Phone    string   `json:"phone,omitempty"`
	Roles    []string `json:"roles"`
}

type sessionDTO struct {
	UserID    string     `json:"user_id"`
	Email     string     `json:"email"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Profile   profileDTO `json:"profile"`
}

type communityDTO struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      *string   `json:"description,omitempty"`
	Location         *string   `json:"location,omitempty"`
	ExternalGroupRef *string   `json:"external_group_ref"`
	CreatedBy        string    `json:"created_by,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type membershipDTO struct {
	ID          string    `json:"id"`
	CommunityID string    `json:"community_id"`
	PlayerID    string    `json:"player_id"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

type memberDTO struct {
	membershipDTO
	Player playerDTO `json:"player"`
}

type addPlayerResultDTO struct {
	Player        playerDTO     `json:"player"`
	Membership    membershipDTO `json:"membership"`
	PlayerCreated bool          `json:"player_created"`
}

type integrationTaskDTO struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	CommunityID   string    `json:"community_id"`
	Status        string    `json:"status"`
	Attempts      int       `json:"attempts"`
	LastError     string    `json:"last_error,omitempty"`
	NextAttemptAt time.Time `json:"next_attempt_at"`
	CreatedAt     time.Time `json:"created_at"`
}

type competitionDTO struct {
	ID          string     `json:"id"`
	CommunityID string     `json:"community_id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	Status      string     `json:"status"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	CreatedBy   string     `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type gameDTO struct {
	ID            string     `json:"id"`
	CompetitionID string     `json:"competition_id"`
	Player1ID     string     `json:"player1_id"`
	Player2ID     string     `json:"player2_id"`
	Player1Score  int        `json:"player1_score"`
	Player2Score  int        `json:"player2_score"`
	Status        string     `json:"status"`
	WinnerID      *string    `json:"winner_id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

type gameDetailDTO struct {
	gameDTO
	CompetitionName string     `json:"competition_name"`
	Player1         playerDTO  `json:"player1"`
	Player2         playerDTO  `json:"player2"`
	Matches         []matchDTO `json:"matches"`
}

type matchDTO struct {
	ID           string    `json:"id"`
	GameID       string    `json:"game_id"`
	Player1Score int       `json:"player1_score"`
	Player2Score int       `json:"player2_score"`
	Notes        *string   `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type gameScoreDTO struct {
	GameID       string `json:"game_id"`
	Player1Score int    `json:"player1_score"`
	Player2Score int    `json:"player2_score"`
}

type tournamentDTO struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Description         string     `json:"description,omitempty"`
	StartDate           time.Time  `json:"start_date"`
	EndDate             *time.Time `json:"end_date,omitempty"`
	MaxParticipants     int        `json:"max_participants"`
	CurrentParticipants int        `json:"current_participants"`
	Prize               *string    `json:"prize,omitempty"`
	Status              string     `json:"status"`
	CreatedAt           time.Time  `json:"created_at"`
}

type participantDTO struct {
	TournamentID string    `json:"tournament_id"`
	PlayerID     string    `json:"player_id"`
	JoinedAt     time.Time `json:"joined_at"`
}

func playerToDTO(p player.Player) playerDTO {
	return playerDTO{
		ID:        p.ID,
		Name:      p.Name,
		Nickname:  p.Nickname,
		Phone:     p.Phone,
		CreatedBy: p.CreatedBy,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func profileToDTO(p profile.Profile) profileDTO {
	roles := p.Roles
	if roles == nil {
		roles = []string{}
	}
	return profileDTO{
		ID:       p.ID,
		Name:     p.Name,
		Nickname: p.Nickname,
		Phone:    p.Phone,
		Roles:    roles,
	}
}

func sessionToDTO(s usecase.Session) sessionDTO {
	out := sessionDTO{
		UserID:  s.Principal.UserID,
		Email:   s.Principal.Email,
		Profile: profileToDTO(s.Profile),
	}
	if !s.Principal.ExpiresAt.IsZero() {
		expiresAt := s.Principal.ExpiresAt
		out.ExpiresAt = &expiresAt
	}
	return out
}

func communityToDTO(c community.Community) communityDTO {
	return communityDTO{
		ID:               c.ID,
		Name:             c.Name,
		Description:      c.Description,
		Location:         c.Location,
		ExternalGroupRef: c.ExternalGroupRef,
		CreatedBy:        c.CreatedBy,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func membershipToDTO(m community.Membership) membershipDTO {
	return membershipDTO{
		ID:          m.ID,
		CommunityID: m.CommunityID,
		PlayerID:    m.PlayerID,
		Role:        string(m.Role),
		CreatedAt:   m.CreatedAt,
	}
}

func memberToDTO(m community.Member) memberDTO {
	return memberDTO{
		membershipDTO: membershipToDTO(m.Membership),
		Player:        playerToDTO(m.Player),
	}
}

func integrationTaskToDTO(t integration.Task) integrationTaskDTO {
	return integrationTaskDTO{
		ID:            t.ID,
		Kind:          string(t.Kind),
		CommunityID:   t.CommunityID,
		Status:        string(t.Status),
		Attempts:      t.Attempts,
		LastError:     t.LastError,
		NextAttemptAt: t.NextAttemptAt,
		CreatedAt:     t.CreatedAt,
	}
}

func competitionToDTO(c competition.Competition) competitionDTO {
	return competitionDTO{
		ID:          c.ID,
		CommunityID: c.CommunityID,
		Name:        c.Name,
		Description: c.Description,
		Status:      string(c.Status),
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
		CreatedBy:   c.CreatedBy,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func gameToDTO(g game.Game) gameDTO {
	return gameDTO{
		ID:            g.ID,
		CompetitionID: g.CompetitionID,
		Player1ID:     g.Player1ID,
		Player2ID:     g.Player2ID,
		Player1Score:  g.Player1Score,
		Player2Score:  g.Player2Score,
		Status:        string(g.Status),
		WinnerID:      g.WinnerID,
		CreatedAt:     g.CreatedAt,
		UpdatedAt:     g.UpdatedAt,
		FinishedAt:    g.FinishedAt,
	}
}

func gameDetailToDTO(d usecase.GameDetail) gameDetailDTO {
	return gameDetailDTO{
		gameDTO:         gameToDTO(d.Game),
		CompetitionName: d.Competition.Name,
		Player1:         playerToDTO(d.Player1),
		Player2:         playerToDTO(d.Player2),
		Matches:         mapSlice(d.Matches, matchToDTO),
	}
}

func matchToDTO(m game.Match) matchDTO {
	return matchDTO{
		ID:           m.ID,
		GameID:       m.GameID,
		Player1Score: m.Player1Score,
		Player2Score: m.Player2Score,
		Notes:        m.Notes,
		CreatedAt:    m.CreatedAt,
	}
}

func tournamentToDTO(t tournament.Tournament) tournamentDTO {
	return tournamentDTO{
		ID:                  t.ID,
		Name:                t.Name,
		Description:         t.Description,
		StartDate:           t.StartDate,
		EndDate:             t.EndDate,
		MaxParticipants:     t.MaxParticipants,
		CurrentParticipants: t.CurrentParticipants,
		Prize:               t.Prize,
		Status:              string(t.Status),
		CreatedAt:           t.CreatedAt,
	}
}

func participantToDTO(p tournament.Participant) participantDTO {
	return participantDTO{
		TournamentID: p.TournamentID,
		PlayerID:     p.PlayerID,
		JoinedAt:     p.JoinedAt,
	}
}

func mapSlice[T, R any](items []T, fn func(T) R) []R {
	out := make([]R, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
