package postgres

import (
	"time"

	"github.com/lib/pq"

	"github.com/riskibarqy/domatch/internal/domain/community"
	"github.com/riskibarqy/domatch/internal/domain/competition"
	"github.com/riskibarqy/domatch/internal/domain/game"
	"github.com/riskibarqy/domatch/internal/domain/integration"
	"github.com/riskibarqy/domatch/internal/domain/player"
	"github.com/riskibarqy/domatch/internal/domain/profile"
	"github.com/riskibarqy/domatch/internal/domain/tournament"
	qb "github.com/riskibarqy/domatch/internal/platform/querybuilder"
)

type playerRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Nickname  *string   `db:"nickname"`
	Phone     string    `db:"phone"`
	CreatedBy string    `db:"created_by"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

var playerColumns = qb.Columns(playerRow{})

func playerRowFrom(p player.Player) playerRow {
	return playerRow{
		ID:        p.ID,
		Name:      p.Name,
		Nickname:  p.Nickname,
		Phone:     p.Phone,
		CreatedBy: p.CreatedBy,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (r playerRow) toDomain() player.Player {
	return player.Player{
		ID:        r.ID,
		Name:      r.Name,
		Nickname:  r.Nickname,
		Phone:     r.Phone,
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type profileRow struct {
	ID        string         `db:"id"`
	Name      string         `db:"name"`
	Nickname  *string        `db:"nickname"`
	Phone     string         `db:"phone"`
	Roles     pq.StringArray `db:"roles"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

var profileColumns = qb.Columns(profileRow{})

func (r profileRow) toDomain() profile.Profile {
	return profile.Profile{
		ID:        r.ID,
		Name:      r.Name,
		Nickname:  r.Nickname,
		Phone:     r.Phone,
		Roles:     []string(r.Roles),
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type communityRow struct {
	ID              string    `db:"id"`
	Name            string    `db:"name"`
	Description     *string   `db:"description"`
	Location        *string   `db:"location"`
	WhatsappGroupID *string   `db:"whatsapp_group_id"`
	CreatedBy       string    `db:"created_by"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

var communityColumns = qb.Columns(communityRow{})

func communityRowFrom(c community.Community) communityRow {
	return communityRow{
		ID:              c.ID,
		Name:            c.Name,
		Description:     c.Description,
		Location:        c.Location,
		WhatsappGroupID: c.ExternalGroupRef,
		CreatedBy:       c.CreatedBy,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func (r communityRow) toDomain() community.Community {
	return community.Community{
		ID:               r.ID,
		Name:             r.Name,
		Description:      r.Description,
		Location:         r.Location,
		ExternalGroupRef: r.WhatsappGroupID,
		CreatedBy:        r.CreatedBy,
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        r.UpdatedAt.UTC(),
	}
}

type membershipRow struct {
	ID          string    `db:"id"`
	CommunityID string    `db:"community_id"`
	PlayerID    string    `db:"player_id"`
	Role        string    `db:"role"`
	CreatedBy   string    `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
}

var membershipColumns = qb.Columns(membershipRow{})

func (r membershipRow) toDomain() community.Membership {
	return community.Membership{
		ID:          r.ID,
		CommunityID: r.CommunityID,
		PlayerID:    r.PlayerID,
		Role:        community.Role(r.Role),
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

// memberRow is a membership joined with its player.
type memberRow struct {
	membershipRow
	PlayerName      string    `db:"player_name"`
	PlayerNickname  *string   `db:"player_nickname"`
	PlayerPhone     string    `db:"player_phone"`
	PlayerCreatedBy string    `db:"player_created_by"`
	PlayerCreatedAt time.Time `db:"player_created_at"`
	PlayerUpdatedAt time.Time `db:"player_updated_at"`
}

func (r memberRow) toDomain() community.Member {
	return community.Member{
		Membership: r.membershipRow.toDomain(),
		Player: player.Player{
			ID:        r.PlayerID,
			Name:      r.PlayerName,
			Nickname:  r.PlayerNickname,
			Phone:     r.PlayerPhone,
			CreatedBy: r.PlayerCreatedBy,
			CreatedAt: r.PlayerCreatedAt.UTC(),
			UpdatedAt: r.PlayerUpdatedAt.UTC(),
		},
	}
}

type competitionRow struct {
	ID          string     `db:"id"`
	CommunityID string     `db:"community_id"`
	Name        string     `db:"name"`
	Description *string    `db:"description"`
	Status      string     `db:"status"`
	StartDate   time.Time  `db:"start_date"`
	EndDate     *time.Time `db:"end_date"`
	CreatedBy   string     `db:"created_by"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

var competitionColumns = qb.Columns(competitionRow{})

func competitionRowFrom(c competition.Competition) competitionRow {
	return competitionRow{
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

func (r competitionRow) toDomain() competition.Competition {
	return competition.Competition{
		ID:          r.ID,
		CommunityID: r.CommunityID,
		Name:        r.Name,
		Description: r.Description,
		Status:      competition.Status(r.Status),
		StartDate:   r.StartDate.UTC(),
		EndDate:     utcPtr(r.EndDate),
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type gameRow struct {
	ID            string     `db:"id"`
	CompetitionID string     `db:"competition_id"`
	Player1ID     string     `db:"player1_id"`
	Player2ID     string     `db:"player2_id"`
	Player1Score  int        `db:"player1_score"`
	Player2Score  int        `db:"player2_score"`
	Status        string     `db:"status"`
	WinnerID      *string    `db:"winner_id"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
	FinishedAt    *time.Time `db:"finished_at"`
}

var gameColumns = qb.Columns(gameRow{})

func gameRowFrom(g game.Game) gameRow {
	return gameRow{
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

func (r gameRow) toDomain() game.Game {
	return game.Game{
		ID:            r.ID,
		CompetitionID: r.CompetitionID,
		Player1ID:     r.Player1ID,
		Player2ID:     r.Player2ID,
		Player1Score:  r.Player1Score,
		Player2Score:  r.Player2Score,
		Status:        game.Status(r.Status),
		WinnerID:      r.WinnerID,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
		FinishedAt:    utcPtr(r.FinishedAt),
	}
}

type matchRow struct {
	ID           string    `db:"id"`
	GameID       string    `db:"game_id"`
	Player1Score int       `db:"player1_score"`
	Player2Score int       `db:"player2_score"`
	Notes        *string   `db:"notes"`
	CreatedAt    time.Time `db:"created_at"`
}

var matchColumns = qb.Columns(matchRow{})

func (r matchRow) toDomain() game.Match {
	return game.Match{
		ID:           r.ID,
		GameID:       r.GameID,
		Player1Score: r.Player1Score,
		Player2Score: r.Player2Score,
		Notes:        r.Notes,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

type tournamentRow struct {
	ID                  string     `db:"id"`
	Name                string     `db:"name"`
	Description         string     `db:"description"`
	StartDate           time.Time  `db:"start_date"`
	EndDate             *time.Time `db:"end_date"`
	MaxParticipants     int        `db:"max_participants"`
	CurrentParticipants int        `db:"current_participants"`
	Prize               *string    `db:"prize"`
	Status              string     `db:"status"`
	CreatedBy           string     `db:"created_by"`
	CreatedAt           time.Time  `db:"created_at"`
}

var tournamentColumns = qb.Columns(tournamentRow{})

func tournamentRowFrom(t tournament.Tournament) tournamentRow {
	return tournamentRow{
		ID:                  t.ID,
		Name:                t.Name,
		Description:         t.Description,
		StartDate:           t.StartDate,
		EndDate:             t.EndDate,
		MaxParticipants:     t.MaxParticipants,
		CurrentParticipants: t.CurrentParticipants,
		Prize:               t.Prize,
		Status:              string(t.Status),
		CreatedBy:           t.CreatedBy,
		CreatedAt:           t.CreatedAt,
	}
}

func (r tournamentRow) toDomain() tournament.Tournament {
	return tournament.Tournament{
		ID:                  r.ID,
		Name:                r.Name,
		Description:         r.Description,
		StartDate:           r.StartDate.UTC(),
		EndDate:             utcPtr(r.EndDate),
		MaxParticipants:     r.MaxParticipants,
		CurrentParticipants: r.CurrentParticipants,
		Prize:               r.Prize,
		Status:              tournament.Status(r.Status),
		CreatedBy:           r.CreatedBy,
		CreatedAt:           r.CreatedAt.UTC(),
	}
}

type participantRow struct {
	TournamentID string    `db:"tournament_id"`
	PlayerID     string    `db:"player_id"`
	JoinedAt     time.Time `db:"joined_at"`
}

var participantColumns = qb.Columns(participantRow{})

type taskRow struct {
	ID            string    `db:"id"`
	Kind          string    `db:"kind"`
	CommunityID   string    `db:"community_id"`
	Phone         *string   `db:"phone"`
	Message       *string   `db:"message"`
	GroupRef      *string   `db:"group_ref"`
	Status        string    `db:"status"`
	Attempts      int       `db:"attempts"`
	LastError     string    `db:"last_error"`
	NextAttemptAt time.Time `db:"next_attempt_at"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

var taskColumns = qb.Columns(taskRow{})

func taskRowFrom(t integration.Task) taskRow {
	return taskRow{
		ID:            t.ID,
		Kind:          string(t.Kind),
		CommunityID:   t.CommunityID,
		Phone:         t.Phone,
		Message:       t.Message,
		GroupRef:      t.GroupRef,
		Status:        string(t.Status),
		Attempts:      t.Attempts,
		LastError:     t.LastError,
		NextAttemptAt: t.NextAttemptAt,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func (r taskRow) toDomain() integration.Task {
	return integration.Task{
		ID:            r.ID,
		Kind:          integration.Kind(r.Kind),
		CommunityID:   r.CommunityID,
		Phone:         r.Phone,
		Message:       r.Message,
		GroupRef:      r.GroupRef,
		Status:        integration.Status(r.Status),
		Attempts:      r.Attempts,
		LastError:     r.LastError,
		NextAttemptAt: r.NextAttemptAt.UTC(),
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
