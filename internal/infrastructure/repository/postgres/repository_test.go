package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/riskibarqy/domatch/internal/domain/competition"
	"github.com/riskibarqy/domatch/internal/domain/entitystore"
	"github.com/riskibarqy/domatch/internal/domain/game"
	"github.com/riskibarqy/domatch/internal/domain/integration"
	"github.com/riskibarqy/domatch/internal/domain/player"
	"github.com/riskibarqy/domatch/internal/domain/tournament"
)

var testNow = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return sqlx.NewDb(db, "sqlmock"), mock
}

func gameRows() *sqlmock.Rows {
	return sqlmock.NewRows(gameColumns).AddRow(
		"g1", "comp-1", "p1", "p2", 0, 0, string(game.StatusScheduled), nil, testNow, testNow, nil,
	)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{name: "unique", err: &pq.Error{Code: codeUniqueViolation, Constraint: "players_phone_key"}, want: entitystore.ErrDuplicate},
		{name: "foreign key", err: &pq.Error{Code: codeForeignKeyViolation}, want: entitystore.ErrConstraint},
		{name: "check", err: &pq.Error{Code: codeCheckViolation}, want: entitystore.ErrConstraint},
		{name: "numeric out of range", err: &pq.Error{Code: codeNumericOutOfRange}, want: entitystore.ErrConstraint},
		{name: "serialization", err: &pq.Error{Code: codeSerializationFailure}, want: entitystore.ErrStale},
		{name: "other", err: errors.New("connection reset"), want: entitystore.ErrUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classify(tc.err, "op")
			if !errors.Is(got, tc.want) {
				t.Fatalf("classify(%v) = %v, want mark %v", tc.err, got, tc.want)
			}
		})
	}

	already := errors.Wrap(entitystore.ErrNotFound, "player p1")
	if got := classify(already, "op"); got != already {
		t.Fatalf("classified errors must pass through unchanged, got %v", got)
	}
}

func TestPlayerRepository_CreateDuplicatePhone(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPlayerRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO players (")).
		WillReturnError(&pq.Error{Code: codeUniqueViolation, Constraint: "players_phone_key"})

	err := repo.Create(context.Background(), player.Player{
		ID:        "p1",
		Name:      "Ana",
		Phone:     "+5511999990001",
		CreatedAt: testNow,
		UpdatedAt: testNow,
	})
	if !errors.Is(err, entitystore.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGameRepository_ApplyCommitsMatchAndScores(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGameRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM games WHERE id = $1 FOR UPDATE")).
		WithArgs("g1").
		WillReturnRows(gameRows())
	mock.ExpectQuery(regexp.QuoteMeta("FROM matches WHERE game_id = $1 ORDER BY created_at ASC, id ASC")).
		WithArgs("g1").
		WillReturnRows(sqlmock.NewRows(matchColumns).AddRow("m0", "g1", 2, 1, nil, testNow.Add(-time.Minute)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO matches (")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE games SET player1_score = $1, player2_score = $2, status = $3")).
		WithArgs(5, 4, string(game.StatusInProgress), nil, testNow, nil, "g1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.Apply(context.Background(), "g1", func(current game.Game, matches []game.Match) (game.Transition, error) {
		if len(matches) != 1 {
			t.Fatalf("expected the persisted match, got %d", len(matches))
		}
		m := game.Match{ID: "m1", GameID: current.ID, Player1Score: 3, Player2Score: 3, CreatedAt: testNow}
		next, err := game.ApplyMatch(current, matches, m)
		if err != nil {
			return game.Transition{}, err
		}
		next.UpdatedAt = testNow
		return game.Transition{Game: next, Match: &m}, nil
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.Game.Player1Score != 5 || result.Game.Player2Score != 4 {
		t.Fatalf("unexpected scores %d-%d", result.Game.Player1Score, result.Game.Player2Score)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGameRepository_ApplyRollsBackOnRejectedTransition(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGameRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM games WHERE id = $1 FOR UPDATE")).
		WithArgs("g1").
		WillReturnRows(gameRows())
	mock.ExpectQuery(regexp.QuoteMeta("FROM matches WHERE game_id = $1")).
		WillReturnRows(sqlmock.NewRows(matchColumns))
	mock.ExpectRollback()

	rejected := errors.New("rejected")
	_, err := repo.Apply(context.Background(), "g1", func(game.Game, []game.Match) (game.Transition, error) {
		return game.Transition{}, rejected
	})
	if !errors.Is(err, rejected) {
		t.Fatalf("expected the transition error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGameRepository_ApplyMissingGame(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGameRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM games WHERE id = $1 FOR UPDATE")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(gameColumns))
	mock.ExpectRollback()

	_, err := repo.Apply(context.Background(), "missing", func(g game.Game, _ []game.Match) (game.Transition, error) {
		t.Fatalf("transition must not run for a missing game")
		return game.Transition{Game: g}, nil
	})
	if !errors.Is(err, entitystore.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGameRepository_CountUnfinished(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGameRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM games WHERE competition_id = $1 AND status <> $2")).
		WithArgs("comp-1", string(game.StatusFinished)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	n, err := repo.CountUnfinished(context.Background(), "comp-1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 unfinished games, got %d", n)
	}
}

func TestCompetitionRepository_UpdateStatusStale(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCompetitionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE competitions SET status = $1, end_date = $2, updated_at = $3 WHERE id = $4 AND status = $5 RETURNING")).
		WithArgs(string(competition.StatusInProgress), nil, testNow, "comp-1", string(competition.StatusDraft)).
		WillReturnRows(sqlmock.NewRows(competitionColumns))
	mock.ExpectQuery(regexp.QuoteMeta("FROM competitions WHERE id = $1")).
		WithArgs("comp-1").
		WillReturnRows(sqlmock.NewRows(competitionColumns).AddRow(
			"comp-1", "c1", "Autumn", nil, string(competition.StatusInProgress), testNow, nil, "user-owner", testNow, testNow,
		))

	_, err := repo.UpdateStatus(context.Background(), competition.StatusDraft, competition.Competition{
		ID:        "comp-1",
		Status:    competition.StatusInProgress,
		UpdatedAt: testNow,
	})
	if !errors.Is(err, entitystore.ErrStale) {
		t.Fatalf("expected stale, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestTournamentRepository_JoinDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTournamentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM tournaments WHERE id = $1 FOR UPDATE")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows(tournamentColumns).AddRow(
			"t1", "Open", "", testNow, nil, 8, 1, nil, string(tournament.StatusOpen), "user-owner", testNow,
		))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM tournament_participants WHERE tournament_id = $1 AND player_id = $2")).
		WithArgs("t1", "p1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := repo.Join(context.Background(), tournament.Participant{TournamentID: "t1", PlayerID: "p1", JoinedAt: testNow})
	if !errors.Is(err, entitystore.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestIntegrationRepository_ClaimDue(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewIntegrationRepository(db)

	lease := 2 * time.Minute
	rows := sqlmock.NewRows(taskColumns).
		AddRow("task-b", string(integration.KindCreateGroup), "c1", nil, nil, "group-7", string(integration.StatusPending), 1, "timeout", testNow.Add(lease), testNow.Add(-time.Minute), testNow).
		AddRow("task-a", string(integration.KindCreateGroup), "c2", nil, nil, nil, string(integration.StatusPending), 0, "", testNow.Add(lease), testNow.Add(-time.Hour), testNow)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE integration_tasks SET next_attempt_at = $1 WHERE id IN (SELECT id FROM integration_tasks WHERE status = $2 AND next_attempt_at <= $3")).
		WithArgs(testNow.Add(lease), string(integration.StatusPending), testNow, 10).
		WillReturnRows(rows)

	tasks, err := repo.ClaimDue(context.Background(), testNow, lease, 10)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != "task-a" || tasks[1].ID != "task-b" {
		t.Fatalf("expected tasks ordered by creation, got %+v", tasks)
	}
	if tasks[0].GroupRef != nil || tasks[1].GroupRef == nil || *tasks[1].GroupRef != "group-7" {
		t.Fatalf("group reference not mapped: %v / %v", tasks[0].GroupRef, tasks[1].GroupRef)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestIntegrationRepository_SaveMissingTask(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewIntegrationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE integration_tasks SET status = $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Save(context.Background(), integration.Task{ID: "task-x", Status: integration.StatusDone, UpdatedAt: testNow})
	if !errors.Is(err, entitystore.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
