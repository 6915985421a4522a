package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"tsf-arena-backend/internal/models"
)

const tournamentColumns = `id, title, game, map, mode, prize_pool, entry_fee,
	total_slots, status, room_id, room_password, start_time, created_at`

func scanTournament(row pgx.Row) (*models.Tournament, error) {
	var t models.Tournament
	err := row.Scan(&t.ID, &t.Title, &t.Game, &t.Map, &t.Mode, &t.PrizePool,
		&t.EntryFee, &t.TotalSlots, &t.Status, &t.RoomID, &t.RoomPassword,
		&t.StartTime, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan tournament: %w", err)
	}
	return &t, nil
}

func (s *Store) CreateTournament(ctx context.Context, req *models.CreateTournamentRequest) (*models.Tournament, error) {
	var startTime *time.Time
	if req.StartTime != "" {
		parsed, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			return nil, fmt.Errorf("invalid start_time: %w", models.ErrInvalidState)
		}
		startTime = &parsed
	}

	return scanTournament(s.pool.QueryRow(ctx, `
		INSERT INTO tournaments (title, map, mode, prize_pool, entry_fee, total_slots, start_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+tournamentColumns,
		req.Title, req.Map, req.Mode, req.PrizePool, req.EntryFee, req.TotalSlots, startTime))
}

// UpdateTournament moves a tournament through its lifecycle and sets the
// room credentials revealed to participants.
func (s *Store) UpdateTournament(ctx context.Context, id int64, status models.TournamentStatus, roomID, roomPassword string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tournaments SET status = $1, room_id = $2, room_password = $3
		WHERE id = $4`, status, roomID, roomPassword, id)
	if err != nil {
		return fmt.Errorf("update tournament: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListTournaments returns every tournament with its registered count, room
// credentials excluded.
func (s *Store) ListTournaments(ctx context.Context) ([]*models.Tournament, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT t.id, t.title, t.game, t.map, t.mode, t.prize_pool, t.entry_fee,
		       t.total_slots, t.status, t.start_time, t.created_at,
		       COUNT(p.id) AS registered
		FROM tournaments t
		LEFT JOIN tournament_participants p ON p.tournament_id = t.id
		GROUP BY t.id
		ORDER BY t.start_time ASC NULLS LAST`)
	if err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}
	defer rows.Close()

	var tournaments []*models.Tournament
	for rows.Next() {
		var t models.Tournament
		if err := rows.Scan(&t.ID, &t.Title, &t.Game, &t.Map, &t.Mode,
			&t.PrizePool, &t.EntryFee, &t.TotalSlots, &t.Status,
			&t.StartTime, &t.CreatedAt, &t.Registered); err != nil {
			return nil, fmt.Errorf("scan tournament: %w", err)
		}
		tournaments = append(tournaments, &t)
	}
	return tournaments, rows.Err()
}

func (s *Store) GetTournament(ctx context.Context, id int64) (*models.Tournament, error) {
	return scanTournament(s.pool.QueryRow(ctx,
		`SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1`, id))
}

func (s *Store) TournamentParticipants(ctx context.Context, tournamentID int64) ([]*models.Participant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.tournament_id, p.user_id, u.username, p.in_game_name,
		       p.in_game_id, p.kills, COALESCE(p.rank, 0), p.prize_won, p.created_at
		FROM tournament_participants p
		JOIN users u ON p.user_id = u.id
		WHERE p.tournament_id = $1
		ORDER BY p.created_at ASC`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("tournament participants: %w", err)
	}
	defer rows.Close()

	var participants []*models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.TournamentID, &p.UserID, &p.Username,
			&p.InGameName, &p.InGameID, &p.Kills, &p.Rank, &p.PrizeWon,
			&p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, &p)
	}
	return participants, rows.Err()
}

// RegisterParticipant joins a user to a tournament: fee debit, entry_fee
// ledger row and the participant row commit together or not at all. The
// tournament row is locked for the duration so two concurrent registrations
// for the last slot cannot both pass the capacity check.
func (s *Store) RegisterParticipant(ctx context.Context, userID, tournamentID int64, inGameName, inGameID string) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		t, err := scanTournament(tx.QueryRow(ctx,
			`SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1 FOR UPDATE`, tournamentID))
		if err != nil {
			return err
		}
		if t.Status != models.TournamentStatusUpcoming {
			return models.ErrRegistrationClosed
		}

		var count int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM tournament_participants WHERE tournament_id = $1`,
			tournamentID).Scan(&count); err != nil {
			return fmt.Errorf("count participants: %w", err)
		}
		if count >= t.TotalSlots {
			return models.ErrTournamentFull
		}

		var registered bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM tournament_participants
			WHERE tournament_id = $1 AND user_id = $2)`,
			tournamentID, userID).Scan(&registered); err != nil {
			return fmt.Errorf("check registration: %w", err)
		}
		if registered {
			return models.ErrAlreadyRegistered
		}

		if t.EntryFee > 0 {
			if _, err := debit(ctx, tx, userID, t.EntryFee); err != nil {
				return err
			}
			if err := insertCompleted(ctx, tx, userID, models.TransactionTypeEntryFee,
				t.EntryFee, fmt.Sprintf("tournament:%d", tournamentID)); err != nil {
				return err
			}
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO tournament_participants (tournament_id, user_id, in_game_name, in_game_id)
			VALUES ($1, $2, $3, $4)`,
			tournamentID, userID, inGameName, inGameID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return models.ErrAlreadyRegistered
			}
			return fmt.Errorf("insert participant: %w", err)
		}
		return nil
	})
}

// PublishResults records ranks, kills and prizes for a tournament and
// credits every prize through the ledger in one transaction, then marks the
// tournament completed.
func (s *Store) PublishResults(ctx context.Context, tournamentID int64, results []models.ParticipantResult) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		t, err := scanTournament(tx.QueryRow(ctx,
			`SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1 FOR UPDATE`, tournamentID))
		if err != nil {
			return err
		}
		if t.Status == models.TournamentStatusCompleted {
			return fmt.Errorf("results already published: %w", models.ErrInvalidState)
		}

		for _, r := range results {
			tag, err := tx.Exec(ctx, `
				UPDATE tournament_participants SET rank = $1, kills = $2, prize_won = $3
				WHERE tournament_id = $4 AND user_id = $5`,
				r.Rank, r.Kills, r.PrizeWon, tournamentID, r.UserID)
			if err != nil {
				return fmt.Errorf("update participant %d: %w", r.UserID, err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("user %d is not a participant: %w", r.UserID, models.ErrNotFound)
			}

			if r.PrizeWon > 0 {
				if _, err := credit(ctx, tx, r.UserID, r.PrizeWon); err != nil {
					return err
				}
				if err := insertCompleted(ctx, tx, r.UserID, models.TransactionTypePrize,
					r.PrizeWon, fmt.Sprintf("tournament:%d", tournamentID)); err != nil {
					return err
				}
			}
		}

		_, err = tx.Exec(ctx,
			`UPDATE tournaments SET status = 'completed' WHERE id = $1`, tournamentID)
		if err != nil {
			return fmt.Errorf("complete tournament: %w", err)
		}
		return nil
	})
}
