package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"live-quiz-service/internal/models"
)

type ResultRepository struct {
	db *sql.DB
}

func NewResultRepository(db *sql.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// SaveResults records one finished game. The live session is gone after
// its eviction grace period; this row is the durable trace.
func (r *ResultRepository) SaveResults(ctx context.Context, results *models.GameResults) error {
	winnersJSON, err := json.Marshal(results.Winners)
	if err != nil {
		return fmt.Errorf("failed to marshal winners: %w", err)
	}
	leaderboardJSON, err := json.Marshal(results.Leaderboard)
	if err != nil {
		return fmt.Errorf("failed to marshal leaderboard: %w", err)
	}
	var teamsJSON []byte
	if results.Teams != nil {
		teamsJSON, err = json.Marshal(results.Teams)
		if err != nil {
			return fmt.Errorf("failed to marshal teams: %w", err)
		}
	}

	query := `
		INSERT INTO game_results (game_id, code, mode, reason, winners, leaderboard, teams, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (game_id) DO NOTHING
	`
	_, err = r.db.ExecContext(ctx, query,
		results.GameID,
		results.Code,
		results.Mode,
		results.Reason,
		winnersJSON,
		leaderboardJSON,
		teamsJSON,
		results.StartedAt,
		results.FinishedAt,
	)
	return err
}
