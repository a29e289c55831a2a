package database

import (
	"context"
	"database/sql"
	"fmt"

	"live-quiz-service/config"

	_ "github.com/lib/pq"
)

type PostgresClient struct {
	db     *sql.DB
	config *config.DBConfig
}

func NewPostgresClient(cfg *config.DBConfig) (*PostgresClient, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{
		db:     db,
		config: cfg,
	}, nil
}

func (c *PostgresClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *PostgresClient) GetDB() *sql.DB {
	return c.db
}

func (c *PostgresClient) InitSchema(ctx context.Context) error {
	createQuestionsTable := `
		CREATE TABLE IF NOT EXISTS questions (
			id VARCHAR(255) PRIMARY KEY,
			text TEXT NOT NULL,
			category VARCHAR(100) NOT NULL DEFAULT '',
			options JSONB NOT NULL,
			correct_index INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_questions_category ON questions(category);
	`

	createGameResultsTable := `
		CREATE TABLE IF NOT EXISTS game_results (
			game_id VARCHAR(255) PRIMARY KEY,
			code VARCHAR(10) NOT NULL,
			mode VARCHAR(20) NOT NULL,
			reason VARCHAR(50) NOT NULL,
			winners JSONB NOT NULL DEFAULT '[]',
			leaderboard JSONB NOT NULL DEFAULT '[]',
			teams JSONB,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_game_results_finished_at ON game_results(finished_at);
	`

	if _, err := c.db.ExecContext(ctx, createQuestionsTable); err != nil {
		return fmt.Errorf("failed to create questions table: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, createGameResultsTable); err != nil {
		return fmt.Errorf("failed to create game_results table: %w", err)
	}

	return nil
}
