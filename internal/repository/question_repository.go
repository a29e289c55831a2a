package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"live-quiz-service/internal/models"
)

type QuestionRepository struct {
	db *sql.DB
}

func NewQuestionRepository(db *sql.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

func (r *QuestionRepository) GetRandomQuestions(ctx context.Context, count int) ([]models.Question, error) {
	query := `
		SELECT id, text, category, options, correct_index
		FROM questions
		ORDER BY RANDOM()
		LIMIT $1
	`
	return r.queryQuestions(ctx, query, count)
}

func (r *QuestionRepository) GetQuestionsByCategory(ctx context.Context, category string, count int) ([]models.Question, error) {
	query := `
		SELECT id, text, category, options, correct_index
		FROM questions
		WHERE category = $1
		ORDER BY RANDOM()
		LIMIT $2
	`
	return r.queryQuestions(ctx, query, category, count)
}

func (r *QuestionRepository) queryQuestions(ctx context.Context, query string, args ...any) ([]models.Question, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var q models.Question
		var optionsJSON []byte
		if err := rows.Scan(&q.ID, &q.Text, &q.Category, &optionsJSON, &q.CorrectIndex); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(optionsJSON, &q.Options); err != nil {
			return nil, fmt.Errorf("failed to parse options for question %s: %w", q.ID, err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
