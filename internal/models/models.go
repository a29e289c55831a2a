package models

import "time"

type Question struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	Category     string   `json:"category"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

type Settings struct {
	Mode            string `json:"mode"` // "individual" or "team"
	QuestionCount   int    `json:"question_count"`
	TimePerQuestion int    `json:"time_per_question"` // seconds
	Category        string `json:"category,omitempty"`
}

type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Animal   string `json:"animal,omitempty"`
	Score    int    `json:"score"`
}

type TeamEntry struct {
	Rank    int      `json:"rank"`
	Animal  string   `json:"animal"`
	Score   int      `json:"score"`
	Members []string `json:"members"`
}

type PlayerResult struct {
	PlayerID  string `json:"player_id"`
	Name      string `json:"name"`
	Answered  bool   `json:"answered"`
	Answer    int    `json:"answer"`
	IsCorrect bool   `json:"is_correct"`
	Points    int    `json:"points"`
	Score     int    `json:"score"`
}

type GameResults struct {
	GameID      string             `json:"game_id"`
	Code        string             `json:"code"`
	Mode        string             `json:"mode"`
	Reason      string             `json:"reason"`
	Winners     []string           `json:"winners"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	Teams       []TeamEntry        `json:"teams,omitempty"`
	StartedAt   time.Time          `json:"started_at"`
	FinishedAt  time.Time          `json:"finished_at"`
}
