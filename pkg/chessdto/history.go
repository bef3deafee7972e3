package chessdto

import "time"

type HistoryEntry struct {
	ID           string    `json:"id"`
	Engine       string    `json:"engine"`
	FEN          string    `json:"fen"`
	Depth        int       `json:"depth"`
	MultiPV      int       `json:"multipv"`
	Candidates   int       `json:"candidates"`
	Checks       int       `json:"checks"`
	Captures     int       `json:"captures"`
	BestMove     string    `json:"best_move,omitempty"`
	SkippedLines int       `json:"skipped_lines"`
	DurationMS   int64     `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}
