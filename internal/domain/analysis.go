package domain

import "time"

// AnalysisRecord is one completed HumanMoves analysis as kept in history.
type AnalysisRecord struct {
	ID           string
	Engine       string
	FEN          string
	Depth        int
	MultiPV      int
	Candidates   int
	Checks       int
	Captures     int
	BestMove     string
	SkippedLines int
	Duration     time.Duration
	CreatedAt    time.Time
	Payload      []byte
}
