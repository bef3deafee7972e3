package chessdto

// MoveDTO is one analysed candidate move.
type MoveDTO struct {
	Depth         int      `json:"depth"`
	MultiPV       int      `json:"multipv"`
	Move          string   `json:"move"`
	Continuation  []string `json:"continuation"`
	ScoreCP       int      `json:"score_cp"`
	IsMate        bool     `json:"is_mate"`
	MateIn        int      `json:"mate_in,omitempty"`
	IsCheck       bool     `json:"is_check"`
	IsCapture     bool     `json:"is_capture"`
	CapturedPiece string   `json:"captured_piece,omitempty"`
	SAN           string   `json:"san"`
	ReferenceSAN  string   `json:"reference_san,omitempty"`
}

type ParseStatsDTO struct {
	Lines     int `json:"lines"`
	Parsed    int `json:"parsed"`
	Skipped   int `json:"skipped"`
	Malformed int `json:"malformed"`
}

// AnalysisDTO is the HumanMoves response body.
type AnalysisDTO struct {
	ID         string        `json:"id"`
	Engine     string        `json:"engine"`
	FEN        string        `json:"fen"`
	Depth      int           `json:"depth"`
	BestMove   string        `json:"best_move,omitempty"`
	Checks     []MoveDTO     `json:"checks"`
	Captures   []MoveDTO     `json:"captures"`
	Stats      ParseStatsDTO `json:"stats"`
	DurationMS int64         `json:"duration_ms"`
	Cached     bool          `json:"cached"`
}
