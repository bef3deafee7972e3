package chess

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/chess-humanmoves/internal/chess/board"
	"github.com/park285/chess-humanmoves/internal/chess/uci"
)

const (
	DefaultDepth   = 3
	DefaultMultiPV = 220
)

// ErrNoKing means the side not to move has no king, so checks cannot be
// detected.
var ErrNoKing = errors.New("no king for the side not to move")

// Runner executes one engine exchange. uci.Run in production.
type Runner func(ctx context.Context, req uci.RunRequest) (uci.Transcript, error)

type AnalyzerConfig struct {
	Registry     *uci.Registry
	Gate         *uci.Gate
	Depth        int
	MultiPV      int
	ExitTimeout  time.Duration
	ReferenceSAN bool
	Runner       Runner
	Logger       *zap.Logger
}

type Analyzer struct {
	registry     *uci.Registry
	gate         *uci.Gate
	depth        int
	multiPV      int
	exitTimeout  time.Duration
	referenceSAN bool
	run          Runner
	logger       *zap.Logger
}

func NewAnalyzer(cfg AnalyzerConfig) (*Analyzer, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("engine registry required")
	}
	a := &Analyzer{
		registry:     cfg.Registry,
		gate:         cfg.Gate,
		depth:        cfg.Depth,
		multiPV:      cfg.MultiPV,
		exitTimeout:  cfg.ExitTimeout,
		referenceSAN: cfg.ReferenceSAN,
		run:          cfg.Runner,
		logger:       cfg.Logger,
	}
	if a.depth <= 0 {
		a.depth = DefaultDepth
	}
	if a.multiPV <= 0 {
		a.multiPV = DefaultMultiPV
	}
	if a.exitTimeout <= 0 {
		a.exitTimeout = uci.DefaultExitTimeout
	}
	if a.gate == nil {
		a.gate = uci.NewGate(uci.GateConfig{})
	}
	if a.run == nil {
		a.run = uci.Run
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	return a, nil
}

type AnalyzeRequest struct {
	Engine string
	FEN    string
}

// CandidateMove is an engine candidate with the board facts derived from
// playing it.
type CandidateMove struct {
	uci.Candidate
	IsCheck       bool
	IsCapture     bool
	CapturedPiece string
	SAN           string
	ReferenceSAN  string
}

type Analysis struct {
	Engine     string
	FEN        string
	Depth      int
	MultiPV    int
	Candidates []CandidateMove
	Checks     []CandidateMove
	Captures   []CandidateMove
	Stats      uci.ParseStats
	BestMove   string
	Duration   time.Duration
}

func (a *Analyzer) Depth() int   { return a.depth }
func (a *Analyzer) MultiPV() int { return a.multiPV }

// Analyze runs the engine on req.FEN and returns the candidate moves at the
// configured depth, split into checking and capturing views. A move can
// appear in both.
func (a *Analyzer) Analyze(ctx context.Context, req AnalyzeRequest) (Analysis, error) {
	start := time.Now()

	pos, err := board.ParseFEN(req.FEN)
	if err != nil {
		return Analysis{}, err
	}
	defender := pos.SideToMove.Opposite()
	king, ok := board.FindKing(pos, defender)
	if !ok {
		return Analysis{}, fmt.Errorf("%w: %s", ErrNoKing, defender)
	}

	script, err := uci.BuildScript(pos.FEN, a.multiPV, a.depth)
	if err != nil {
		return Analysis{}, err
	}
	engine, tr, err := a.exchange(ctx, req.Engine, script)
	if err != nil {
		return Analysis{}, err
	}
	if err := tr.Failure(); err != nil {
		return Analysis{}, err
	}

	parsed, stats := uci.ParseStream(tr.Output)
	if stats.Malformed > 0 {
		a.logger.Warn("engine_output_malformed",
			zap.String("engine", engine.Name),
			zap.Int("malformed", stats.Malformed),
			zap.Int("lines", stats.Lines),
		)
	}

	out := Analysis{
		Engine:   engine.Name,
		FEN:      pos.FEN,
		Depth:    a.depth,
		MultiPV:  a.multiPV,
		Stats:    stats,
		BestMove: bestMove(tr.Output),
	}
	for _, c := range parsed {
		if c.Depth != a.depth || !humanPromotion(c.Move) {
			continue
		}
		cm, err := a.enrich(pos, king, c)
		if err != nil {
			a.logger.Warn("candidate_dropped",
				zap.String("engine", engine.Name),
				zap.String("move", c.Move),
				zap.Error(err),
			)
			continue
		}
		out.Candidates = append(out.Candidates, cm)
		if cm.IsCheck {
			out.Checks = append(out.Checks, cm)
		}
		if cm.IsCapture {
			out.Captures = append(out.Captures, cm)
		}
	}
	out.Duration = time.Since(start)

	a.logger.Debug("analysis_complete",
		zap.String("engine", engine.Name),
		zap.String("fen", pos.FEN),
		zap.Int("candidates", len(out.Candidates)),
		zap.Int("checks", len(out.Checks)),
		zap.Int("captures", len(out.Captures)),
		zap.Int("skipped_lines", stats.Skipped),
		zap.Duration("duration", out.Duration),
	)
	return out, nil
}

// ProcessText sends script to the named engine verbatim and returns the raw
// transcript. Stderr output is reported, not treated as a failure.
func (a *Analyzer) ProcessText(ctx context.Context, engineName, script string) (uci.Transcript, error) {
	_, tr, err := a.exchange(ctx, engineName, script)
	return tr, err
}

func (a *Analyzer) exchange(ctx context.Context, engineName, script string) (uci.Engine, uci.Transcript, error) {
	engine, err := a.registry.Resolve(engineName)
	if err != nil {
		return uci.Engine{}, uci.Transcript{}, err
	}
	release, err := a.gate.Acquire(ctx, engine.Path)
	if err != nil {
		return engine, uci.Transcript{}, fmt.Errorf("wait for engine slot: %w", err)
	}
	defer release()

	tr, err := a.run(ctx, uci.RunRequest{
		EnginePath:  engine.Path,
		WorkingDir:  engine.WorkingDir,
		Script:      script,
		ExitTimeout: a.exitTimeout,
	})
	if err != nil {
		return engine, tr, fmt.Errorf("run %s: %w", engine.Name, err)
	}
	return engine, tr, nil
}

// DescribeMove plays coord on pos and reports check, capture and SAN for
// it. It is the per-candidate step of Analyze, usable without an engine.
func DescribeMove(pos board.Position, coord string) (CandidateMove, error) {
	defender := pos.SideToMove.Opposite()
	king, ok := board.FindKing(pos, defender)
	if !ok {
		return CandidateMove{}, fmt.Errorf("%w: %s", ErrNoKing, defender)
	}
	return describe(pos, king, uci.Candidate{Move: coord})
}

func describe(pos board.Position, king board.Square, c uci.Candidate) (CandidateMove, error) {
	m, err := board.ParseMove(c.Move)
	if err != nil {
		return CandidateMove{}, err
	}
	next, err := board.Apply(pos, c.Move)
	if err != nil {
		return CandidateMove{}, err
	}

	cm := CandidateMove{Candidate: c}
	cm.IsCheck = board.IsSquareThreatened(next, king.Row, king.Col)
	if target := pos.At(m.To); target != board.Empty {
		cm.IsCapture = true
		cm.CapturedPiece = strings.ToUpper(string(target))
	}
	if cm.SAN, err = board.ToAlgebraic(pos, c.Move, cm.IsCheck, cm.IsCapture); err != nil {
		return CandidateMove{}, err
	}
	return cm, nil
}

func (a *Analyzer) enrich(pos board.Position, king board.Square, c uci.Candidate) (CandidateMove, error) {
	cm, err := describe(pos, king, c)
	if err != nil {
		return CandidateMove{}, err
	}
	if a.referenceSAN {
		if ref, err := ReferenceNotation(pos.FEN, c.Move); err == nil {
			cm.ReferenceSAN = ref
		} else {
			a.logger.Debug("reference_san_unavailable", zap.String("move", c.Move), zap.Error(err))
		}
	}
	return cm, nil
}

// humanPromotion drops under-promotions to bishop or rook.
func humanPromotion(move string) bool {
	if len(move) < 5 {
		return true
	}
	switch move[4] {
	case 'q', 'n', 'Q', 'N':
		return true
	default:
		return false
	}
}

func bestMove(output string) string {
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == "bestmove" {
			return fields[1]
		}
	}
	return ""
}
