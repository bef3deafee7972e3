package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/chess-humanmoves/internal/chess"
	"github.com/park285/chess-humanmoves/internal/chess/board"
	"github.com/park285/chess-humanmoves/internal/chess/render"
	"github.com/park285/chess-humanmoves/internal/chess/uci"
	"github.com/park285/chess-humanmoves/internal/domain"
	"github.com/park285/chess-humanmoves/pkg/chessdto"
)

// Engine is the part of *chess.Analyzer the service drives.
type Engine interface {
	Analyze(ctx context.Context, req chess.AnalyzeRequest) (chess.Analysis, error)
	ProcessText(ctx context.Context, engineName, script string) (uci.Transcript, error)
	Depth() int
	MultiPV() int
}

type Config struct {
	DefaultEngine   string
	AnalysisTimeout time.Duration
	HistoryLimit    int
}

type Service struct {
	engine   Engine
	cache    Cache
	repo     Repository
	renderer *render.Renderer
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(engine Engine, cache Cache, repo Repository, renderer *render.Renderer, cfg Config, logger *zap.Logger) (*Service, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine required")
	}
	if repo == nil {
		repo = NewMemoryRepository(0)
	}
	if renderer == nil {
		renderer = render.NewRenderer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 20
	}
	return &Service{
		engine:   engine,
		cache:    cache,
		repo:     repo,
		renderer: renderer,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}, nil
}

func (s *Service) engineName(name string) string {
	if strings.TrimSpace(name) == "" {
		return s.cfg.DefaultEngine
	}
	return name
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.AnalysisTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.AnalysisTimeout)
}

// HumanMoves analyses req.FEN with the named engine and returns the
// checking and capturing candidates. Cache and history failures are logged
// and never fail the request.
func (s *Service) HumanMoves(ctx context.Context, req chessdto.HumanMovesRequest) (*chessdto.AnalysisDTO, error) {
	engineName := s.engineName(req.Engine)
	key := CacheKey(engineName, s.engine.Depth(), s.engine.MultiPV(), req.FEN)

	if s.cache != nil {
		dto, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("analysis_cache_get_failed", zap.Error(err))
		} else if dto != nil {
			dto.Cached = true
			s.logger.Debug("analysis_cache_hit", zap.String("engine", engineName), zap.String("fen", req.FEN))
			return dto, nil
		}
	}

	runCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	result, err := s.engine.Analyze(runCtx, chess.AnalyzeRequest{Engine: engineName, FEN: req.FEN})
	if err != nil {
		if runCtx.Err() != nil && ctx.Err() == nil {
			err = fmt.Errorf("%w: %w", uci.ErrProtocolTimeout, err)
		}
		s.logger.Info("analysis_failed",
			zap.String("engine", engineName),
			zap.String("fen", req.FEN),
			zap.Error(err),
		)
		return nil, err
	}

	dto := toAnalysisDTO(result)
	dto.ID = uuid.NewString()

	if s.cache != nil {
		if err := s.cache.Put(ctx, key, dto); err != nil {
			s.logger.Warn("analysis_cache_put_failed", zap.Error(err))
		}
	}
	s.record(ctx, dto, result)
	return dto, nil
}

func (s *Service) record(ctx context.Context, dto *chessdto.AnalysisDTO, result chess.Analysis) {
	payload, err := json.Marshal(dto)
	if err != nil {
		s.logger.Warn("analysis_payload_encode_failed", zap.Error(err))
		return
	}
	rec := &domain.AnalysisRecord{
		ID:           dto.ID,
		Engine:       result.Engine,
		FEN:          result.FEN,
		Depth:        result.Depth,
		MultiPV:      result.MultiPV,
		Candidates:   len(result.Candidates),
		Checks:       len(result.Checks),
		Captures:     len(result.Captures),
		BestMove:     result.BestMove,
		SkippedLines: result.Stats.Skipped,
		Duration:     result.Duration,
		CreatedAt:    s.now().UTC(),
		Payload:      payload,
	}
	if err := s.repo.InsertAnalysis(ctx, rec); err != nil {
		s.logger.Warn("analysis_history_insert_failed", zap.String("id", rec.ID), zap.Error(err))
	}
}

// ProcessText forwards a raw UCI script. Whatever the engine wrote to
// stderr is returned alongside its output.
func (s *Service) ProcessText(ctx context.Context, req chessdto.ProcessTextRequest) (*chessdto.ProcessTextResponse, error) {
	if strings.TrimSpace(req.Script) == "" {
		return nil, chessdto.DomainError{Code: chessdto.CodeInvalidRequest, Message: "empty script"}
	}
	runCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	tr, err := s.engine.ProcessText(runCtx, s.engineName(req.Engine), req.Script)
	if err != nil {
		return nil, err
	}
	return &chessdto.ProcessTextResponse{Output: tr.Output, Errors: tr.Errors}, nil
}

// RenderBoard draws req.FEN as PNG. When req.Move is set the move is
// highlighted and its SAN is used as the caption.
func (s *Service) RenderBoard(ctx context.Context, req chessdto.BoardRequest) ([]byte, error) {
	pos, err := board.ParseFEN(req.FEN)
	if err != nil {
		return nil, err
	}
	opts := render.Options{Move: strings.TrimSpace(req.Move)}
	if opts.Move != "" {
		cm, err := chess.DescribeMove(pos, opts.Move)
		if err != nil {
			return nil, err
		}
		opts.Caption = cm.SAN
	}
	return s.renderer.RenderPNG(ctx, pos, opts)
}

func (s *Service) History(ctx context.Context, limit int) ([]chessdto.HistoryEntry, error) {
	if limit <= 0 || limit > s.cfg.HistoryLimit {
		limit = s.cfg.HistoryLimit
	}
	recs, err := s.repo.RecentAnalyses(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]chessdto.HistoryEntry, 0, len(recs))
	for _, r := range recs {
		out = append(out, chessdto.HistoryEntry{
			ID:           r.ID,
			Engine:       r.Engine,
			FEN:          r.FEN,
			Depth:        r.Depth,
			MultiPV:      r.MultiPV,
			Candidates:   r.Candidates,
			Checks:       r.Checks,
			Captures:     r.Captures,
			BestMove:     r.BestMove,
			SkippedLines: r.SkippedLines,
			DurationMS:   r.Duration.Milliseconds(),
			CreatedAt:    r.CreatedAt,
		})
	}
	return out, nil
}

func toAnalysisDTO(a chess.Analysis) *chessdto.AnalysisDTO {
	return &chessdto.AnalysisDTO{
		Engine:   a.Engine,
		FEN:      a.FEN,
		Depth:    a.Depth,
		BestMove: a.BestMove,
		Checks:   toMoveDTOs(a.Checks),
		Captures: toMoveDTOs(a.Captures),
		Stats: chessdto.ParseStatsDTO{
			Lines:     a.Stats.Lines,
			Parsed:    a.Stats.Parsed,
			Skipped:   a.Stats.Skipped,
			Malformed: a.Stats.Malformed,
		},
		DurationMS: a.Duration.Milliseconds(),
	}
}

func toMoveDTOs(moves []chess.CandidateMove) []chessdto.MoveDTO {
	out := make([]chessdto.MoveDTO, 0, len(moves))
	for _, m := range moves {
		cont := m.Principal
		if cont == nil {
			cont = []string{}
		}
		out = append(out, chessdto.MoveDTO{
			Depth:         m.Depth,
			MultiPV:       m.MultiPV,
			Move:          m.Move,
			Continuation:  cont,
			ScoreCP:       m.ScoreCP,
			IsMate:        m.Mate,
			MateIn:        m.MateIn,
			IsCheck:       m.IsCheck,
			IsCapture:     m.IsCapture,
			CapturedPiece: m.CapturedPiece,
			SAN:           m.SAN,
			ReferenceSAN:  m.ReferenceSAN,
		})
	}
	return out
}

// DomainErrorFor maps an error from this package to the error payload
// returned to clients.
func DomainErrorFor(err error) chessdto.DomainError {
	var de chessdto.DomainError
	switch {
	case err == nil:
		return chessdto.DomainError{}
	case errors.As(err, &de):
		return de
	case errors.Is(err, board.ErrFormat):
		return chessdto.DomainError{Code: chessdto.CodeInvalidFEN, Message: err.Error()}
	case errors.Is(err, board.ErrInvalidMove):
		return chessdto.DomainError{Code: chessdto.CodeInvalidMove, Message: err.Error()}
	case errors.Is(err, chess.ErrNoKing):
		return chessdto.DomainError{Code: chessdto.CodeNoKing, Message: err.Error()}
	case errors.Is(err, uci.ErrUnknownEngine):
		return chessdto.DomainError{Code: chessdto.CodeUnknownEngine, Message: err.Error()}
	case errors.Is(err, uci.ErrProtocolTimeout), errors.Is(err, context.DeadlineExceeded):
		return chessdto.DomainError{Code: chessdto.CodeEngineTimeout, Message: "engine timed out", Retryable: true}
	case errors.Is(err, uci.ErrEngineFailure):
		return chessdto.DomainError{Code: chessdto.CodeEngineFailure, Message: err.Error(), Retryable: true}
	default:
		return chessdto.DomainError{Code: chessdto.CodeInternal, Message: "internal error"}
	}
}
