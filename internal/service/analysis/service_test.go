package analysis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/park285/chess-humanmoves/internal/chess"
	"github.com/park285/chess-humanmoves/internal/chess/board"
	"github.com/park285/chess-humanmoves/internal/chess/uci"
	"github.com/park285/chess-humanmoves/pkg/chessdto"
)

type fakeEngine struct {
	calls  int
	result chess.Analysis
	err    error
	block  bool
	script string
}

func (f *fakeEngine) Analyze(ctx context.Context, req chess.AnalyzeRequest) (chess.Analysis, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return chess.Analysis{}, ctx.Err()
	}
	if f.err != nil {
		return chess.Analysis{}, f.err
	}
	out := f.result
	out.Engine = req.Engine
	out.FEN = req.FEN
	return out, nil
}

func (f *fakeEngine) ProcessText(ctx context.Context, engineName, script string) (uci.Transcript, error) {
	f.calls++
	f.script = script
	return uci.Transcript{Output: "uciok\n", Errors: "warn"}, f.err
}

func (f *fakeEngine) Depth() int   { return 3 }
func (f *fakeEngine) MultiPV() int { return 220 }

func sampleAnalysis() chess.Analysis {
	check := chess.CandidateMove{
		Candidate: uci.Candidate{Depth: 3, MultiPV: 1, Move: "h1h8", Mate: true, MateIn: 1},
		IsCheck:   true,
		SAN:       "Qh8+",
	}
	return chess.Analysis{
		Depth:      3,
		MultiPV:    220,
		Candidates: []chess.CandidateMove{check},
		Checks:     []chess.CandidateMove{check},
		Stats:      uci.ParseStats{Lines: 3, Parsed: 1, Skipped: 2},
		BestMove:   "h1h8",
	}
}

func newTestService(t *testing.T, eng *fakeEngine, withCache bool) (*Service, *miniredis.Miniredis) {
	t.Helper()
	var (
		cache Cache
		mr    *miniredis.Miniredis
	)
	if withCache {
		mr = miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })
		cache = NewRedisCache(rdb, time.Minute)
	}
	svc, err := NewService(eng, cache, NewMemoryRepository(10), nil, Config{DefaultEngine: "stockfish", HistoryLimit: 5}, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, mr
}

const queenFEN = "3k4/R7/8/8/8/8/8/3K3Q w - - 0 1"

func TestHumanMovesCachesResult(t *testing.T) {
	eng := &fakeEngine{result: sampleAnalysis()}
	svc, _ := newTestService(t, eng, true)
	ctx := context.Background()

	first, err := svc.HumanMoves(ctx, chessdto.HumanMovesRequest{Engine: "Stockfish", FEN: queenFEN})
	if err != nil {
		t.Fatalf("HumanMoves: %v", err)
	}
	if first.Cached || first.ID == "" || len(first.Checks) != 1 || first.Checks[0].SAN != "Qh8+" {
		t.Fatalf("first = %+v", first)
	}
	if first.Captures == nil || first.Checks[0].Continuation == nil {
		t.Fatalf("empty lists must encode as [] not null")
	}

	// same position with different spacing and engine case
	second, err := svc.HumanMoves(ctx, chessdto.HumanMovesRequest{Engine: "stockfish", FEN: "3k4/R7/8/8/8/8/8/3K3Q  w - - 0 1"})
	if err != nil {
		t.Fatalf("HumanMoves: %v", err)
	}
	if !second.Cached || second.ID != first.ID {
		t.Fatalf("expected cache hit, got %+v", second)
	}
	if eng.calls != 1 {
		t.Fatalf("engine calls = %d, want 1", eng.calls)
	}
}

func TestHumanMovesRecordsHistory(t *testing.T) {
	eng := &fakeEngine{result: sampleAnalysis()}
	svc, _ := newTestService(t, eng, false)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.HumanMoves(ctx, chessdto.HumanMovesRequest{FEN: queenFEN}); err != nil {
			t.Fatalf("HumanMoves: %v", err)
		}
	}
	entries, err := svc.History(ctx, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	e := entries[0]
	if e.Engine != "stockfish" || e.Checks != 1 || e.SkippedLines != 2 || e.BestMove != "h1h8" {
		t.Fatalf("entry = %+v", e)
	}
	if eng.calls != 3 {
		t.Fatalf("engine calls = %d without cache, want 3", eng.calls)
	}
}

func TestHumanMovesErrorIsNotCached(t *testing.T) {
	eng := &fakeEngine{err: &uci.EngineFailure{Reason: "engine wrote to stderr", Stderr: "boom"}}
	svc, _ := newTestService(t, eng, true)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.HumanMoves(ctx, chessdto.HumanMovesRequest{FEN: queenFEN})
		if !errors.Is(err, uci.ErrEngineFailure) {
			t.Fatalf("error = %v, want ErrEngineFailure", err)
		}
	}
	if eng.calls != 2 {
		t.Fatalf("engine calls = %d, want 2", eng.calls)
	}
	if entries, _ := svc.History(ctx, 10); len(entries) != 0 {
		t.Fatalf("failed analysis recorded: %+v", entries)
	}
}

func TestHumanMovesTimeout(t *testing.T) {
	eng := &fakeEngine{block: true}
	svc, err := NewService(eng, nil, nil, nil, Config{AnalysisTimeout: 20 * time.Millisecond}, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	_, err = svc.HumanMoves(context.Background(), chessdto.HumanMovesRequest{Engine: "stockfish", FEN: queenFEN})
	if !errors.Is(err, uci.ErrProtocolTimeout) {
		t.Fatalf("error = %v, want ErrProtocolTimeout", err)
	}
	if got := DomainErrorFor(err); got.Code != chessdto.CodeEngineTimeout || !got.Retryable {
		t.Fatalf("domain error = %+v", got)
	}
}

func TestProcessText(t *testing.T) {
	eng := &fakeEngine{}
	svc, _ := newTestService(t, eng, false)

	resp, err := svc.ProcessText(context.Background(), chessdto.ProcessTextRequest{Engine: "stockfish", Script: "uci\nisready\n"})
	if err != nil {
		t.Fatalf("ProcessText: %v", err)
	}
	if resp.Output != "uciok\n" || resp.Errors != "warn" || eng.script != "uci\nisready\n" {
		t.Fatalf("resp = %+v script=%q", resp, eng.script)
	}

	_, err = svc.ProcessText(context.Background(), chessdto.ProcessTextRequest{Engine: "stockfish", Script: "  "})
	var de chessdto.DomainError
	if !errors.As(err, &de) || de.Code != chessdto.CodeInvalidRequest {
		t.Fatalf("error = %v, want invalid_request", err)
	}
}

func TestRenderBoard(t *testing.T) {
	svc, _ := newTestService(t, &fakeEngine{}, false)
	ctx := context.Background()

	png, err := svc.RenderBoard(ctx, chessdto.BoardRequest{FEN: queenFEN, Move: "h1h8"})
	if err != nil {
		t.Fatalf("RenderBoard: %v", err)
	}
	if len(png) < 8 || string(png[1:4]) != "PNG" {
		t.Fatalf("not a png")
	}
	if _, err := svc.RenderBoard(ctx, chessdto.BoardRequest{FEN: "bad"}); !errors.Is(err, board.ErrFormat) {
		t.Fatalf("error = %v, want ErrFormat", err)
	}
	if _, err := svc.RenderBoard(ctx, chessdto.BoardRequest{FEN: queenFEN, Move: "a3a4"}); !errors.Is(err, board.ErrInvalidMove) {
		t.Fatalf("error = %v, want ErrInvalidMove", err)
	}
}

func TestDomainErrorFor(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{&board.FormatError{FEN: "x", Reason: "bad"}, chessdto.CodeInvalidFEN},
		{fmt.Errorf("wrap: %w", board.ErrInvalidMove), chessdto.CodeInvalidMove},
		{chess.ErrNoKing, chessdto.CodeNoKing},
		{&uci.UnknownEngineError{Name: "x", Valid: []string{"Stockfish"}}, chessdto.CodeUnknownEngine},
		{fmt.Errorf("run: %w", uci.ErrProtocolTimeout), chessdto.CodeEngineTimeout},
		{&uci.EngineFailure{Reason: "eof"}, chessdto.CodeEngineFailure},
		{chessdto.DomainError{Code: chessdto.CodeInvalidRequest}, chessdto.CodeInvalidRequest},
		{errors.New("disk on fire"), chessdto.CodeInternal},
	}
	for _, tc := range cases {
		if got := DomainErrorFor(tc.err); got.Code != tc.code {
			t.Fatalf("DomainErrorFor(%v) = %q, want %q", tc.err, got.Code, tc.code)
		}
	}
}
