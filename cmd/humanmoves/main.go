package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/park285/chess-humanmoves/internal/adapter/chesspresenter"
	"github.com/park285/chess-humanmoves/internal/analysisbuilder"
	"github.com/park285/chess-humanmoves/internal/chess/board"
	appcfg "github.com/park285/chess-humanmoves/internal/config"
	"github.com/park285/chess-humanmoves/internal/httpapi"
	"github.com/park285/chess-humanmoves/pkg/chessdto"
)

// backend is what the CLI needs from either a local analysis stack or a
// running humanmoves-server.
type backend interface {
	HumanMoves(ctx context.Context, engine, fen string) (*chessdto.AnalysisDTO, error)
	ProcessText(ctx context.Context, engine, script string) (chessdto.ProcessTextResponse, error)
	History(ctx context.Context, limit int) ([]chessdto.HistoryEntry, error)
	BoardPNG(ctx context.Context, fen, move string) ([]byte, error)
	Close() error
}

// humanmoves analyses one position, sends a raw UCI script, or lists recent
// analyses, either locally or through a humanmoves-server (-server).
func main() {
	engine := flag.String("engine", "", "engine name (default from DEFAULT_ENGINE, stockfish with -server)")
	fen := flag.String("fen", "", "position to analyse")
	script := flag.String("script", "", "file with a raw UCI script to send instead of analysing (- for stdin)")
	history := flag.Int("history", 0, "list the N most recent analyses instead of analysing")
	server := flag.String("server", "", "base URL of a humanmoves-server; work locally when empty")
	boardOut := flag.String("board", "", "also write a PNG of the position to this file")
	format := flag.String("format", "json", "output format: json or text")
	timeout := flag.Duration("timeout", time.Minute, "overall timeout")
	flag.Parse()

	if strings.TrimSpace(*fen) == "" && *script == "" && *history <= 0 {
		fmt.Fprintln(os.Stderr, "usage: humanmoves -engine stockfish -fen \"<fen>\" [-server URL] [-board out.png] [-format text]")
		fmt.Fprintln(os.Stderr, "       humanmoves -script commands.txt | -history N")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	be, err := open(ctx, *server, *timeout)
	if err != nil {
		log.Fatalf("init error: %v", err)
	}
	defer func() { _ = be.Close() }()

	name := *engine
	if name == "" && *server != "" {
		name = "stockfish"
	}

	switch {
	case *history > 0:
		entries, err := be.History(ctx, *history)
		if err != nil {
			log.Fatalf("history failed: %v", err)
		}
		output(*format, entries, func() string { return chesspresenter.NewFormatter().History(entries) })

	case *script != "":
		text, err := readScript(*script)
		if err != nil {
			log.Fatalf("read script: %v", err)
		}
		resp, err := be.ProcessText(ctx, name, text)
		if err != nil {
			log.Fatalf("process text failed: %v", err)
		}
		fmt.Print(resp.Output)
		if resp.Errors != "" {
			fmt.Fprint(os.Stderr, resp.Errors)
		}

	default:
		result, err := be.HumanMoves(ctx, name, *fen)
		if err != nil {
			log.Fatalf("analysis failed: %v", err)
		}
		if *boardOut != "" {
			png, err := be.BoardPNG(ctx, *fen, bestOf(result))
			if err != nil {
				log.Printf("board not written: %v", err)
			} else if err := os.WriteFile(*boardOut, png, 0o644); err != nil {
				log.Fatalf("write board: %v", err)
			}
		}
		output(*format, result, func() string { return chesspresenter.NewFormatter().Analysis(result) })
	}
}

func output(format string, v any, text func() string) {
	if format == "text" {
		fmt.Println(text())
		return
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("encode: %v", err)
	}
}

func open(ctx context.Context, server string, timeout time.Duration) (backend, error) {
	if server != "" {
		client := httpapi.NewClient(server, httpapi.WithTimeout(timeout))
		if err := client.Health(ctx); err != nil {
			return nil, fmt.Errorf("server %s not healthy: %w", server, err)
		}
		return remote{client}, nil
	}
	cfg, err := appcfg.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	deps, err := analysisbuilder.New(ctx, cfg, nil)
	if err != nil {
		return nil, err
	}
	return local{deps}, nil
}

func readScript(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

// bestOf returns the engine's best move when it is a playable coordinate
// move; "(none)" on mate or stalemate is not.
func bestOf(a *chessdto.AnalysisDTO) string {
	if a == nil {
		return ""
	}
	if _, err := board.ParseMove(a.BestMove); err != nil {
		return ""
	}
	return a.BestMove
}

type remote struct{ c *httpapi.Client }

func (r remote) HumanMoves(ctx context.Context, engine, fen string) (*chessdto.AnalysisDTO, error) {
	return r.c.HumanMoves(ctx, engine, fen)
}

func (r remote) ProcessText(ctx context.Context, engine, script string) (chessdto.ProcessTextResponse, error) {
	out, err := r.c.ProcessText(ctx, engine, script)
	return chessdto.ProcessTextResponse{Output: out}, err
}

func (r remote) History(ctx context.Context, limit int) ([]chessdto.HistoryEntry, error) {
	return r.c.History(ctx, limit)
}

func (r remote) BoardPNG(ctx context.Context, fen, move string) ([]byte, error) {
	return r.c.BoardPNG(ctx, fen, move)
}

func (remote) Close() error { return nil }

type local struct{ d *analysisbuilder.Deps }

func (l local) HumanMoves(ctx context.Context, engine, fen string) (*chessdto.AnalysisDTO, error) {
	return l.d.Service.HumanMoves(ctx, chessdto.HumanMovesRequest{Engine: engine, FEN: fen})
}

func (l local) ProcessText(ctx context.Context, engine, script string) (chessdto.ProcessTextResponse, error) {
	resp, err := l.d.Service.ProcessText(ctx, chessdto.ProcessTextRequest{Engine: engine, Script: script})
	if err != nil {
		return chessdto.ProcessTextResponse{}, err
	}
	return *resp, nil
}

func (l local) History(ctx context.Context, limit int) ([]chessdto.HistoryEntry, error) {
	return l.d.Service.History(ctx, limit)
}

func (l local) BoardPNG(ctx context.Context, fen, move string) ([]byte, error) {
	return l.d.Service.RenderBoard(ctx, chessdto.BoardRequest{FEN: fen, Move: move})
}

func (l local) Close() error { return l.d.Close() }
