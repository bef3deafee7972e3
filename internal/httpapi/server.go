package httpapi

import (
	"context"
	"encoding/json"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/chess-humanmoves/internal/service/analysis"
	"github.com/park285/chess-humanmoves/pkg/chessdto"
)

// Service is what the HTTP surface calls; *analysis.Service in production.
type Service interface {
	HumanMoves(ctx context.Context, req chessdto.HumanMovesRequest) (*chessdto.AnalysisDTO, error)
	ProcessText(ctx context.Context, req chessdto.ProcessTextRequest) (*chessdto.ProcessTextResponse, error)
	RenderBoard(ctx context.Context, req chessdto.BoardRequest) ([]byte, error)
	History(ctx context.Context, limit int) ([]chessdto.HistoryEntry, error)
}

const (
	enginePrefix   = "/chess/engine/"
	maxScriptBytes = 64 * 1024
)

type Server struct {
	svc    Service
	logger *zap.Logger
	srv    *fasthttp.Server
}

func NewServer(svc Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{svc: svc, logger: logger}
	s.srv = &fasthttp.Server{
		Handler:            s.Handle,
		Name:               "humanmoves",
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       2 * time.Minute,
		MaxRequestBodySize: maxScriptBytes,
	}
	return s
}

func (s *Server) ListenAndServe(addr string) error { return s.srv.ListenAndServe(addr) }

func (s *Server) Serve(ln net.Listener) error { return s.srv.Serve(ln) }

func (s *Server) Shutdown(ctx context.Context) error { return s.srv.ShutdownWithContext(ctx) }

// Handle routes a request. Routes:
//
//	GET  /health
//	GET  /chess/engine/{engine}/HumanMoves?fen=
//	POST /chess/engine/{engine}/ProcessText
//	GET  /chess/board.png?fen=&move=
//	GET  /chess/history?limit=
func (s *Server) Handle(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	path := string(ctx.Path())

	switch {
	case path == "/health":
		s.requireMethod(ctx, fasthttp.MethodGet, s.health)
	case path == "/chess/board.png":
		s.requireMethod(ctx, fasthttp.MethodGet, s.board)
	case path == "/chess/history":
		s.requireMethod(ctx, fasthttp.MethodGet, s.history)
	case strings.HasPrefix(path, enginePrefix):
		engine, action, ok := strings.Cut(strings.TrimPrefix(path, enginePrefix), "/")
		if !ok || engine == "" {
			s.writeError(ctx, fasthttp.StatusNotFound, chessdto.DomainError{Code: chessdto.CodeInvalidRequest, Message: "not found"})
			break
		}
		switch strings.ToLower(action) {
		case "humanmoves":
			s.requireMethod(ctx, fasthttp.MethodGet, func(ctx *fasthttp.RequestCtx) { s.humanMoves(ctx, engine) })
		case "processtext":
			s.requireMethod(ctx, fasthttp.MethodPost, func(ctx *fasthttp.RequestCtx) { s.processText(ctx, engine) })
		default:
			s.writeError(ctx, fasthttp.StatusNotFound, chessdto.DomainError{Code: chessdto.CodeInvalidRequest, Message: "not found"})
		}
	default:
		s.writeError(ctx, fasthttp.StatusNotFound, chessdto.DomainError{Code: chessdto.CodeInvalidRequest, Message: "not found"})
	}

	s.logger.Debug("http_request",
		zap.ByteString("method", ctx.Method()),
		zap.String("path", path),
		zap.Int("status", ctx.Response.StatusCode()),
		zap.Duration("duration", time.Since(start)),
	)
}

func (s *Server) requireMethod(ctx *fasthttp.RequestCtx, method string, h fasthttp.RequestHandler) {
	if string(ctx.Method()) != method {
		ctx.Response.Header.Set("Allow", method)
		s.writeError(ctx, fasthttp.StatusMethodNotAllowed, chessdto.DomainError{Code: chessdto.CodeInvalidRequest, Message: "method not allowed"})
		return
	}
	h(ctx)
}

func (s *Server) health(ctx *fasthttp.RequestCtx) {
	s.writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) humanMoves(ctx *fasthttp.RequestCtx, engine string) {
	fen := strings.TrimSpace(string(ctx.QueryArgs().Peek("fen")))
	if fen == "" {
		s.writeError(ctx, fasthttp.StatusBadRequest, chessdto.DomainError{Code: chessdto.CodeInvalidRequest, Message: "fen query parameter required"})
		return
	}
	dto, err := s.svc.HumanMoves(ctx, chessdto.HumanMovesRequest{Engine: engine, FEN: fen})
	if err != nil {
		s.fail(ctx, err)
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, dto)
}

func (s *Server) processText(ctx *fasthttp.RequestCtx, engine string) {
	resp, err := s.svc.ProcessText(ctx, chessdto.ProcessTextRequest{Engine: engine, Script: string(ctx.PostBody())})
	if err != nil {
		s.fail(ctx, err)
		return
	}
	if resp.Errors != "" {
		s.logger.Info("engine_stderr", zap.String("engine", engine), zap.String("stderr", resp.Errors))
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("text/plain; charset=utf-8")
	ctx.SetBodyString(resp.Output)
}

func (s *Server) board(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()
	png, err := s.svc.RenderBoard(ctx, chessdto.BoardRequest{
		FEN:  strings.TrimSpace(string(args.Peek("fen"))),
		Move: strings.TrimSpace(string(args.Peek("move"))),
	})
	if err != nil {
		s.fail(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("image/png")
	ctx.SetBody(png)
}

func (s *Server) history(ctx *fasthttp.RequestCtx) {
	limit := 0
	if raw := string(ctx.QueryArgs().Peek("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(ctx, fasthttp.StatusBadRequest, chessdto.DomainError{Code: chessdto.CodeInvalidRequest, Message: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	entries, err := s.svc.History(ctx, limit)
	if err != nil {
		s.fail(ctx, err)
		return
	}
	s.writeJSON(ctx, fasthttp.StatusOK, chessdto.HistoryResponse{Entries: entries})
}

func (s *Server) fail(ctx *fasthttp.RequestCtx, err error) {
	de := analysis.DomainErrorFor(err)
	status := StatusFor(de.Code)
	if status >= fasthttp.StatusInternalServerError {
		s.logger.Warn("request_failed",
			zap.String("path", string(ctx.Path())),
			zap.String("code", de.Code),
			zap.Error(err),
		)
	}
	s.writeError(ctx, status, de)
}

// StatusFor maps a DomainError code to an HTTP status.
func StatusFor(code string) int {
	switch code {
	case chessdto.CodeInvalidFEN, chessdto.CodeInvalidMove, chessdto.CodeNoKing,
		chessdto.CodeUnknownEngine, chessdto.CodeInvalidRequest:
		return fasthttp.StatusBadRequest
	case chessdto.CodeEngineFailure:
		return fasthttp.StatusBadGateway
	case chessdto.CodeEngineTimeout:
		return fasthttp.StatusGatewayTimeout
	default:
		return fasthttp.StatusInternalServerError
	}
}

type errorBody struct {
	Error chessdto.DomainError `json:"error"`
}

func (s *Server) writeError(ctx *fasthttp.RequestCtx, status int, de chessdto.DomainError) {
	s.writeJSON(ctx, status, errorBody{Error: de})
}

func (s *Server) writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encode_response_failed", zap.Error(err))
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}
