package uci

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEngineFailure   = errors.New("engine failure")
	ErrProtocolTimeout = errors.New("engine did not exit in time")
	ErrUnknownEngine   = errors.New("unknown engine")
)

// EngineFailure reports engine stderr output, an engine that stopped before
// "bestmove", or an info line the parser could not make sense of.
type EngineFailure struct {
	Reason string
	Line   string
	Stderr string
}

func (e *EngineFailure) Error() string {
	switch {
	case e.Stderr != "":
		return fmt.Sprintf("engine failure: %s: %s", e.Reason, strings.TrimSpace(e.Stderr))
	case e.Line != "":
		return fmt.Sprintf("engine failure: %s in %q", e.Reason, e.Line)
	default:
		return "engine failure: " + e.Reason
	}
}

func (e *EngineFailure) Is(target error) bool {
	return target == ErrEngineFailure
}

type UnknownEngineError struct {
	Name  string
	Valid []string
}

func (e *UnknownEngineError) Error() string {
	return fmt.Sprintf("%s is not a recognized engine name. Try one of %s", e.Name, strings.Join(e.Valid, ","))
}

func (e *UnknownEngineError) Is(target error) bool {
	return target == ErrUnknownEngine
}
