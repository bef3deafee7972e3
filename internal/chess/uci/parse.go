package uci

import (
	"fmt"
	"strconv"
	"strings"
)

// Candidate is one "info ... pv ..." line reported by the engine.
type Candidate struct {
	Depth     int
	MultiPV   int
	Move      string
	Principal []string
	ScoreCP   int
	Mate      bool
	MateIn    int
}

// ParseStats counts how ParseStream classified the lines it saw.
type ParseStats struct {
	Lines     int
	Parsed    int
	Skipped   int
	Malformed int
}

// ParseLine extracts a Candidate from a single line of engine output. Lines
// that are not "info" lines carrying pv, score and depth are skipped
// (ok=false, nil error). An info line with those markers but unusable values
// returns an error.
func ParseLine(line string) (Candidate, bool, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 || tokens[0] != "info" {
		return Candidate{}, false, nil
	}

	pvIdx := indexOf(tokens, "pv")
	scoreIdx := indexOf(tokens, "score")
	depthIdx := indexOf(tokens, "depth")
	if pvIdx == -1 || scoreIdx == -1 || depthIdx == -1 {
		return Candidate{}, false, nil
	}

	var c Candidate
	if pvIdx+1 >= len(tokens) {
		return Candidate{}, false, &EngineFailure{Reason: "pv without a move", Line: line}
	}
	c.Move = tokens[pvIdx+1]
	c.Principal = append([]string{}, tokens[pvIdx+2:]...)

	if scoreIdx+2 >= len(tokens) {
		return Candidate{}, false, &EngineFailure{Reason: "truncated score", Line: line}
	}
	value, err := strconv.Atoi(tokens[scoreIdx+2])
	if err != nil {
		return Candidate{}, false, &EngineFailure{Reason: fmt.Sprintf("score value %q", tokens[scoreIdx+2]), Line: line}
	}
	switch kind := tokens[scoreIdx+1]; kind {
	case "cp":
		c.ScoreCP = value
	case "mate":
		c.Mate = true
		c.MateIn = value
	default:
		return Candidate{}, false, &EngineFailure{Reason: fmt.Sprintf("unsupported score type %q", kind), Line: line}
	}

	if depthIdx+1 >= len(tokens) {
		return Candidate{}, false, &EngineFailure{Reason: "depth without a value", Line: line}
	}
	if c.Depth, err = strconv.Atoi(tokens[depthIdx+1]); err != nil {
		return Candidate{}, false, &EngineFailure{Reason: fmt.Sprintf("depth value %q", tokens[depthIdx+1]), Line: line}
	}

	c.MultiPV = 1
	if i := indexOf(tokens, "multipv"); i != -1 && i+1 < len(tokens) {
		if v, err := strconv.Atoi(tokens[i+1]); err == nil {
			c.MultiPV = v
		}
	}
	return c, true, nil
}

// ParseStream parses every line of text and returns the candidates in the
// order they appeared. Skipped and malformed lines are dropped and only
// counted.
func ParseStream(text string) ([]Candidate, ParseStats) {
	var (
		out   []Candidate
		stats ParseStats
	)
	for _, line := range strings.Split(text, "\n") {
		stats.Lines++
		c, ok, err := ParseLine(line)
		switch {
		case err != nil:
			stats.Malformed++
		case !ok:
			stats.Skipped++
		default:
			stats.Parsed++
			out = append(out, c)
		}
	}
	return out, stats
}

func indexOf(tokens []string, marker string) int {
	for i, t := range tokens {
		if t == marker {
			return i
		}
	}
	return -1
}
