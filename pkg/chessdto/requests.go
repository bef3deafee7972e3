package chessdto

type HumanMovesRequest struct {
	Engine string
	FEN    string
}

type ProcessTextRequest struct {
	Engine string
	Script string
}

type ProcessTextResponse struct {
	Output string
	Errors string
}

type BoardRequest struct {
	FEN  string
	Move string
}
