package handlers

// Response is the envelope of every JSON endpoint
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

var (
	// Predefined responses
	OKResponse        = Response{Success: true}
	BadInputResponse  = Response{Error: "bad input"}
	DBErrorResponse   = Response{Error: "database error"}
	ExhaustedResponse = Response{Error: "could not generate a unique code, try again"}
)
