package protocol

import (
	"errors"

	"housegen.ai/internal/layout/plan"
	"housegen.ai/internal/persistence/projectdb"
	"housegen.ai/internal/render"
)

const (
	// Request validation.
	ErrBadRequest        = "E_BAD_REQUEST"
	ErrInvalidDimensions = "E_INVALID_DIMENSIONS"
	ErrInvalidBudget     = "E_INVALID_BUDGET"

	// Lookup / pipeline.
	ErrNotFound     = "E_NOT_FOUND"
	ErrRenderFailed = "E_RENDER_FAILED"
	ErrInternal     = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrBadRequest:        {},
	ErrInvalidDimensions: {},
	ErrInvalidBudget:     {},
	ErrNotFound:          {},
	ErrRenderFailed:      {},
	ErrInternal:          {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// CodeFor classifies errors coming out of the planner, the request parsers,
// the store and the renderers. Anything else is ErrInternal.
func CodeFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, plan.ErrInvalidDimensions):
		return ErrInvalidDimensions
	case errors.Is(err, plan.ErrInvalidBudget):
		return ErrInvalidBudget
	case errors.Is(err, ErrDecimal), errors.Is(err, ErrSchema):
		return ErrBadRequest
	case errors.Is(err, projectdb.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, render.ErrFailed):
		return ErrRenderFailed
	default:
		return ErrInternal
	}
}

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}
