package plan

import "errors"

var (
	ErrInvalidDimensions = errors.New("invalid dimensions")
	ErrInvalidBudget     = errors.New("invalid budget")
)
