package domain

import "errors"

var (
	// ErrDegenerateGate is returned for gates that cannot span a square:
	// coincident endpoints, or endpoints sharing a latitude or a longitude.
	ErrDegenerateGate = errors.New("degenerate gate line")

	// ErrSchema is returned when a report row is missing a column or holds
	// a value that cannot be parsed.
	ErrSchema = errors.New("report schema violation")

	ErrBatchNotFound = errors.New("batch not found")
)
