package storage

import "errors"

// Trades and analysis runs are write-once: a key is inserted at most once.
var (
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a trade_id or run_id is already stored.
	ErrDuplicateKey = errors.New("duplicate key: record is already stored")

	// ErrInvalidInput is returned for nil records or rows rejected by a table constraint.
	ErrInvalidInput = errors.New("invalid input")
)
