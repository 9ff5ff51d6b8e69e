package store

import "quickcap/internal/model"

// SignalGroup identifies one stored stream of signals.
type SignalGroup struct {
	Venue    string
	Symbol   string
	Interval string
}

// Store persists signals, paper executions, and outcome metrics.
//
// Implementations must tolerate repeated calls: InsertSignal/InsertExecution
// are append-only, UpsertOutcomes is idempotent on (signal_id, horizon_m).
type Store interface {
	InsertSignal(sig *model.Signal) (int64, error)
	InsertExecution(exec *model.Execution) error
	SignalsFor(venue, symbol, interval string) ([]model.Signal, error)
	SignalGroups() ([]SignalGroup, error)
	UpsertOutcomes(rows []model.Outcome) error
	Close() error
}
