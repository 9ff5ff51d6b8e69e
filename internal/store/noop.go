package store

import "quickcap/internal/model"

// NoopStore is a no-op implementation used when SQLite is not configured.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) InsertSignal(_ *model.Signal) (int64, error) { return 0, nil }
func (n *NoopStore) InsertExecution(_ *model.Execution) error    { return nil }
func (n *NoopStore) SignalsFor(_, _, _ string) ([]model.Signal, error) {
	return nil, nil
}
func (n *NoopStore) SignalGroups() ([]SignalGroup, error)   { return nil, nil }
func (n *NoopStore) UpsertOutcomes(_ []model.Outcome) error { return nil }
func (n *NoopStore) Close() error                           { return nil }
