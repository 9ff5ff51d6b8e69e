package exchange

import (
	"context"

	"quickcap/internal/model"
)

// MockClient returns controllable fixed data for development and testing.
type MockClient struct {
	Bars    []model.Bar
	Symbols []string
	Err     error
}

func (m *MockClient) Name() string { return "mock" }

func (m *MockClient) FetchKlines(_ context.Context, _, _ string, limit int) ([]model.Bar, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Bars) > limit {
		return m.Bars[len(m.Bars)-limit:], nil
	}
	return m.Bars, nil
}

func (m *MockClient) TopSymbols(_ context.Context, topN int, _ float64) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Symbols) > topN {
		return m.Symbols[:topN], nil
	}
	return m.Symbols, nil
}
