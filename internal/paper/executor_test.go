package paper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickcap/internal/model"
)

func TestSubmitCapsExposure(t *testing.T) {
	e := NewExecutor(200)

	exec := e.Submit("BTCUSDT", model.SideLong, 65000, 5.5, "Momentum Pop")
	require.NotNil(t, exec)
	assert.Equal(t, "PAPER", exec.Venue)
	assert.True(t, exec.IsPaper)
	assert.Equal(t, model.SideLong, exec.Side)
	assert.Equal(t, 65000.0, exec.Price)
	assert.Equal(t, 200.0, e.Exposure("BTCUSDT"))

	assert.Nil(t, e.Submit("BTCUSDT", model.SideLong, 65000, 5.5, "Momentum Pop"), "symbol at cap")
	assert.NotNil(t, e.Submit("ETHUSDT", model.SideShort, 3200, 6.0, "Perp Premium Blowoff"), "caps are per symbol")
}

func TestReleaseFreesHeadroom(t *testing.T) {
	e := NewExecutor(200)
	require.NotNil(t, e.Submit("BTCUSDT", model.SideLong, 65000, 5.5, "x"))
	require.Nil(t, e.Submit("BTCUSDT", model.SideLong, 65000, 5.5, "x"))

	e.Release("BTCUSDT")
	assert.Zero(t, e.Exposure("BTCUSDT"))
	assert.NotNil(t, e.Submit("BTCUSDT", model.SideLong, 65000, 5.5, "x"))
}

func TestNewExecutorDefaultCap(t *testing.T) {
	e := NewExecutor(0)
	require.NotNil(t, e.Submit("BTCUSDT", model.SideLong, 1, 1, "x"))
	assert.Equal(t, 200.0, e.Exposure("BTCUSDT"))
}
