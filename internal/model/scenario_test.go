package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_StoreBuffering(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/store_buffering.yaml")
	require.NoError(t, err)

	assert.Equal(t, "store_buffering", sc.Name)
	require.Len(t, sc.Threads, 2)

	p, err := sc.Compile()
	require.NoError(t, err)
	assert.Equal(t, StoreBuffering().Threads, p.Threads)

	reachable, err := p.Reachable(sc.ForbiddenOutcome())
	require.NoError(t, err)
	assert.False(t, reachable)
}

func TestLoadScenario_MessagePassingIsReachable(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/message_passing.yaml")
	require.NoError(t, err)

	p, err := sc.Compile()
	require.NoError(t, err)
	reachable, err := p.Reachable(sc.ForbiddenOutcome())
	require.NoError(t, err)
	assert.True(t, reachable, "the mp forbidden outcome is a legal SC result")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/no_such.yaml")
	assert.Error(t, err)
}

func TestScenario_Validate(t *testing.T) {
	base := func() Scenario {
		return Scenario{
			Name: "sb",
			Threads: [][]OpSpec{
				{{Store: "X"}, {Load: "Y", Into: "r1"}},
				{{Store: "Y"}, {Load: "X", Into: "r2"}},
			},
			Forbidden: map[string]int{"r1": 0, "r2": 0},
		}
	}

	t.Run("valid", func(t *testing.T) {
		sc := base()
		assert.NoError(t, sc.Validate())
	})

	t.Run("no name", func(t *testing.T) {
		sc := base()
		sc.Name = ""
		assert.Error(t, sc.Validate())
	})

	t.Run("one thread", func(t *testing.T) {
		sc := base()
		sc.Threads = sc.Threads[:1]
		assert.Error(t, sc.Validate())
	})

	t.Run("empty thread", func(t *testing.T) {
		sc := base()
		sc.Threads[1] = nil
		assert.Error(t, sc.Validate())
	})

	t.Run("store and load in one op", func(t *testing.T) {
		sc := base()
		sc.Threads[0][0] = OpSpec{Store: "X", Load: "Y", Into: "r3"}
		assert.Error(t, sc.Validate())
	})

	t.Run("load without register", func(t *testing.T) {
		sc := base()
		sc.Threads[0][1] = OpSpec{Load: "Y"}
		assert.Error(t, sc.Validate())
	})

	t.Run("duplicate register", func(t *testing.T) {
		sc := base()
		sc.Threads[1][1] = OpSpec{Load: "X", Into: "r1"}
		assert.Error(t, sc.Validate())
	})

	t.Run("forbidden names unknown register", func(t *testing.T) {
		sc := base()
		sc.Forbidden["r9"] = 0
		assert.Error(t, sc.Validate())
	})

	t.Run("forbidden misses a register", func(t *testing.T) {
		sc := base()
		delete(sc.Forbidden, "r2")
		assert.Error(t, sc.Validate())
	})
}
