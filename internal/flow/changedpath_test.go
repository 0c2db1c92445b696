package flow

import (
	"context"

	"hookstate/internal/backends/memory"
	"hookstate/internal/deferred"
	"hookstate/internal/hookenv"
)

func (s *UnitTestSuite) config(prev map[string]any, cur map[string]any) *hookenv.Config {
	store := memory.NewStore()
	if prev != nil {
		s.Require().NoError(store.Save(context.Background(), "k", prev))
	}
	return hookenv.NewConfig(cur, store, "k", deferred.NewRegistry())
}

func (s *UnitTestSuite) TestChangedPath() {
	prev := map[string]any{
		"key1": "value1",
		"key2": map[string]any{"subkey1": "subvalue1", "subkey2": 42},
		"key3": []any{"elem1", "elem2"},
	}
	cur := map[string]any{
		"key1": "value1",
		"key2": map[string]any{"subkey1": "subvalue1", "subkey2": 43},
		"key3": []any{"elem1", "elem2", "elem3"},
	}
	cfg := s.config(prev, cur)

	for expr, want := range map[string]bool{
		"key1":                    false,
		"key2.subkey1":            false,
		"key2.subkey2":            true,
		"key3[0]":                 false,
		"key3[2]":                 true,
		"length(key3)":            true,
		"contains(key3, 'elem2')": false,
		"nonexistent":             false,
	} {
		changed, err := ChangedPath(cfg, expr)
		s.NoError(err, expr)
		s.Equal(want, changed, expr)
	}

	_, err := ChangedPath(cfg, "key2.[")
	s.Error(err)
}

func (s *UnitTestSuite) TestChangedPathWithoutPrevious() {
	cfg := s.config(nil, map[string]any{"key1": "value1"})
	changed, err := ChangedPath(cfg, "key1")
	s.NoError(err)
	s.True(changed)
}

func (s *UnitTestSuite) TestChangedPathNumericEquality() {
	cfg := s.config(map[string]any{"n": 1.0}, map[string]any{"n": 1})
	changed, err := ChangedPath(cfg, "n")
	s.NoError(err)
	s.False(changed)
}
