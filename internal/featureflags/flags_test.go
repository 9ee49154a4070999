package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	m := NewManager("")
	assert.False(t, m.Enabled(ExplicitForbiddenEdit, 1))
	assert.True(t, m.Enabled(IndexCache, 0))
	assert.False(t, m.Enabled("unknown", 1))
}

func TestEnabledValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=TRUE,d=false,e=1,f=0,g=maybe")

	for _, name := range []string{"a", "c", "e"} {
		assert.True(t, m.Enabled(name, 1), name)
	}
	for _, name := range []string{"b", "d", "f", "g"} {
		assert.False(t, m.Enabled(name, 1), name)
	}
}

func TestPercentageRollout(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,broken=x%")

	assert.True(t, m.Enabled("always", 0))
	assert.False(t, m.Enabled("never", 7))
	assert.False(t, m.Enabled("broken", 7))
	assert.False(t, m.Enabled("canary", 0))

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("canary", 42))
	}

	enabled := 0
	for id := uint(1); id <= 1000; id++ {
		if m.Enabled("canary", id) {
			enabled++
		}
	}
	assert.InDelta(t, 250, enabled, 80)
}

func TestParseOverridesAndSnapshot(t *testing.T) {
	m := NewManager(" bad , explicit_forbidden_edit = ON ,index_cache=off,=on,x=")

	assert.Equal(t, []string{ExplicitForbiddenEdit, IndexCache}, m.Names())
	assert.Equal(t, map[string]bool{ExplicitForbiddenEdit: true, IndexCache: false}, m.Snapshot(3))
}

func TestNilManager(t *testing.T) {
	var m *Manager
	assert.False(t, m.Enabled(IndexCache, 1))
}
