package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"navigation-simulator/internal/camera"
)

func TestLoadPolicyDefault(t *testing.T) {
	p, err := LoadPolicy("")
	require.NoError(t, err)
	assert.Equal(t, camera.DefaultPolicy(), p)
}

func TestLoadPolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
durationMultiplier: 20
routingOptions:
  pitch: 50
  zoom: 14
  leadDistance: 100
maneuverOptions:
  "*":
    zoom: 17
  roundabout:
    pitch: 30
speedOptions:
  speed: 25
  zoom: 12
`), 0o644))

	p, err := LoadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, 20.0, p.DurationMultiplier)
	assert.Equal(t, camera.RoutingOptions{Pitch: 50, Zoom: 14, LeadDistance: 100}, p.Routing)

	wild := p.Maneuvers.Lookup("merge")
	require.NotNil(t, wild.Zoom)
	assert.Nil(t, wild.Pitch)
	assert.Equal(t, 17.0, *wild.Zoom)

	rb := p.Maneuvers.Lookup("roundabout")
	require.NotNil(t, rb.Pitch)
	assert.Equal(t, 30.0, *rb.Pitch)

	require.NotNil(t, p.Speed)
	assert.Equal(t, 25.0, p.Speed.Speed)
	require.NotNil(t, p.Speed.Zoom)
	assert.Equal(t, 12.0, *p.Speed.Zoom)
}

func TestParsePolicyKeepsDefaults(t *testing.T) {
	p, err := ParsePolicy([]byte("durationMultiplier: 10\n"))
	require.NoError(t, err)
	assert.Equal(t, 10.0, p.DurationMultiplier)
	assert.Equal(t, camera.DefaultPolicy().Routing, p.Routing)
}

func TestParsePolicyInvalid(t *testing.T) {
	for name, doc := range map[string]string{
		"zero multiplier":   "durationMultiplier: 0\n",
		"pitch too steep":   "routingOptions:\n  pitch: 100\n  zoom: 15\n",
		"bad maneuver zoom": "maneuverOptions:\n  turn:\n    zoom: 40\n",
		"not yaml":          "durationMultiplier: [",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePolicy([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadPolicyMissingFile(t *testing.T) {
	_, err := LoadPolicy(filepath.Join(t.TempDir(), "missing.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
