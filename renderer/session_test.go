package renderer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionScene = `
camera:
  eye: [0, 0, 5]
objects:
  - type: sphere
`

func TestSessionLoad(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(good, []byte(sessionScene), 0644))
	require.NoError(t, os.WriteFile(bad, []byte("objects:\n  - type: teapot\n"), 0644))

	s := NewSession()
	assert.Nil(t, s.Scene())
	assert.Equal(t, "", s.Path())

	require.NoError(t, s.Load(good))
	sc := s.Scene()
	require.NotNil(t, sc)
	assert.Len(t, sc.Objects(), 1)
	assert.Equal(t, good, s.Path())

	// A failed load keeps the previous scene installed
	require.Error(t, s.Load(bad))
	assert.Same(t, sc, s.Scene())
	assert.Equal(t, good, s.Path())

	require.Error(t, s.Load(filepath.Join(dir, "missing.yaml")))
	assert.Same(t, sc, s.Scene())
}
