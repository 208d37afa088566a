package resultreport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveWritesFlatList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")

	written, err := New(path).Save([]float64{0.0025, 0.003, 0.0025})
	require.NoError(t, err)
	assert.Equal(t, path, written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var values []float64
	require.NoError(t, json.Unmarshal(data, &values))
	assert.Equal(t, []float64{0.0025, 0.003, 0.0025}, values)
}

func TestSaveCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "results.json")

	_, err := New(path).Save([]float64{1})
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestSaveEmptyRunIsStillValidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")

	_, err := New(path).Save([]float64{})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}
