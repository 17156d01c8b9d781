package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/duskwatch/sentinel/internal/sentinel/core"
	"github.com/stretchr/testify/require"
)

func TestWriteEvidenceJSONLSortedAndHashed(t *testing.T) {
	dir := t.TempDir()
	evidence := []core.Evidence{
		{ID: "ev_b", Source: "x"},
		{ID: "ev_a", Source: "y"},
	}
	hash, err := WriteEvidenceJSONL(dir, evidence)
	require.NoError(t, err)
	require.Len(t, hash, 64)

	data, err := os.ReadFile(filepath.Join(dir, "evidence.jsonl"))
	require.NoError(t, err)
	require.Contains(t, string(data), `"id":"ev_a"`)
	require.Less(t, strings.Index(string(data), `"id":"ev_a"`), strings.Index(string(data), `"id":"ev_b"`))
}

func TestFinalizeRunIDDeterministic(t *testing.T) {
	manifest := BuildManifest("scopehash", "confighash", []string{"b", "a"}, core.RunWindow{})
	require.Equal(t, []string{"a", "b"}, manifest.DetectorList)

	runID1, err := FinalizeRunID(manifest, "evhash", "outhash")
	require.NoError(t, err)
	runID2, err := FinalizeRunID(manifest, "evhash", "outhash")
	require.NoError(t, err)
	require.Equal(t, runID1, runID2)
	require.Regexp(t, "^run_[0-9a-f]{64}$", runID1)
}
