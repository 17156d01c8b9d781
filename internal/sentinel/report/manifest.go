// Package report builds the run manifest and writes the on-disk report
// artifacts: evidence and signal streams, the manifest, and auxiliary
// human-readable formats.
package report

import (
	"github.com/duskwatch/sentinel/internal/sentinel/core"
)

// ManifestVersion is the fixed schema version stamped into every manifest.
const ManifestVersion = "1"

// BuildManifest assembles a manifest with every field except EvidenceHash
// and OutputHash, which can only be computed after the corresponding files
// have been written to disk.
func BuildManifest(scopeHash, configHash string, detectorList []string, window core.RunWindow) *core.Manifest {
	sorted := core.SortedIndicators(detectorList)
	return &core.Manifest{
		Version:        ManifestVersion,
		GitHash:        core.GitHash(),
		ScopeHash:      scopeHash,
		ConfigHash:     configHash,
		DetectorList:   sorted,
		RunWindowStart: window.Start,
		RunWindowEnd:   window.End,
	}
}

// FinalizeRunID fills EvidenceHash and OutputHash on manifest and returns
// the computed run_id.
func FinalizeRunID(manifest *core.Manifest, evidenceHash, outputHash string) (string, error) {
	manifest.EvidenceHash = evidenceHash
	manifest.OutputHash = outputHash
	return core.StableRunID(manifest)
}
