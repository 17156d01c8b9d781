package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/duskwatch/sentinel/internal/sentinel/core"
)

// WriteEvidenceJSONL writes evidence sorted ascending by id, one compact
// JSON object per line, each line terminated by a single '\n'. It returns
// the written bytes' sha256 hex digest (the manifest's evidence_hash).
func WriteEvidenceJSONL(dir string, evidence []core.Evidence) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", core.NewError(core.ErrorKindIO, "creating output directory", err)
	}
	sorted := append([]core.Evidence(nil), evidence...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var buf bytes.Buffer
	for _, ev := range sorted {
		line, err := json.Marshal(ev)
		if err != nil {
			return "", core.NewError(core.ErrorKindIO, "marshaling evidence row", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	path := filepath.Join(dir, "evidence.jsonl")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", core.NewError(core.ErrorKindIO, "writing evidence.jsonl", err)
	}
	written, err := os.ReadFile(path)
	if err != nil {
		return "", core.NewError(core.ErrorKindIO, "reading back evidence.jsonl", err)
	}
	return core.Sha256Hex(written), nil
}

// WriteSignalsJSONL writes signals sorted ascending by id as the canonical
// output stream, returning the written bytes' sha256 hex digest (the
// manifest's output_hash).
func WriteSignalsJSONL(dir string, signals []core.Signal) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", core.NewError(core.ErrorKindIO, "creating output directory", err)
	}
	sorted := append([]core.Signal(nil), signals...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var buf bytes.Buffer
	for _, sig := range sorted {
		line, err := json.Marshal(sig)
		if err != nil {
			return "", core.NewError(core.ErrorKindIO, "marshaling signal row", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	path := filepath.Join(dir, "signals.jsonl")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", core.NewError(core.ErrorKindIO, "writing signals.jsonl", err)
	}
	written, err := os.ReadFile(path)
	if err != nil {
		return "", core.NewError(core.ErrorKindIO, "reading back signals.jsonl", err)
	}
	return core.Sha256Hex(written), nil
}

// WriteManifestJSON writes manifest as pretty JSON to manifest.json.
func WriteManifestJSON(dir string, manifest *core.Manifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return core.NewError(core.ErrorKindIO, "marshaling manifest", err)
	}
	path := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return core.NewError(core.ErrorKindIO, "writing manifest.json", err)
	}
	return nil
}

// WriteAuxiliaryFormats writes the non-canonical signal report formats
// (Markdown, SARIF) concurrently via errgroup.Group: these files are
// independent of the manifest's hashed artifacts, so fanning them out
// after the hashes are fixed does not affect run determinism.
func WriteAuxiliaryFormats(dir string, runID string, signals []core.Signal, findings []core.Finding, version string) error {
	var g errgroup.Group

	g.Go(func() error {
		return writeMarkdown(dir, runID, signals, findings)
	})
	g.Go(func() error {
		return writeSarif(dir, signals, version)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return nil
}

func writeMarkdown(dir, runID string, signals []core.Signal, findings []core.Finding) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# Run %s\n\n", runID)
	fmt.Fprintf(&buf, "## Summary\n\n%d signals, %d findings.\n\n", len(signals), len(findings))

	fmt.Fprintln(&buf, "## Findings")
	for _, f := range findings {
		fmt.Fprintf(&buf, "\n### %s (%s / %s)\n\n", f.Title, f.Severity, f.Disposition)
		if f.Disposition == core.DispositionAlert {
			fmt.Fprintln(&buf, "**Why this alert fired:**")
			for _, trace := range f.RuleTrace {
				fmt.Fprintf(&buf, "- %s\n", trace)
			}
			fmt.Fprintf(&buf, "\nCorroborating signals: %v\n", f.Signals)
		}
	}

	fmt.Fprintln(&buf, "\n## Signals")
	for _, sig := range signals {
		fmt.Fprintf(&buf, "- `%s` %s %s (confidence=%d, severity=%s)\n", sig.ID, sig.SignalType, sig.Subject, sig.Confidence, sig.Severity)
	}

	return os.WriteFile(filepath.Join(dir, "signals.md"), buf.Bytes(), 0o644)
}

type sarifDriver struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifResult struct {
	RuleID  string `json:"ruleId"`
	Level   string `json:"level"`
	Message struct {
		Text string `json:"text"`
	} `json:"message"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

func writeSarif(dir string, signals []core.Signal, version string) error {
	results := make([]sarifResult, 0, len(signals))
	for _, sig := range signals {
		r := sarifResult{RuleID: string(sig.SignalType), Level: sarifLevel(sig.Severity)}
		r.Message.Text = sig.Rationale
		results = append(results, r)
	}

	log := sarifLog{
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool:    sarifTool{Driver: sarifDriver{Name: "sentinel", Version: version}},
			Results: results,
		}},
	}

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return core.NewError(core.ErrorKindIO, "marshaling sarif report", err)
	}
	return os.WriteFile(filepath.Join(dir, "signals.sarif"), data, 0o644)
}

func sarifLevel(severity core.Severity) string {
	switch severity {
	case core.SeverityCritical, core.SeverityHigh:
		return "error"
	case core.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}

// WriteTrendCSV writes a trend report's by_signal_type bucket as CSV.
func WriteTrendCSV(dir string, trend *core.TrendReport) error {
	path := filepath.Join(dir, "trend.csv")
	f, err := os.Create(path)
	if err != nil {
		return core.NewError(core.ErrorKindIO, "creating trend.csv", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"key", "count", "prev_count", "delta", "first_seen_in_window"}); err != nil {
		return core.NewError(core.ErrorKindIO, "writing trend.csv header", err)
	}
	for _, b := range trend.BySignalType {
		row := []string{
			b.Key,
			strconv.FormatUint(b.Count, 10),
			strconv.FormatUint(b.PrevCount, 10),
			strconv.FormatInt(b.Delta, 10),
			strconv.FormatBool(b.FirstSeenInWindow),
		}
		if err := w.Write(row); err != nil {
			return core.NewError(core.ErrorKindIO, "writing trend.csv row", err)
		}
	}
	return nil
}

// WriteTrendMarkdown and WriteTrendJSONL provide human-readable and
// machine-readable trend report formats alongside the CSV export.
func WriteTrendMarkdown(dir string, trend *core.TrendReport) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# Trend report: %s to %s\n\n", trend.WindowStart.Format("2006-01-02"), trend.WindowEnd.Format("2006-01-02"))
	for _, line := range trend.Summary {
		fmt.Fprintf(&buf, "- %s\n", line)
	}
	return os.WriteFile(filepath.Join(dir, "trend.md"), buf.Bytes(), 0o644)
}

func WriteTrendJSONL(dir string, trend *core.TrendReport) error {
	var buf bytes.Buffer
	for _, b := range trend.BySignalType {
		line, err := json.Marshal(b)
		if err != nil {
			return core.NewError(core.ErrorKindIO, "marshaling trend bucket", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return os.WriteFile(filepath.Join(dir, "trend.jsonl"), buf.Bytes(), 0o644)
}
