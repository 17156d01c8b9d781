package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/duskwatch/sentinel/internal/sentinel/core"
	"github.com/duskwatch/sentinel/internal/sentinel/fixture"
	"github.com/duskwatch/sentinel/internal/sentinel/pipeline"
	"github.com/duskwatch/sentinel/internal/sentinel/scope"
	"github.com/duskwatch/sentinel/internal/sentinel/store"
)

func newReplayCmd() *cobra.Command {
	var (
		scopePath string
		dbPath    string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "replay <fixture.jsonl>",
		Short: "Replay an NDJSON fixture through the pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, scopeData, err := loadScope(scopePath)
			if err != nil {
				return err
			}

			configHash, err := configHashFor(sc)
			if err != nil {
				return err
			}

			rawSignals, err := fixture.LoadNDJSON(args[0])
			if err != nil {
				return err
			}

			var st *store.Store
			if dbPath != "" {
				st, err = store.Open(dbPath)
				if err != nil {
					return err
				}
				defer st.Close()
			}

			detectorList := detectorsFromSignals(rawSignals)

			result, err := pipeline.Run(context.Background(), pipeline.Input{
				RawSignals:   rawSignals,
				Scope:        sc,
				ScopeHash:    core.Sha256Hex(scopeData),
				ConfigHash:   configHash,
				DetectorList: detectorList,
				OutputDir:    outputDir,
				Store:        st,
				Version:      Version,
			})
			if err != nil {
				return err
			}

			fmt.Printf("run_id=%s signals=%d findings=%d\n", result.RunID, len(result.Signals), len(result.Findings))
			return nil
		},
	}

	cmd.Flags().StringVar(&scopePath, "scope", "", "path to a JSON scope file")
	cmd.Flags().StringVar(&dbPath, "db", "", "path to the SQLite store (optional)")
	cmd.Flags().StringVar(&outputDir, "output", "", "directory to write report artifacts (optional)")
	cmd.MarkFlagRequired("scope")

	return cmd
}

// configHashFor derives the config_hash from the scope's resolved policy
// (post-Validate defaults), so identical effective thresholds hash equal
// even when the on-disk scope file is reformatted.
func configHashFor(sc *scope.Scope) (string, error) {
	data, err := json.Marshal(sc.Policy)
	if err != nil {
		return "", core.NewError(core.ErrorKindIO, "marshaling policy for config hash", err)
	}
	return core.Sha256Hex(data), nil
}

func detectorsFromSignals(signals []core.Signal) []string {
	seen := make(map[string]bool)
	var out []string
	for _, sig := range signals {
		if !seen[sig.Source] {
			seen[sig.Source] = true
			out = append(out, sig.Source)
		}
	}
	sort.Strings(out)
	return out
}
