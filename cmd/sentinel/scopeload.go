package main

import (
	"encoding/json"
	"os"

	"github.com/duskwatch/sentinel/internal/sentinel/core"
	"github.com/duskwatch/sentinel/internal/sentinel/scope"
)

// loadScope is a minimal JSON scope loader for the CLI demo. Scope-file
// parsing in general (TOML/YAML, multi-client layering) is an external
// collaborator's job per the pipeline's scope; this loader exists only so
// `sentinel replay` has something to point at on disk.
func loadScope(path string) (*scope.Scope, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, core.NewError(core.ErrorKindIO, "reading scope file", err)
	}
	var sc scope.Scope
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, nil, core.NewError(core.ErrorKindParse, "parsing scope file", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, nil, err
	}
	return &sc, data, nil
}
