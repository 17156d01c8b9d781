// Package fixture loads replay input: newline-delimited JSON signal
// batches used in place of live detector output.
package fixture

import (
	"bufio"
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/duskwatch/sentinel/internal/sentinel/core"
)

// LoadNDJSON reads one Signal per line from path, ignoring blank lines.
// A malformed line is surfaced as a Parse error naming the 1-based line
// number.
func LoadNDJSON(path string) ([]core.Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.NewError(core.ErrorKindIO, "opening fixture file", err)
	}
	defer f.Close()

	var signals []core.Signal
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var sig core.Signal
		if err := json.Unmarshal([]byte(line), &sig); err != nil {
			return nil, core.NewError(core.ErrorKindParse, "malformed fixture JSON on line "+strconv.Itoa(lineNo), err)
		}
		signals = append(signals, sig)
	}
	if err := scanner.Err(); err != nil {
		return nil, core.NewError(core.ErrorKindIO, "reading fixture file", err)
	}
	return signals, nil
}
