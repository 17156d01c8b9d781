package fixture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/duskwatch/sentinel/internal/sentinel/core"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadNDJSONIgnoresBlankLines(t *testing.T) {
	path := writeFixture(t, `{"signal_type":"NewCert","subject":"acme.com"}

{"signal_type":"MentionSpike","subject":"acme"}
`)
	signals, err := LoadNDJSON(path)
	require.NoError(t, err)
	require.Len(t, signals, 2)
	require.Equal(t, core.SignalNewCert, signals[0].SignalType)
}

func TestLoadNDJSONMalformedLineIsParseError(t *testing.T) {
	path := writeFixture(t, `not json`)
	_, err := LoadNDJSON(path)
	require.Error(t, err)
	var coreErr *core.Error
	require.ErrorAs(t, err, &coreErr)
	require.Equal(t, core.ErrorKindParse, coreErr.Kind)
}
