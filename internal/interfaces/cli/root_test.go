package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

// runCLI executes the root command against srvURL and returns stdout.
func runCLI(t *testing.T, srvURL string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	full := []string{"--user", "u-1", "--log-level", "error"}
	if srvURL != "" {
		full = append(full, "--server", srvURL)
	}
	cmd.SetArgs(append(full, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newAPI(t *testing.T, mux *http.ServeMux) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewRootCommand_Structure(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "docket", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"tasks", "assets", "accruals", "calendar", "version"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestNewRootCommand_GlobalFlags(t *testing.T) {
	cmd := NewRootCommand()
	pf := cmd.PersistentFlags()

	tests := []struct {
		name      string
		shorthand string
		def       string
	}{
		{"config", "c", ""},
		{"output", "o", "text"},
		{"verbose", "v", "false"},
		{"log-level", "", "warn"},
		{"timeout", "", "30s"},
		{"server", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := pf.Lookup(tt.name)
			require.NotNil(t, f)
			assert.Equal(t, tt.shorthand, f.Shorthand)
			assert.Equal(t, tt.def, f.DefValue)
		})
	}
	assert.NotNil(t, pf.Lookup("user"))
}

func TestVersionCmd_Output(t *testing.T) {
	out, err := runCLI(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "docket "+Version)
	assert.Contains(t, out, "commit:")
}

func TestPersistentPreRun_RejectsUnknownOutput(t *testing.T) {
	_, err := runCLI(t, "", "-o", "yaml", "version")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestRemote_NoClient(t *testing.T) {
	_, err := runCLI(t, "ftp://example.com", "tasks", "get", "t-1")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeServiceUnavailable))
}

func TestGetCLIContext_Missing(t *testing.T) {
	cmd := NewRootCommand()
	_, err := GetCLIContext(cmd)
	assert.Error(t, err)
}

func TestFormatTable(t *testing.T) {
	out := FormatTable(
		[]string{"ID", "TITLE"},
		[][]string{{"t-1", "Marka itirazı"}, {"task-22", "x"}},
	)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "ID       TITLE", lines[0])
	assert.Equal(t, "-------  -------------", lines[1])
	assert.Equal(t, "t-1      Marka itirazı", lines[2])
	assert.Equal(t, "task-22  x", lines[3])
}

func TestFormatTable_Empty(t *testing.T) {
	assert.Equal(t, "", FormatTable(nil, nil))

	out := FormatTable([]string{"A"}, nil)
	assert.Equal(t, "A\n-\n", out)
}

func TestFormatTable_ShortRow(t *testing.T) {
	out := FormatTable([]string{"A", "B", "C"}, [][]string{{"1"}})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Equal(t, "1  ", lines[2][:3])
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab  ", padRight("ab", 4))
	assert.Equal(t, "abcd", padRight("abcd", 2))
	assert.Equal(t, "ış ", padRight("ış", 3))
}

//Personal.AI order the ending
