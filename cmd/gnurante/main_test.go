package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	workDir    string
	outputDir  string
	calls      *atomic.Int32
}

// setupCLITestEnv writes a config that points every directory into a temp
// dir and uses a fake MyMemory endpoint that knows a handful of words.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	calls := &atomic.Int32{}
	dictionary := map[string]string{
		"Hello":          "Ciao",
		"world":          "mondo",
		"Good morning.":  "Buongiorno.",
		"See you later.": "A dopo.",
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		translated, ok := dictionary[r.URL.Query().Get("q")]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = fmt.Fprintf(w, `{"responseData":{"translatedText":%q},"responseStatus":200}`, translated)
	}))
	t.Cleanup(server.Close)

	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		workDir:    filepath.Join(base, "work"),
		outputDir:  filepath.Join(base, "out"),
		calls:      calls,
	}
	content := fmt.Sprintf(`[paths]
work_dir = %q
output_dir = %q
log_dir = %q
cache_dir = %q

[translation]
backend = "mymemory"
source_language = "en"
target_language = "it"
retry_base_delay_ms = 1
cache_enabled = false

[mymemory]
base_url = %q

[logging]
level = "error"
`, env.workDir, env.outputDir, filepath.Join(base, "logs"), filepath.Join(base, "cache"), server.URL)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, env *cliTestEnv, exec execFunc, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommandWithExec(exec)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if env != nil {
		args = append([]string{"--config", env.configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected %q in output:\n%s", needle, haystack)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
