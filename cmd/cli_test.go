package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bnema/voicepool/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionPrintsBuildVersion(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "dev")
}

func TestRunWithoutSessionsFails(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "run")
	require.ErrorIs(t, err, domain.ErrNoSessions)
}

func TestRunSkipsSessionsWithUnresolvedTokens(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeConfigFixture(home, `
[[sessions]]
name = "Music"
token_ref = "env://VP_TEST_MISSING_TOKEN"
`))

	_, stderr, err := executeCLI(t, home, "run")
	require.ErrorIs(t, err, domain.ErrNoSessions)
	assert.Contains(t, stderr, "session skipped: token unresolved")
}

func TestInvalidConfigIsRejected(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeConfigFixture(home, `
[store]
driver = "redis"
`))

	_, _, err := executeCLI(t, home, "sessions")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver")
}

func TestSessionsListsConfiguredAndEnvSessions(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeConfigFixture(home, `
[[sessions]]
name = "Music"
token_ref = "pass://voicepool/music"
public = true
`))

	stdout, _, err := executeCLIWithEnv(t, home, map[string]string{"TOKEN": "tok-main-secret"}, "sessions")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1\tMusic\tpublic\tprefix=!!\ttoken=vault:voicepool/music", lines[0])
	assert.Equal(t, "2\tMain\tprivate\tprefix=!!\ttoken=inline", lines[1])
	assert.NotContains(t, stdout, "tok-main-secret")
}

func TestSessionsJSONOutput(t *testing.T) {
	stdout, _, err := executeCLIWithEnv(t, t.TempDir(), map[string]string{"TOKEN": "tok-main"}, "sessions", "--json")
	require.NoError(t, err)

	var listings []sessionListing
	require.NoError(t, json.Unmarshal([]byte(stdout), &listings))
	require.Len(t, listings, 1)
	assert.Equal(t, sessionListing{ID: 1, Name: "Main", TokenSource: "inline"}, listings[0])
}

func TestConfigSetThenGet(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "config", "set", "global", "guilds", "1000", "prefix", "?")
	require.NoError(t, err)
	_, _, err = executeCLI(t, home, "config", "set", "global", "guilds", "1000", "volume", "80")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "config", "get", "global", "guilds", "1000")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.Equal(t, "?", doc["prefix"])
	assert.EqualValues(t, 80, doc["volume"])

	_, err = os.Stat(filepath.Join(home, ".voicepool", "store.toml"))
	require.NoError(t, err)
}

func TestConfigUnsetRemovesField(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "config", "set", "1", "users", "501", "dj", "true")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "config", "unset", "1", "users", "501", "dj")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "dj")
}

func TestConfigRejectsUnknownKind(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "config", "get", "global", "channels", "1000")
	require.ErrorIs(t, err, domain.ErrInvalidScope)
}

func TestStatusRendersRemotePool(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/pool", r.URL.Path)
		_ = json.NewEncoder(w).Encode(domain.PoolStatus{
			State: domain.PoolStateRunning,
			Sessions: []domain.SessionStatus{
				{ID: 1, Name: "Main", Ready: true, Tenants: 2, Connected: []domain.TenantID{1000}},
			},
			CachedConfigs: 3,
		})
	}))
	t.Cleanup(server.Close)
	addr := strings.TrimPrefix(server.URL, "http://")

	stdout, _, err := executeCLI(t, t.TempDir(), "status", "--addr", addr)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Voice Pool")
	assert.Contains(t, stdout, "Main (1)")
	assert.Contains(t, stdout, "cached configs: 3")

	stdout, _, err = executeCLI(t, t.TempDir(), "status", "--addr", addr, "--json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, "\"cached_configs\": 3")
}

func TestStatusReportsUnreachablePool(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	_, _, err := executeCLI(t, t.TempDir(), "status", "--addr", strings.TrimPrefix(server.URL, "http://"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 503")
}

func TestTokenSource(t *testing.T) {
	assert.Equal(t, "inline", tokenSource("abc", ""))
	assert.Equal(t, "env://MUSIC_TOKEN", tokenSource("", "env://MUSIC_TOKEN"))
	assert.Equal(t, "vault:voicepool/music", tokenSource("", "voicepool/music"))
	assert.Equal(t, "missing", tokenSource("", ""))
}

func TestParseFieldValue(t *testing.T) {
	assert.Equal(t, true, parseFieldValue("true"))
	assert.Equal(t, int64(42), parseFieldValue("42"))
	assert.Equal(t, "1x", parseFieldValue("1x"))
	assert.Equal(t, "t", parseFieldValue("t"))
}

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	return executeCLIWithEnv(t, home, nil, args...)
}

// executeCLIWithEnv runs the CLI with a clean session environment plus env.
func executeCLIWithEnv(t *testing.T, home string, env map[string]string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)
	t.Setenv("TOKEN", "")
	clearBotTokens(t)
	for key, value := range env {
		t.Setenv(key, value)
	}

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func clearBotTokens(t *testing.T) {
	t.Helper()

	for _, entry := range os.Environ() {
		key, _, _ := strings.Cut(entry, "=")
		if strings.HasPrefix(strings.ToUpper(key), "TOKEN_BOT_") {
			t.Setenv(key, "")
		}
	}
}

func writeConfigFixture(home, body string) error {
	configDir := filepath.Join(home, ".voicepool")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(body), 0o644)
}

func TestTokenSetThenRemoveWithFileBackend(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeConfigFixture(home, `
[secrets]
backend = "file"
`))

	stdout, _, err := executeCLI(t, home, "token", "set", "Music", "--value", "tok-music")
	require.NoError(t, err)
	assert.Equal(t, "token_ref = \"pass://voicepool/sessions/music/token\"\n", stdout)

	tokenPath := filepath.Join(home, ".voicepool", "secrets", "voicepool", "sessions", "music", "token")
	data, err := os.ReadFile(tokenPath)
	require.NoError(t, err)
	assert.Equal(t, "tok-music\n", string(data))

	stdout, _, err = executeCLI(t, home, "token", "rm", "Music")
	require.NoError(t, err)
	assert.Equal(t, "Removed token for Music\n", stdout)
	_, err = os.Stat(tokenPath)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadTokenLine(t *testing.T) {
	t.Parallel()

	token, err := readTokenLine(strings.NewReader("  tok-main \nignored\n"))
	require.NoError(t, err)
	assert.Equal(t, "tok-main", token)

	_, err = readTokenLine(strings.NewReader(""))
	require.ErrorContains(t, err, "stdin is empty")

	_, err = readTokenLine(strings.NewReader("\n"))
	require.ErrorContains(t, err, "blank")
}

func TestStatusWaitPollsUntilASessionIsReady(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusServiceUnavailable)
		case 2:
			_ = json.NewEncoder(w).Encode(domain.PoolStatus{
				State:    domain.PoolStateRunning,
				Sessions: []domain.SessionStatus{{ID: 1, Name: "Main"}},
			})
		default:
			_ = json.NewEncoder(w).Encode(domain.PoolStatus{
				State:    domain.PoolStateRunning,
				Sessions: []domain.SessionStatus{{ID: 1, Name: "Main", Ready: true}},
			})
		}
	}))
	t.Cleanup(server.Close)
	addr := strings.TrimPrefix(server.URL, "http://")

	stdout, _, err := executeCLI(t, t.TempDir(), "status", "--addr", addr, "--json", "--wait", "--interval", "10ms")
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())

	var status domain.PoolStatus
	require.NoError(t, json.Unmarshal([]byte(stdout), &status))
	assert.Equal(t, 1, status.ReadyCount())
}

func TestStatusWaitTimesOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(domain.PoolStatus{Sessions: []domain.SessionStatus{{ID: 1, Name: "Main"}}})
	}))
	t.Cleanup(server.Close)

	_, _, err := executeCLI(t, t.TempDir(), "status", "--addr", strings.TrimPrefix(server.URL, "http://"),
		"--wait", "--interval", "10ms", "--wait-timeout", "100ms")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStatusPollModelLabels(t *testing.T) {
	model := newStatusPollModel(nil, time.Second, true)
	assert.Equal(t, "Waiting for the pool...", model.label())

	next, cmd := model.Update(pollResultMsg{status: domain.PoolStatus{Sessions: []domain.SessionStatus{{ID: 1}, {ID: 2}}}})
	model = next.(statusPollModel)
	assert.NotNil(t, cmd)
	assert.False(t, model.done)
	assert.Equal(t, "Waiting for a ready session (0/2 ready)", model.label())

	next, _ = model.Update(pollResultMsg{status: domain.PoolStatus{Sessions: []domain.SessionStatus{{ID: 1, Ready: true}}}})
	model = next.(statusPollModel)
	assert.True(t, model.done)
	assert.Empty(t, model.View())
}
