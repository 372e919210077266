package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func setupCLI(t *testing.T) string {
	t.Helper()
	t.Setenv("SEEDAUTH_JWT_SECRET", "cli-test-secret-0123456789abcdef")
	t.Setenv("SEEDAUTH_LOG_LEVEL", "error")
	return miniredis.RunT(t).Addr()
}

func issuePair(t *testing.T, addr, subject string) map[string]any {
	t.Helper()
	out, err := execute(t, "--redis-addr", addr, "issue", subject, "--payload", "tenant=acme")
	require.NoError(t, err, out)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	require.NotEmpty(t, body["access_token"])
	require.NotEmpty(t, body["refresh_token"])
	return body
}

func TestIssueCheckLogout(t *testing.T) {
	addr := setupCLI(t)
	body := issuePair(t, addr, "alice")
	access := body["access_token"].(string)

	out, err := execute(t, "--redis-addr", addr, "check", access)
	require.NoError(t, err, out)
	var res checkResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "authorized", res.Outcome)
	assert.Equal(t, "alice", res.Subject)

	out, err = execute(t, "--redis-addr", addr, "check", "--cookie", access)
	require.NoError(t, err, out)

	out, err = execute(t, "--redis-addr", addr, "logout", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "revoked alice")

	out, err = execute(t, "--redis-addr", addr, "check", access)
	require.ErrorIs(t, err, errDenied)
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "denied", res.Outcome)
	assert.Equal(t, "auth_token_revoked", res.Symbol)
}

func TestInspectWithoutStore(t *testing.T) {
	addr := setupCLI(t)
	body := issuePair(t, addr, "alice")

	out, err := execute(t, "inspect", body["access_token"].(string))
	require.NoError(t, err, out)

	var view tokenView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "alice", view.Subject)
	assert.Equal(t, "access", view.Type)
	assert.Equal(t, "30m", view.ExpiresIn)
	assert.Equal(t, "acme", view.Payload["tenant"])
	assert.Nil(t, view.Active)

	_, err = execute(t, "inspect", "not-a-token")
	assert.Error(t, err)
}

func TestInspectActive(t *testing.T) {
	addr := setupCLI(t)
	body := issuePair(t, addr, "alice")
	issuePair(t, addr, "alice")

	out, err := execute(t, "--redis-addr", addr, "inspect", "--active", body["refresh_token"].(string))
	require.NoError(t, err, out)

	var view tokenView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	require.NotNil(t, view.Active)
	assert.False(t, *view.Active)
}

func TestSessions(t *testing.T) {
	addr := setupCLI(t)
	issuePair(t, addr, "alice")

	out, err := execute(t, "--redis-addr", addr, "sessions", "alice")
	require.NoError(t, err, out)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	tokens, ok := rec["tokens"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, tokens, "access")
	assert.Contains(t, tokens, "refresh")
	assert.Equal(t, "2w", rec["expires_in"])
}

func TestCheckWithDirectoryFile(t *testing.T) {
	addr := setupCLI(t)
	path := filepath.Join(t.TempDir(), "identities.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
identities:
  - subject: alice
    roles:
      - name: user
        abilities: [read]
  - subject: mallory
    roles:
      - name: user
    bans:
      - role: user
        reason: spam
`), 0o600))

	alice := issuePair(t, addr, "alice")["access_token"].(string)
	mallory := issuePair(t, addr, "mallory")["access_token"].(string)

	out, err := execute(t, "--redis-addr", addr, "--directory", path, "check", "--roles", "user", "--abilities", "read", alice)
	require.NoError(t, err, out)

	out, err = execute(t, "--redis-addr", addr, "--directory", path, "check", "--abilities", "write", alice)
	require.ErrorIs(t, err, errDenied)
	assert.Contains(t, out, "auth_permission_denied")

	out, err = execute(t, "--redis-addr", addr, "--directory", path, "check", "--roles", "user", mallory)
	require.ErrorIs(t, err, errDenied)
	assert.Contains(t, out, "auth_banned_user")
}

func TestCheckWithDatabaseDirectory(t *testing.T) {
	addr := setupCLI(t)
	dsn := filepath.Join(t.TempDir(), "dir.db")
	alice := issuePair(t, addr, "alice")["access_token"].(string)

	// an empty relational directory knows nobody
	out, err := execute(t, "--redis-addr", addr, "--db-dsn", dsn, "check", "--roles", "user", alice)
	require.ErrorIs(t, err, errDenied)
	assert.Contains(t, out, "auth_user_not_exists")
}

func TestLoadTestEmbedded(t *testing.T) {
	setupCLI(t)
	t.Setenv("REDIS_ADDR", "")

	out, err := execute(t, "loadtest", "--subjects", "5", "--concurrency", "4", "--ops", "40")
	require.NoError(t, err, out)
	assert.Contains(t, out, "authenticate: ops=40 failures=0")
	assert.Contains(t, out, "refresh: ops=40 failures=0")
}

func TestInvalidArguments(t *testing.T) {
	addr := setupCLI(t)

	_, err := execute(t, "--redis-addr", addr, "issue", "alice", "--type", "id")
	assert.Error(t, err)

	_, err = execute(t, "--redis-addr", addr, "check", "--roles", "a,,b", "x")
	assert.Error(t, err)

	_, err = execute(t, "loadtest", "--ops", "0")
	assert.Error(t, err)
}
