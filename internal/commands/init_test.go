package commands_test

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fubangkh/cashbook/internal/accounts"
	"github.com/fubangkh/cashbook/internal/model"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "cashbook-test-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	binaryPath = filepath.Join(tmpDir, "cashbook")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/cashbook")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

// runCashbook runs the binary and returns stdout. Stderr carries the logs
// and is folded into the error message on failure.
func runCashbook(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Env = cleanEnv()
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		t.Logf("cashbook %s: %s", strings.Join(args, " "), stderr.String())
	}
	return stdout.String(), err
}

// cleanEnv drops CASHBOOK_ overrides from the developer's shell.
func cleanEnv() []string {
	var env []string
	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, "CASHBOOK_") {
			env = append(env, kv)
		}
	}
	return env
}

func initRepo(t *testing.T, extra ...string) string {
	t.Helper()
	dir := t.TempDir()
	args := append([]string{"init", dir, "--name", "Test Biz"}, extra...)
	_, err := runCashbook(t, args...)
	require.NoError(t, err)
	return dir
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := initRepo(t)

	expectedDirs := []string{
		"ledger",
		"accounts",
		"exports",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range expectedDirs {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}
}

func TestInit_Config(t *testing.T) {
	dir := initRepo(t)

	data, err := os.ReadFile(filepath.Join(dir, "cashbook.yaml"))
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "name: Test Biz")
	assert.Contains(t, contents, "driver: csv")
	assert.Contains(t, contents, "path: ledger/ledger.csv")
}

func TestInit_Accounts(t *testing.T) {
	dir := initRepo(t)

	f, err := os.Open(filepath.Join(dir, accounts.RelPath))
	require.NoError(t, err)
	defer f.Close()

	accts, err := accounts.ReadAccounts(f)
	require.NoError(t, err)
	assert.Len(t, accts, len(accounts.DefaultAccounts()))
}

func TestInit_EmptyLedger(t *testing.T) {
	dir := initRepo(t)

	data, err := os.ReadFile(filepath.Join(dir, "ledger", "ledger.csv"))
	require.NoError(t, err)
	assert.Equal(t, strings.Join(model.Columns, ",")+"\n", string(data))
}

func TestInit_GitRepo(t *testing.T) {
	dir := initRepo(t)

	_, err := os.Stat(filepath.Join(dir, ".git"))
	require.NoError(t, err, ".git should exist")

	log := exec.Command("git", "log", "--format=%s", "-1")
	log.Dir = dir
	out, err := log.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "init: Initialize Test Biz")

	authorLog := exec.Command("git", "log", "--format=%an <%ae>", "-1")
	authorLog.Dir = dir
	out, err = authorLog.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "Cashbook <cashbook@localhost>")
}

func TestInit_Gitignore(t *testing.T) {
	dir := initRepo(t)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	for _, pattern := range []string{"exports/", ".env"} {
		assert.Contains(t, string(data), pattern, ".gitignore should contain %s", pattern)
	}
}

func TestInit_RequiresName(t *testing.T) {
	dir := t.TempDir()
	_, err := runCashbook(t, "init", dir)
	require.Error(t, err, "init without --name should fail")
}

func TestInit_SQLiteDriver(t *testing.T) {
	dir := initRepo(t, "--driver", "sqlite")

	data, err := os.ReadFile(filepath.Join(dir, "cashbook.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "driver: sqlite")

	_, err = os.Stat(filepath.Join(dir, "ledger", "ledger.db"))
	require.NoError(t, err)
}

func TestInit_UnknownDriver(t *testing.T) {
	dir := t.TempDir()
	_, err := runCashbook(t, "init", dir, "--name", "Test Biz", "--driver", "paper")
	require.Error(t, err)
}
