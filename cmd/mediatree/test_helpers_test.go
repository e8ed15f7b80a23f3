package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"mediatree/internal/config"
	"mediatree/internal/daemon"
	"mediatree/internal/logging"
	"mediatree/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	daemon     *daemon.Daemon
	apiAddress string
	configPath string
}

// setupCLITestEnv writes a config file for a fresh test config. When
// withDaemon is set a daemon serves the API on a loopback port.
func setupCLITestEnv(t *testing.T, withDaemon bool, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("MEDIATREE_FOLDERS", "")
	t.Setenv("MEDIATREE_API_TOKEN", "")
	cfg := testsupport.NewConfig(t, opts...)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "mediatree.toml")
	writeTestConfig(t, configPath, cfg)

	env := &cliTestEnv{cfg: cfg, configPath: configPath}
	if !withDaemon {
		return env
	}

	d, err := daemon.New(cfg, logging.NewNop(), daemon.WithProber(testsupport.NewFakeProber()))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		cancel()
		_ = d.Close()
		t.Fatalf("daemon Start: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		_ = d.Close()
	})
	env.daemon = d
	env.apiAddress = d.APIAddress()
	return env
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := runCLI(t, args, e.apiAddress, e.configPath)
	return out, err
}

func runCLI(t *testing.T, args []string, apiAddress, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if apiAddress != "" {
		flags = append(flags, "--api", apiAddress)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
