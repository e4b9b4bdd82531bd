package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Addr    string        `split_words:"true" default:":8000"`
	APIKey  string        `envconfig:"API_KEY" required:"true"`
	Timeout time.Duration `split_words:"true" default:"5s"`
}

func TestNewReadsEnvFileWithoutOverriding(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "CFGTEST_API_KEY=from-file\nCFGTEST_ADDR=:9000\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("CFGTEST_ADDR", ":7000")
	SetEnvFile(path)
	t.Cleanup(func() { SetEnvFile("") })

	conf, err := New[testConfig]("CFGTEST")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("CFGTEST_API_KEY") })

	if conf.APIKey != "from-file" {
		t.Fatalf("APIKey = %q, want from-file", conf.APIKey)
	}
	if conf.Addr != ":7000" {
		t.Fatalf("Addr = %q, want the process value :7000", conf.Addr)
	}
	if conf.Timeout != 5*time.Second {
		t.Fatalf("Timeout = %s, want default 5s", conf.Timeout)
	}
}

func TestNewMissingRequired(t *testing.T) {
	SetEnvFile(filepath.Join(t.TempDir(), "missing.env"))
	t.Cleanup(func() { SetEnvFile("") })

	if _, err := New[testConfig]("CFGMISSING"); err == nil {
		t.Fatal("expected error for missing env file")
	}
}
