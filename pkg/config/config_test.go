package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type serviceConfig struct {
	URL     string        `envconfig:"URL" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
}

func TestNewReadsPrefixedEnvironment(t *testing.T) {
	t.Setenv("CFGTEST_URL", "http://localhost:8080")

	conf, err := New[serviceConfig]("CFGTEST")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.URL != "http://localhost:8080" {
		t.Fatalf("URL = %q", conf.URL)
	}
	if conf.Timeout != 5*time.Second {
		t.Fatalf("Timeout = %v, want the tag default", conf.Timeout)
	}
}

func TestNewMissingRequiredField(t *testing.T) {
	os.Unsetenv("CFGMISS_URL")

	if _, err := New[serviceConfig]("CFGMISS"); err == nil {
		t.Fatal("missing required field should fail")
	}
}

func TestExportDotenvKeepsProcessEnvironment(t *testing.T) {
	t.Setenv("CFGFILE_KEPT", "process")
	t.Cleanup(func() { os.Unsetenv("CFGFILE_ADDED") })

	path := filepath.Join(t.TempDir(), ".env")
	contents := "CFGFILE_KEPT=file\nCFGFILE_ADDED=file\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	if err := exportDotenv(path); err != nil {
		t.Fatalf("exportDotenv() error = %v", err)
	}
	if got := os.Getenv("CFGFILE_KEPT"); got != "process" {
		t.Fatalf("CFGFILE_KEPT = %q, process environment must win", got)
	}
	if got := os.Getenv("CFGFILE_ADDED"); got != "file" {
		t.Fatalf("CFGFILE_ADDED = %q, file value should be exported", got)
	}
}

func TestExportDotenvMissingFile(t *testing.T) {
	err := exportDotenv(filepath.Join(t.TempDir(), "absent.env"))
	if err == nil {
		t.Fatal("missing file should fail")
	}
	var pathErr *os.PathError
	if !errors.As(err, &pathErr) {
		t.Fatalf("err = %v, want a path error", err)
	}
}
