package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/smazurov/blinkd/internal/configstore"
)

func TestPrintOption(t *testing.T) {
	dir := t.TempDir()
	content := `
config globals 'globals'
	option interval '1500'
	list pattern 'on'
	list pattern 'off'
`
	if err := os.WriteFile(filepath.Join(dir, "blink"), []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	store := configstore.NewUCIStore(dir)

	tests := []struct {
		path string
		want string
	}{
		{"blink.globals.interval", "1500\n"},
		{"blink.@globals[0].interval", "1500\n"},
		{"blink.globals.pattern", "on\noff\n"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var buf bytes.Buffer
			if err := printOption(&buf, store, tt.path); err != nil {
				t.Fatalf("printOption failed: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, buf.String())
			}
		})
	}

	var buf bytes.Buffer
	if err := printOption(&buf, store, "blink.globals.missing"); !errors.Is(err, configstore.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestConfigGetCommand(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "blink.toml"), []byte("[globals]\ninterval = \"250\"\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cmd := CreateConfigCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"get", "--store-backend", "toml", "--store-dir", dir, "blink.globals.interval"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out.String() != "250\n" {
		t.Errorf("Expected 250, got %q", out.String())
	}
}

func TestParseDelay(t *testing.T) {
	tests := []struct {
		in      string
		want    int32
		wantErr bool
	}{
		{"0", 0, false},
		{"1000", 1000, false},
		{"2147483647", 2147483647, false},
		{"-1", 0, true},
		{"2147483648", 0, true},
		{"1.5", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDelay(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDelay(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseDelay(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatMetadata(t *testing.T) {
	got := formatMetadata(map[string]string{"version": "1.0", "nats": "nats://x:4222"})
	want := "nats=nats://x:4222 version=1.0"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
