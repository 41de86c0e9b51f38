package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeFillsDefaults(t *testing.T) {
	c := &Config{}
	c.Normalize()

	d := DefaultConfig()
	if *c != *d {
		t.Errorf("got %+v, want %+v", c, d)
	}
}

func TestValidateRejectsUnknownStorage(t *testing.T) {
	c := &Config{Storage: "etcd"}
	if err := c.Validate(); err == nil {
		t.Error("expected error for unknown storage backend")
	}
	for _, s := range []string{"", "sqlite", "mongo", "memory"} {
		c := &Config{Storage: s}
		if err := c.Validate(); err != nil {
			t.Errorf("Validate(%q): %v", s, err)
		}
	}
}

func TestLoadRejectsUnknownStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("storage: etcd\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown storage backend")
	}
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	c := &Config{Listen: ":9000", Storage: "memory", TickSeconds: 5}
	c.Normalize()
	if c.Listen != ":9000" || c.Storage != "memory" || c.TickSeconds != 5 {
		t.Errorf("Normalize changed explicit values: %+v", c)
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *c != *DefaultConfig() {
		t.Errorf("got %+v, want defaults", c)
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "listen: \":9001\"\nstorage: mongo\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Listen != ":9001" || c.Storage != "mongo" {
		t.Errorf("explicit values lost: %+v", c)
	}
	if c.TickSeconds != 30 || c.SQLitePath != "diary.db" {
		t.Errorf("defaults not filled: %+v", c)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}
