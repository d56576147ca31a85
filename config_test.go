package showcase

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/tfkr-ae/showcase/ratelimit"
)

func TestLoadConfig(t *testing.T) {
	t.Run("should write the defaults on first run", func(t *testing.T) {
		dir := t.TempDir()

		cfg, err := LoadConfig(dir)
		if err != nil {
			t.Fatalf("LoadConfig() failed: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
			t.Fatalf("\nwanted:\nconfig.yaml\ngot:\n%v", err)
		}
		if cfg.Cooldown(ratelimit.ActionComment) != 3*time.Second {
			t.Fatalf("\nwanted:\n3s\ngot:\n%v", cfg.Cooldown(ratelimit.ActionComment))
		}
		if cfg.StoragePrefix != "showcase_" || cfg.LogCapacity != 1000 || !cfg.SeedExamples {
			t.Fatalf("\nwanted:\ndefaults\ngot:\n%+v", cfg)
		}
		if cfg.DatabasePath() != filepath.Join(dir, "showcase.db") {
			t.Fatalf("\nwanted:\n%s\ngot:\n%s", filepath.Join(dir, "showcase.db"), cfg.DatabasePath())
		}
	})

	t.Run("should read an existing file", func(t *testing.T) {
		dir := t.TempDir()
		content := "cooldowns:\n  comment: 10s\nmax_comment_length: 50\ntimezone: Asia/Dubai\n"
		if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0600); err != nil {
			t.Fatalf("writing config: %v", err)
		}

		cfg, err := LoadConfig(dir)
		if err != nil {
			t.Fatalf("LoadConfig() failed: %v", err)
		}
		if cfg.Cooldown(ratelimit.ActionComment) != 10*time.Second {
			t.Fatalf("\nwanted:\n10s\ngot:\n%v", cfg.Cooldown(ratelimit.ActionComment))
		}
		if cfg.Cooldown(ratelimit.ActionRating) != time.Second {
			t.Fatalf("\nwanted:\n1s\ngot:\n%v", cfg.Cooldown(ratelimit.ActionRating))
		}
		if cfg.Limits().Comment != 50 {
			t.Fatalf("\nwanted:\n50\ngot:\n%d", cfg.Limits().Comment)
		}
		loc, err := cfg.Location()
		if err != nil {
			t.Fatalf("Location() failed: %v", err)
		}
		if loc.String() != "Asia/Dubai" {
			t.Fatalf("\nwanted:\nAsia/Dubai\ngot:\n%s", loc)
		}
	})

	t.Run("should reject a malformed file", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("cooldowns: [\n"), 0600); err != nil {
			t.Fatalf("writing config: %v", err)
		}
		if _, err := LoadConfig(dir); err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DatabasePath() != "" {
		t.Fatalf("\nwanted:\nno database\ngot:\n%s", cfg.DatabasePath())
	}
	if err := cfg.Watch(func(*Config) {}, nil); err == nil {
		t.Fatalf("\nwanted:\nerror\ngot:\nnil")
	}
	loc, _ := cfg.Location()
	if loc != time.Local {
		t.Fatalf("\nwanted:\nLocal\ngot:\n%s", loc)
	}
}

func TestShowcase_WatchConfig(t *testing.T) {
	dir := t.TempDir()
	s, err := New(WithConfigDir(dir))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer s.Close()

	if err := s.WatchConfig(); err != nil {
		t.Fatalf("WatchConfig() failed: %v", err)
	}
	content := "cooldowns:\n  rating: 7s\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if s.Config().Cooldown(ratelimit.ActionRating) == 7*time.Second {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("\nwanted:\n7s\ngot:\n%v", s.Config().Cooldown(ratelimit.ActionRating))
}
