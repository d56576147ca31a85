package showcase

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tfkr-ae/showcase/domain"
	"github.com/tfkr-ae/showcase/identity"
	"go.uber.org/zap"
)

// WithOptions applies a series of configuration functions to the showcase.
// The first failing option aborts and its error is returned.
func (s *Showcase) WithOptions(options ...func(*Showcase) error) error {
	for _, option := range options {
		if err := option(s); err != nil {
			return fmt.Errorf("applying option on showcase : %w", err)
		}
	}
	return nil
}

// WithConfigDir uses dir for config.yaml and the database file, creating the directory
// and a default config.yaml when they do not exist.
func WithConfigDir(dir string) func(*Showcase) error {
	return func(s *Showcase) error {
		if _, err := os.ReadDir(dir); err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("checking if directory exists %s: %w", dir, err)
			}
			s.Logger.Info("creating config dir", zap.String("dir", dir))
			if err := os.MkdirAll(dir, 0700); err != nil {
				return fmt.Errorf("creating config dir %s: %w", dir, err)
			}
		}

		cfg, err := LoadConfig(dir)
		if err != nil {
			return err
		}
		s.config = cfg
		return nil
	}
}

// WithRepo sets the key-value back end, closing a previously set one.
// The showcase does not close a repository it was given.
func WithRepo(repo domain.KVRepository) func(*Showcase) error {
	return func(s *Showcase) error {
		if repo == nil {
			return errors.New("repository is nil")
		}
		if s.repo != nil && s.ownsRepo {
			if err := s.repo.Close(); err != nil {
				return fmt.Errorf("closing previous repository : %w", err)
			}
		}
		s.repo = repo
		s.ownsRepo = false
		return nil
	}
}

// WithFingerprint sets the browser fingerprint the stamp is derived from.
func WithFingerprint(fingerprint identity.Fingerprint) func(*Showcase) error {
	return func(s *Showcase) error {
		s.fingerprint = fingerprint
		return nil
	}
}

// WithLogger sets the diagnostic logger. A nil logger discards everything.
func WithLogger(logger *zap.Logger) func(*Showcase) error {
	return func(s *Showcase) error {
		if logger == nil {
			logger = zap.NewNop()
		}
		s.Logger = logger
		return nil
	}
}

// WithClock replaces the clock used for timestamps and cooldowns.
func WithClock(now func() time.Time) func(*Showcase) error {
	return func(s *Showcase) error {
		if now == nil {
			return errors.New("clock is nil")
		}
		s.now = now
		return nil
	}
}

// WithLocation sets the viewer timezone used to group comments by date,
// overriding the configured timezone.
func WithLocation(loc *time.Location) func(*Showcase) error {
	return func(s *Showcase) error {
		if loc == nil {
			return errors.New("location is nil")
		}
		s.location = loc
		return nil
	}
}
