package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEngines(); err != nil {
		return err
	}
	if err := c.validateScan(); err != nil {
		return err
	}
	if c.Logging.Level != "debug" && c.Logging.Level != "info" && c.Logging.Level != "warn" && c.Logging.Level != "error" {
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateEngines() error {
	seen := make(map[string]struct{}, len(c.Transcode.Engines))
	for i, engine := range c.Transcode.Engines {
		if engine.ID == "" {
			return fmt.Errorf("transcode.engines[%d].id must be set", i)
		}
		if _, dup := seen[engine.ID]; dup {
			return fmt.Errorf("transcode.engines[%d].id %q is declared twice", i, engine.ID)
		}
		seen[engine.ID] = struct{}{}
		switch engine.Kind {
		case EngineKindVideo, EngineKindAudio, EngineKindAny:
		default:
			return fmt.Errorf("transcode.engines[%d].kind %q must be video, audio, or any", i, engine.Kind)
		}
	}
	return nil
}

func (c *Config) validateScan() error {
	if c.Scan.IntervalMinutes < 0 {
		return errors.New("scan.interval_minutes must be >= 0")
	}
	return nil
}
