package main

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/criyle/go-runcmd/pkg/cmdline"
	"github.com/criyle/go-runcmd/pkg/output"
	"github.com/criyle/go-runcmd/pkg/thresh"
)

// checkConfig is one check entry of a suite file.
type checkConfig struct {
	Name      string      `toml:"name"`
	Command   string      `toml:"command"`
	Warning   string      `toml:"warning"`
	Critical  string      `toml:"critical"`
	Timeout   duration    `toml:"timeout"`
	MaxOutput output.Size `toml:"max_output"`

	thresholds *thresh.Thresholds
}

// suiteConfig is the TOML suite file: defaults plus a check list.
type suiteConfig struct {
	Timeout   duration      `toml:"timeout"`
	MaxOutput output.Size   `toml:"max_output"`
	Checks    []checkConfig `toml:"check"`
}

// duration decodes "30s" style values from TOML.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// loadSuite reads and validates a suite file. Per-check settings fall
// back to the suite defaults; command lines are tokenized up front so
// an unsafe one fails the load instead of the run.
func loadSuite(path string) (*suiteConfig, error) {
	var cfg suiteConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, errors.Wrap(err, "load suite")
	}
	if len(cfg.Checks) == 0 {
		return nil, errors.Errorf("suite %s defines no checks", path)
	}
	if cfg.Timeout.Duration == 0 {
		cfg.Timeout.Duration = defaultTimeout
	}

	for i := range cfg.Checks {
		c := &cfg.Checks[i]
		if c.Name == "" {
			return nil, errors.Errorf("check %d has no name", i)
		}
		if c.Command == "" {
			return nil, errors.Errorf("check %q has no command", c.Name)
		}
		if args, err := cmdline.Split(c.Command); err != nil {
			return nil, errors.Wrapf(err, "check %q command", c.Name)
		} else if len(args) == 0 {
			return nil, errors.Errorf("check %q command is empty", c.Name)
		}
		th, err := thresh.Parse(c.Warning, c.Critical)
		if err != nil {
			return nil, errors.Wrapf(err, "check %q thresholds", c.Name)
		}
		c.thresholds = th
		if c.Timeout.Duration == 0 {
			c.Timeout = cfg.Timeout
		}
		if c.MaxOutput == 0 {
			c.MaxOutput = cfg.MaxOutput
		}
	}
	return &cfg, nil
}
