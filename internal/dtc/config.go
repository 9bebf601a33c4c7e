// Package dtc drives the external device-tree toolchain: cpp for source
// preprocessing and dtc for compiling and decompiling blobs.
package dtc

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/BurntSushi/toml"
)

// Env vars overriding the configured tool paths.
const (
	EnvDTC = "DTKIT_DTC"
	EnvCPP = "DTKIT_CPP"
)

// Config names the external tools and any extra flags to pass them.
// Zero values fall back to whatever is on PATH.
type Config struct {
	DTC      string   `toml:"dtc"`
	CPP      string   `toml:"cpp"`
	DTCFlags []string `toml:"dtc_flags"`
	CPPFlags []string `toml:"cpp_flags"`
}

// LoadConfig builds the toolchain configuration. Precedence, lowest to
// highest: PATH lookup, the TOML file at path (skipped when path is empty),
// then the DTKIT_DTC / DTKIT_CPP environment variables.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("dtc: load config %s: %w", path, err)
		}
	}
	if v := os.Getenv(EnvDTC); v != "" {
		cfg.DTC = v
	}
	if v := os.Getenv(EnvCPP); v != "" {
		cfg.CPP = v
	}
	if cfg.DTC == "" {
		if p, err := exec.LookPath("dtc"); err == nil {
			cfg.DTC = p
		} else {
			cfg.DTC = "dtc"
		}
	}
	if cfg.CPP == "" {
		if p, err := exec.LookPath("cpp"); err == nil {
			cfg.CPP = p
		} else {
			cfg.CPP = "cpp"
		}
	}
	return cfg, nil
}
