// Package config reads and writes the ccorr settings file, an INI file
// that holds the defaults used when the command line does not say
// otherwise.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-ini/ini"

	"CorruptionCorrector/internal/checksum"
	"CorruptionCorrector/internal/comparison"
	"CorruptionCorrector/internal/digest"
	"CorruptionCorrector/internal/recipe"
)

// FileName is the settings file name in the user's home directory.
const FileName = ".ccorr.cfg"

// Settings are the typed values of the settings file.
type Settings struct {
	Algorithm string
	ChunkSize int64

	ReadBuffer     int
	TransferBuffer int
	WriteBuffer    int

	Mirroring  bool
	MaxRecipes int

	LogLevel  string
	LogFormat string

	Compression string
	Workers     int
}

// Defaults returns the settings used when the file or a key is
// missing.
func Defaults() Settings {
	return Settings{
		Algorithm:      digest.Default,
		ChunkSize:      checksum.DefaultChunkSize,
		ReadBuffer:     checksum.DefaultReadBuffer,
		TransferBuffer: recipe.DefaultBufferSize,
		WriteBuffer:    recipe.DefaultWriteBuffer,
		Mirroring:      true,
		MaxRecipes:     comparison.DefaultMaxRecipes,
		LogLevel:       "info",
		LogFormat:      "auto",
		Compression:    "zstd",
		Workers:        4,
	}
}

// Config is a settings file on disk.
type Config struct {
	path string
	ini  *ini.File
}

// DefaultPath returns ~/.ccorr.cfg, or the file name alone when the
// home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return FileName
	}
	return filepath.Join(home, FileName)
}

// Load reads the settings file at path. A missing file is created with
// the default settings.
func Load(path string) (*Config, error) {
	cfg := &Config{path: path}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg.ini = ini.Empty()
		if err := cfg.setDefaults(); err != nil {
			return nil, fmt.Errorf("failed to set default config: %w", err)
		}
		if err := cfg.Save(); err != nil {
			return nil, fmt.Errorf("failed to save default config: %w", err)
		}
		return cfg, nil
	}

	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	cfg.ini = f
	return cfg, nil
}

func (c *Config) Path() string { return c.path }

func (c *Config) setDefaults() error {
	d := Defaults()
	keys := []struct{ section, key, value string }{
		{"digest", "algorithm", d.Algorithm},
		{"digest", "chunk_size", FormatHumanSize(d.ChunkSize)},
		{"io", "read_buffer", FormatHumanSize(int64(d.ReadBuffer))},
		{"io", "transfer_buffer", FormatHumanSize(int64(d.TransferBuffer))},
		{"io", "write_buffer", FormatHumanSize(int64(d.WriteBuffer))},
		{"comparison", "mirroring", strconv.FormatBool(d.Mirroring)},
		{"comparison", "max_recipes", strconv.Itoa(d.MaxRecipes)},
		{"log", "level", d.LogLevel},
		{"log", "format", d.LogFormat},
		{"store", "compression", d.Compression},
		{"verify", "workers", strconv.Itoa(d.Workers)},
	}
	for _, k := range keys {
		if _, err := c.ini.Section(k.section).NewKey(k.key, k.value); err != nil {
			return fmt.Errorf("failed to set default %s.%s: %w", k.section, k.key, err)
		}
	}
	return nil
}

// Settings returns the values in the file. Missing or malformed keys
// keep their defaults.
func (c *Config) Settings() Settings {
	s := Defaults()

	if c.ini.HasSection("digest") {
		section := c.ini.Section("digest")
		if section.HasKey("algorithm") {
			if name, ok := digest.Canonical(section.Key("algorithm").String()); ok {
				s.Algorithm = name
			}
		}
		if section.HasKey("chunk_size") {
			if n, err := ParseHumanSize(section.Key("chunk_size").String()); err == nil {
				s.ChunkSize = checksum.ClampChunkSize(n)
			}
		}
	}

	if c.ini.HasSection("io") {
		section := c.ini.Section("io")
		sizes := []struct {
			key string
			dst *int
		}{
			{"read_buffer", &s.ReadBuffer},
			{"transfer_buffer", &s.TransferBuffer},
			{"write_buffer", &s.WriteBuffer},
		}
		for _, sz := range sizes {
			if !section.HasKey(sz.key) {
				continue
			}
			if n, err := ParseHumanSize(section.Key(sz.key).String()); err == nil && n <= 1<<30 {
				*sz.dst = int(n)
			}
		}
	}

	if c.ini.HasSection("comparison") {
		section := c.ini.Section("comparison")
		if section.HasKey("mirroring") {
			if b, err := section.Key("mirroring").Bool(); err == nil {
				s.Mirroring = b
			}
		}
		if section.HasKey("max_recipes") {
			if n, err := section.Key("max_recipes").Int(); err == nil && n > 0 {
				s.MaxRecipes = n
			}
		}
	}

	if c.ini.HasSection("log") {
		section := c.ini.Section("log")
		if section.HasKey("level") {
			s.LogLevel = section.Key("level").String()
		}
		if section.HasKey("format") {
			s.LogFormat = section.Key("format").String()
		}
	}

	if c.ini.HasSection("store") {
		section := c.ini.Section("store")
		if section.HasKey("compression") {
			s.Compression = section.Key("compression").String()
		}
	}

	if c.ini.HasSection("verify") {
		section := c.ini.Section("verify")
		if section.HasKey("workers") {
			if n, err := section.Key("workers").Int(); err == nil && n > 0 {
				s.Workers = n
			}
		}
	}

	return s
}

// Set changes one key, named "section.key", in memory.
func (c *Config) Set(name, value string) error {
	section, key, ok := strings.Cut(name, ".")
	if !ok || section == "" || key == "" {
		return fmt.Errorf("invalid setting name %q, expected section.key", name)
	}
	c.ini.Section(section).Key(key).SetValue(value)
	return nil
}

// Save writes the settings file.
func (c *Config) Save() error {
	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return c.ini.SaveTo(c.path)
}
