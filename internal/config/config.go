/*
PURPOSE:
  Defines the configuration structure and loading logic for the AFDB filter.
  Adheres to "Config IS Code" philosophy.

REQUIREMENTS:
  User-specified:
  - Thresholds (confidence, distance, sequence separation, globularity ratio)
    and worker pool size must be externally configurable.

  Implementation-discovered:
  - Needs to support YAML parsing.
  - Needs to support Environment variables overrides (AFDB_...).
  - Invalid thresholds are the only fatal errors at startup, so Validate()
    is separate from Load().

ARCHITECTURE INTEGRATION:
  - Used by: internal/cli, internal/engine, internal/metadata
  - Dependencies: gopkg.in/yaml.v3 (standard for Go config)

ERROR HANDLING:
  - Returns explicit error if config file is invalid.
  - Missing default config file falls back to defaults.
  - Malformed env overrides are errors, never silently ignored.

IMPLEMENTATION RULES:
  - Config struct tags should support yaml.
  - Defaults match the reference thresholds (0.7, 8.0 Å, 12, 0.5).

USAGE:
  cfg, err := config.Load("afdb_filter.yaml")
  if err := cfg.Validate(); err != nil { ... }

SELF-HEALING INSTRUCTIONS:
  - If new fields are needed, add to Config struct, DefaultConfig() and Validate().

RELATED FILES:
  - internal/cli/run.go

MAINTENANCE:
  - Update when adding new tuning parameters.
*/

package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/daryltucker/afdb-filter/internal/pairing"
)

// ErrInvalid marks a configuration that must abort the run at startup.
var ErrInvalid = errors.New("invalid configuration")

// DefaultFile is the first config file searched when --config is not set.
const DefaultFile = "afdb_filter.yaml"

// DateLayout is the layout of CutoffDate.
const DateLayout = "2006-01-02"

// Config represents the full configuration for the AFDB filter.
type Config struct {
	Root          string `yaml:"root"`
	ArchiveSuffix string `yaml:"archive_suffix"`

	ModelMarker      string `yaml:"model_marker"`
	ModelSuffix      string `yaml:"model_suffix"`
	ConfidenceMarker string `yaml:"confidence_marker"`
	ConfidenceSuffix string `yaml:"confidence_suffix"`
	// ConfidenceField is the JSON key holding per-residue scores.
	ConfidenceField string `yaml:"confidence_field"`

	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	DistanceThreshold   float64 `yaml:"distance_threshold"` // Ångström
	MinSeqDistance      int     `yaml:"min_seq_distance"`   // residues
	GlobularityRatio    float64 `yaml:"globularity_ratio"`
	RepresentativeAtom  string  `yaml:"representative_atom"`

	Workers        int           `yaml:"workers"`
	ArchiveTimeout time.Duration `yaml:"archive_timeout"` // 0 disables
	ReportDir      string        `yaml:"report_dir"`      // empty disables report files
	Progress       bool          `yaml:"progress"`

	// CountMarker is the substring counted by the diagnostic command.
	CountMarker string `yaml:"count_marker"`

	PDB PDBFilter `yaml:"pdb"`
}

// PDBFilter configures the metadata filter command.
type PDBFilter struct {
	Root                string  `yaml:"root"`
	Suffix              string  `yaml:"suffix"`
	CutoffDate          string  `yaml:"cutoff_date"`
	ResolutionThreshold float64 `yaml:"resolution_threshold"`
	RequiredMethod      string  `yaml:"required_method"`
	RequireMethod       bool    `yaml:"require_method"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	rules := pairing.DefaultRules()
	return &Config{
		Root:                "proteomes/",
		ArchiveSuffix:       ".tar",
		ModelMarker:         rules.ModelMarker,
		ModelSuffix:         rules.ModelSuffix,
		ConfidenceMarker:    rules.ConfidenceMarker,
		ConfidenceSuffix:    rules.ConfidenceSuffix,
		ConfidenceField:     "confidenceScore",
		ConfidenceThreshold: 0.7,
		DistanceThreshold:   8.0,
		MinSeqDistance:      12,
		GlobularityRatio:    0.5,
		RepresentativeAtom:  "CA",
		Workers:             runtime.NumCPU(),
		Progress:            true,
		CountMarker:         "confidence",
		PDB: PDBFilter{
			Root:                "pdb/structures",
			Suffix:              ".ent.gz",
			CutoffDate:          "2020-05-01",
			ResolutionThreshold: 9.0,
			RequiredMethod:      "x-ray diffraction",
			RequireMethod:       true,
		},
	}
}

// Load reads configuration from a file.
// If path is specified, it attempts to load that file.
// If path is empty, it searches for default files in order.
// If no file found, returns default config.
// Environment overrides are applied last in every case.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	var data []byte
	var err error

	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
	} else {
		defaults := []string{DefaultFile, "afdb_filter.yml"}
		for _, name := range defaults {
			data, err = os.ReadFile(name)
			if err == nil {
				path = name
				break
			}
		}
	}

	if data != nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	float := func(key string, dst *float64) error {
		v, ok := lookup(key)
		if !ok {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalid, key, v, err)
		}
		*dst = f
		return nil
	}
	integer := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalid, key, v, err)
		}
		*dst = n
		return nil
	}

	str("AFDB_ROOT", &c.Root)
	str("AFDB_REPORT_DIR", &c.ReportDir)
	if err := integer("AFDB_WORKERS", &c.Workers); err != nil {
		return err
	}
	if err := integer("AFDB_MIN_SEQ_DISTANCE", &c.MinSeqDistance); err != nil {
		return err
	}
	if err := float("AFDB_CONFIDENCE_THRESHOLD", &c.ConfidenceThreshold); err != nil {
		return err
	}
	if err := float("AFDB_DISTANCE_THRESHOLD", &c.DistanceThreshold); err != nil {
		return err
	}
	if err := float("AFDB_GLOBULARITY_RATIO", &c.GlobularityRatio); err != nil {
		return err
	}
	if v, ok := lookup("AFDB_ARCHIVE_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: AFDB_ARCHIVE_TIMEOUT=%q: %v", ErrInvalid, v, err)
		}
		c.ArchiveTimeout = d
	}
	return nil
}

// Validate rejects configurations the filter cannot run with.
func (c *Config) Validate() error {
	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

	switch {
	case c.Root == "":
		return fmt.Errorf("%w: root is empty", ErrInvalid)
	case c.ModelMarker == "" || c.ConfidenceMarker == "":
		return fmt.Errorf("%w: artifact markers must be non-empty", ErrInvalid)
	case c.ConfidenceField == "":
		return fmt.Errorf("%w: confidence_field is empty", ErrInvalid)
	case c.RepresentativeAtom == "":
		return fmt.Errorf("%w: representative_atom is empty", ErrInvalid)
	case !finite(c.ConfidenceThreshold):
		return fmt.Errorf("%w: confidence_threshold %v", ErrInvalid, c.ConfidenceThreshold)
	case !finite(c.DistanceThreshold) || c.DistanceThreshold <= 0:
		return fmt.Errorf("%w: distance_threshold must be > 0, got %v", ErrInvalid, c.DistanceThreshold)
	case c.MinSeqDistance < 0:
		return fmt.Errorf("%w: min_seq_distance must be >= 0, got %d", ErrInvalid, c.MinSeqDistance)
	case !finite(c.GlobularityRatio) || c.GlobularityRatio < 0:
		return fmt.Errorf("%w: globularity_ratio must be >= 0, got %v", ErrInvalid, c.GlobularityRatio)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be >= 1, got %d", ErrInvalid, c.Workers)
	case c.ArchiveTimeout < 0:
		return fmt.Errorf("%w: archive_timeout must be >= 0, got %v", ErrInvalid, c.ArchiveTimeout)
	}
	return nil
}

// ValidatePDB checks the metadata filter section.
func (c *Config) ValidatePDB() error {
	if c.PDB.Root == "" {
		return fmt.Errorf("%w: pdb.root is empty", ErrInvalid)
	}
	if _, err := time.Parse(DateLayout, c.PDB.CutoffDate); err != nil {
		return fmt.Errorf("%w: pdb.cutoff_date: %v", ErrInvalid, err)
	}
	if c.PDB.ResolutionThreshold <= 0 || math.IsNaN(c.PDB.ResolutionThreshold) {
		return fmt.Errorf("%w: pdb.resolution_threshold must be > 0", ErrInvalid)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be >= 1, got %d", ErrInvalid, c.Workers)
	}
	return nil
}
