// Package config holds the pipeline configuration. A Config is built
// once by Load and threaded explicitly through ingestion, cleaning and
// splitting; there is no process-wide mutable default.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// envPrefix is the prefix for all environment overrides (FIM_*).
const envPrefix = "FIM"

// Config represents the complete pipeline configuration.
type Config struct {
	Input     InputConfig     `yaml:"input" envconfig:"INPUT"`
	Cleaning  CleaningConfig  `yaml:"cleaning" envconfig:"CLEANING"`
	TwoChoice TwoChoiceConfig `yaml:"two_choice" envconfig:"TWO_CHOICE"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
}

// InputConfig controls file discovery and parsing.
type InputConfig struct {
	// FileFormat is the extension collected when a directory is given.
	FileFormat string `yaml:"file_format" envconfig:"FILE_FORMAT" default:".csv" validate:"required"`
	// Delimiter separates cells in CSV sources.
	Delimiter string `yaml:"delimiter" envconfig:"DELIMITER" default:"," validate:"len=1"`
}

// CleaningConfig controls the ordered cleaning passes.
type CleaningConfig struct {
	// MinTrackLength is the minimum number of valid samples in the
	// reference parameter for an object to be kept.
	MinTrackLength int `yaml:"min_track_length" envconfig:"MIN_TRACK_LENGTH" default:"50" validate:"gte=0"`
	// ReferenceParam is the parameter used to measure track length.
	// Other parameters may have fewer valid points by construction.
	ReferenceParam string `yaml:"reference_param" envconfig:"REFERENCE_PARAM" default:"head_x" validate:"required"`
	// CutTableHead / CutTableTail trim frames from the start / end of
	// every table.
	CutTableHead int `yaml:"cut_table_head" envconfig:"CUT_TABLE_HEAD" default:"0" validate:"gte=0"`
	CutTableTail int `yaml:"cut_table_tail" envconfig:"CUT_TABLE_TAIL" default:"0" validate:"gte=0"`
	// Pixel2MM enables conversion of pixel units to millimeters.
	Pixel2MM   bool    `yaml:"pixel2mm" envconfig:"PIXEL2MM" default:"false"`
	PixelPerMM float64 `yaml:"pixel_per_mm" envconfig:"PIXEL_PER_MM" default:"0.016" validate:"gt=0"`
	// SpatialParams are multiplied by PixelPerMM; AreaParams scale
	// quadratically and get a square root first.
	SpatialParams []string `yaml:"spatial_params" envconfig:"SPATIAL_PARAMS" default:"acc_dst,dst_to_origin,head_x,head_y,mom_x,mom_y,tail_x,tail_y,perimeter,spine_length,radius_1,radius_2,radius_3"`
	AreaParams    []string `yaml:"area_params" envconfig:"AREA_PARAMS" default:"area"`
	// FillGaps bridges sub-threshold gaps in thresholded parameters.
	FillGaps          bool     `yaml:"fill_gaps" envconfig:"FILL_GAPS" default:"true"`
	ThresholdedParams []string `yaml:"thresholded_params" envconfig:"THRESHOLDED_PARAMS" default:"go_phase,left_bended,right_bended,is_coiled,is_well_oriented"`
	// MaxGapSize caps the forward-fill run length.
	MaxGapSize int `yaml:"max_gap_size" envconfig:"MAX_GAP_SIZE" default:"3" validate:"gte=0"`
}

// TwoChoiceConfig controls the two-choice split.
type TwoChoiceConfig struct {
	// Param is the parameter the split compares against Boundary,
	// e.g. "mom_x" for a split along the x-axis.
	Param    string  `yaml:"param" envconfig:"PARAM" default:"mom_x" validate:"required"`
	Boundary float64 `yaml:"boundary" envconfig:"BOUNDARY" default:"0"`
	// ControlSide picks which side is the control group: 0 means the
	// lower (<= Boundary) side, 1 the upper side. Values exactly on the
	// boundary always land on the lower side; which group that is stays
	// a user decision.
	ControlSide int `yaml:"control_side" envconfig:"CONTROL_SIDE" default:"0" validate:"oneof=0 1"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" default:"text" validate:"oneof=text json"`
}

// Load builds the configuration from defaults, FIM_* environment
// variables and, when configFile is non-empty, a YAML overlay.
// Precedence: defaults < environment < file.
func Load(configFile string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration with every option at its default.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		// Defaults are static; failing to process them is a programming
		// error, not a runtime condition.
		panic(fmt.Sprintf("config: invalid built-in defaults: %v", err))
	}
	return cfg
}

// Validate checks field constraints and cross-field consistency.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if c.Cleaning.Pixel2MM {
		if len(c.Cleaning.SpatialParams) == 0 && len(c.Cleaning.AreaParams) == 0 {
			return fmt.Errorf("config validation failed: pixel2mm enabled but no spatial or area parameters tagged")
		}
	}
	if c.Cleaning.FillGaps && len(c.Cleaning.ThresholdedParams) == 0 {
		return fmt.Errorf("config validation failed: fill_gaps enabled but no thresholded parameters tagged")
	}

	return nil
}

// DelimiterRune returns the CSV delimiter as a rune.
func (c *InputConfig) DelimiterRune() rune {
	for _, r := range c.Delimiter {
		return r
	}
	return ','
}
