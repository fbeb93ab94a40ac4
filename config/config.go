// Package config holds the process configuration: the pricing context,
// market conventions and logging and statistics defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/meenmo/moquant/calendar"
	"github.com/meenmo/moquant/daycount"
	"github.com/meenmo/moquant/settings"
)

// DateLayout is the layout of every date in configuration and scenario files.
const DateLayout = "2006-01-02"

// Config holds pricing and tooling parameters.
type Config struct {
	// EvaluationDate in DateLayout. Empty means today.
	EvaluationDate string `mapstructure:"evaluation_date"`

	// IncludeTodaysPayments counts cash flows paid on the evaluation date
	// as not yet occurred.
	IncludeTodaysPayments bool `mapstructure:"include_todays_payments"`

	// EnforceTodaysHistoricFixings requires a fixing dated on the
	// evaluation date to come from history.
	EnforceTodaysHistoricFixings bool `mapstructure:"enforce_todays_historic_fixings"`

	// Calendar and DayCounter are the defaults for legs that name none.
	Calendar   string `mapstructure:"calendar"`
	DayCounter string `mapstructure:"day_counter"`

	Log        LogConfig        `mapstructure:"log"`
	Statistics StatisticsConfig `mapstructure:"statistics"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StatisticsConfig struct {
	// VarConfidence is the centile of the VaR and expected shortfall
	// reports, in [0.9, 1).
	VarConfidence float64 `mapstructure:"var_confidence"`
}

// DefaultConfig provides production-ready default values.
var DefaultConfig = Config{
	Calendar:   string(calendar.TARGET),
	DayCounter: "ACT/360",
	Log: LogConfig{
		Level:  "info",
		Format: "json",
	},
	Statistics: StatisticsConfig{
		VarConfidence: 0.99,
	},
}

// cfg is the active configuration. Defaults to DefaultConfig.
var cfg = DefaultConfig

// SetConfig replaces the active configuration.
func SetConfig(c Config) {
	cfg = c
}

// GetConfig returns the active configuration.
func GetConfig() Config {
	return cfg
}

// EnvPrefix prefixes the environment overrides, e.g. MOQUANT_LOG_LEVEL.
const EnvPrefix = "MOQUANT"

// Load reads path (YAML, JSON or TOML by extension) over DefaultConfig and
// applies MOQUANT_* environment overrides. An empty path reads the
// environment only.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config.Load: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("config.Load: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("evaluation_date", c.EvaluationDate)
	v.SetDefault("include_todays_payments", c.IncludeTodaysPayments)
	v.SetDefault("enforce_todays_historic_fixings", c.EnforceTodaysHistoricFixings)
	v.SetDefault("calendar", c.Calendar)
	v.SetDefault("day_counter", c.DayCounter)
	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("log.format", c.Log.Format)
	v.SetDefault("statistics.var_confidence", c.Statistics.VarConfidence)
}

// ErrInvalidConfig marks a configuration value that cannot be used.
var ErrInvalidConfig = errors.New("config: invalid value")

// Validate checks that every field parses.
func (c Config) Validate() error {
	if _, err := c.Date(); err != nil {
		return err
	}
	if _, err := calendar.Parse(c.Calendar); err != nil {
		return fmt.Errorf("Validate: calendar: %v: %w", err, ErrInvalidConfig)
	}
	if _, err := daycount.Parse(c.DayCounter); err != nil {
		return fmt.Errorf("Validate: day_counter: %v: %w", err, ErrInvalidConfig)
	}
	if vc := c.Statistics.VarConfidence; vc < 0.9 || vc >= 1 {
		return fmt.Errorf("Validate: statistics.var_confidence %g not in [0.9, 1): %w", vc, ErrInvalidConfig)
	}
	return nil
}

// Date parses EvaluationDate. Empty gives the zero time.
func (c Config) Date() (time.Time, error) {
	if strings.TrimSpace(c.EvaluationDate) == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(DateLayout, strings.TrimSpace(c.EvaluationDate))
	if err != nil {
		return time.Time{}, fmt.Errorf("Date: evaluation_date %q: %v: %w", c.EvaluationDate, err, ErrInvalidConfig)
	}
	return d, nil
}

// Settings builds the pricing context described by c.
func (c Config) Settings() (*settings.Settings, error) {
	d, err := c.Date()
	if err != nil {
		return nil, err
	}
	s := settings.New(d)
	s.SetIncludeTodaysPayments(c.IncludeTodaysPayments)
	s.SetEnforceTodaysHistoricFixings(c.EnforceTodaysHistoricFixings)
	return s, nil
}

// CalendarID returns the parsed default calendar.
func (c Config) CalendarID() (calendar.CalendarID, error) {
	return calendar.Parse(c.Calendar)
}

// DayCount returns the parsed default day counter.
func (c Config) DayCount() (daycount.DayCounter, error) {
	return daycount.Parse(c.DayCounter)
}
