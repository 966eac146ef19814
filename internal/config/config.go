package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/worktally/internal/work"
)

// DefaultReminderSchedule runs the reminder at 09:00 on weekdays.
const DefaultReminderSchedule = "0 9 * * 1-5"

type Config struct {
	DatabasePath string `yaml:"DatabasePath"`

	HoursPerDay    float64 `yaml:"HoursPerDay"`
	DaysPerWeek    float64 `yaml:"DaysPerWeek"`
	FirstDayOfWeek string  `yaml:"FirstDayOfWeek"`

	// OriginTimeZone is the system clock, LocalTimeZone the user's clock.
	OriginTimeZone string `yaml:"OriginTimeZone"`
	LocalTimeZone  string `yaml:"LocalTimeZone"`

	// Override dates, epoch milliseconds or YYYY-MM-DD
	ExcludeDates []string `yaml:"ExcludeDates,omitempty"`
	IncludeDates []string `yaml:"IncludeDates,omitempty"`

	// NonWorkingPatterns must match a whole worklog label.
	NonWorkingPatterns []string `yaml:"NonWorkingPatterns,omitempty"`

	ReminderSchedule string `yaml:"ReminderSchedule"`
}

// Load reads ~/.worktally.yaml, falling back to defaults when it is missing.
func Load() (*Config, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom reads the configuration at path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return getDefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.applyDefaults()

	// Expand ~ in database path
	if strings.HasPrefix(cfg.DatabasePath, "~/") {
		home, _ := os.UserHomeDir()
		cfg.DatabasePath = filepath.Join(home, cfg.DatabasePath[2:])
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	def := getDefaultConfig()
	if c.DatabasePath == "" {
		c.DatabasePath = def.DatabasePath
	}
	if c.HoursPerDay == 0 {
		c.HoursPerDay = def.HoursPerDay
	}
	if c.DaysPerWeek == 0 {
		c.DaysPerWeek = def.DaysPerWeek
	}
	if c.FirstDayOfWeek == "" {
		c.FirstDayOfWeek = def.FirstDayOfWeek
	}
	if c.OriginTimeZone == "" {
		c.OriginTimeZone = def.OriginTimeZone
	}
	if c.LocalTimeZone == "" {
		c.LocalTimeZone = c.OriginTimeZone
	}
	if c.ReminderSchedule == "" {
		c.ReminderSchedule = def.ReminderSchedule
	}
}

// Save writes cfg to ~/.worktally.yaml.
func Save(cfg *Config) error {
	return SaveTo(DefaultPath(), cfg)
}

// SaveTo writes cfg to path.
func SaveTo(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DefaultPath is ~/.worktally.yaml.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".worktally.yaml")
}

func getDefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DatabasePath:     filepath.Join(home, ".worktally", "worklogs.db"),
		HoursPerDay:      work.DefaultHoursPerDay,
		DaysPerWeek:      work.DefaultDaysPerWeek,
		FirstDayOfWeek:   "monday",
		OriginTimeZone:   "Local",
		LocalTimeZone:    "Local",
		ReminderSchedule: DefaultReminderSchedule,
	}
}

// HoursPerDayDecimal returns HoursPerDay as a decimal.
func (c *Config) HoursPerDayDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.HoursPerDay)
}

// DaysPerWeekDecimal returns DaysPerWeek as a decimal.
func (c *Config) DaysPerWeekDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.DaysPerWeek)
}

// Weekday returns the configured first day of the week.
func (c *Config) Weekday() time.Weekday {
	if strings.EqualFold(c.FirstDayOfWeek, "sunday") {
		return time.Sunday
	}
	return time.Monday
}

// Locations loads the origin and local time zones.
func (c *Config) Locations() (origin, local *time.Location, err error) {
	origin, err = time.LoadLocation(c.OriginTimeZone)
	if err != nil {
		return nil, nil, &ValidationError{Field: "OriginTimeZone", Message: err.Error()}
	}
	local = origin
	if c.LocalTimeZone != "" {
		local, err = time.LoadLocation(c.LocalTimeZone)
		if err != nil {
			return nil, nil, &ValidationError{Field: "LocalTimeZone", Message: err.Error()}
		}
	}
	return origin, local, nil
}

// Rules builds the calendar rules. Epoch millisecond overrides are read on
// the user's clock.
func (c *Config) Rules() (*work.Rules, error) {
	_, local, err := c.Locations()
	if err != nil {
		return nil, err
	}
	return work.NewRules(work.RulesConfig{
		ExcludeDates:       c.ExcludeDates,
		IncludeDates:       c.IncludeDates,
		NonWorkingPatterns: c.NonWorkingPatterns,
		FirstDayOfWeek:     c.Weekday(),
		Zone:               local,
	})
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation error: %s - %s", e.Field, e.Message)
}

// Validate checks the configuration for common issues
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return &ValidationError{Field: "DatabasePath", Message: "Database path is required"}
	}

	if c.HoursPerDay <= 0 || c.HoursPerDay > 24 {
		return &ValidationError{Field: "HoursPerDay", Message: "Hours per day must be between 0 and 24"}
	}

	if c.DaysPerWeek <= 0 || c.DaysPerWeek > 7 {
		return &ValidationError{Field: "DaysPerWeek", Message: "Days per week must be between 0 and 7"}
	}

	switch strings.ToLower(c.FirstDayOfWeek) {
	case "monday", "sunday":
	default:
		return &ValidationError{Field: "FirstDayOfWeek", Message: "First day of week must be monday or sunday"}
	}

	if _, _, err := c.Locations(); err != nil {
		return err
	}

	if _, err := cron.ParseStandard(c.ReminderSchedule); err != nil {
		return &ValidationError{Field: "ReminderSchedule", Message: err.Error()}
	}

	return nil
}
