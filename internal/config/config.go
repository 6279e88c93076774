// Package config handles configuration loading from files, defaults, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/javiermolinar/coachcal/internal/conflict"
	"github.com/javiermolinar/coachcal/internal/projector"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "COACHCAL_"

// Config holds the application configuration.
type Config struct {
	Schedule  ScheduleConfig  `toml:"schedule"`
	Conflicts ConflictsConfig `toml:"conflicts"`
	Sessions  SessionsConfig  `toml:"sessions"`
	Views     ViewsConfig     `toml:"views"`
	Storage   StorageConfig   `toml:"storage"`
	UI        UIConfig        `toml:"ui"`
	Log       LogConfig       `toml:"log"`
}

// ScheduleConfig holds the studio opening hours.
type ScheduleConfig struct {
	Workdays         []string `toml:"workdays"`  // e.g., ["monday", "tuesday", ...]
	DayStart         string   `toml:"day_start"` // e.g., "05:00"
	DayEnd           string   `toml:"day_end"`   // e.g., "22:00"
	EnforceWorkHours bool     `toml:"enforce_work_hours"`
}

// ConflictsConfig tunes the conflict checker.
type ConflictsConfig struct {
	StepMinutes             int  `toml:"step_minutes"`
	MaxAlternatives         int  `toml:"max_alternatives"`
	SearchDays              int  `toml:"search_days"`
	DoubleBookingMinOverlap int  `toml:"double_booking_min_overlap"`
	CheckClientConflicts    bool `toml:"check_client_conflicts"`
}

// SessionsConfig holds defaults for new sessions.
type SessionsConfig struct {
	DefaultDuration     int    `toml:"default_duration"`
	DefaultBufferBefore int    `toml:"default_buffer_before"`
	DefaultBufferAfter  int    `toml:"default_buffer_after"`
	DefaultLocation     string `toml:"default_location"`
}

// ViewsConfig holds calendar layout settings.
type ViewsConfig struct {
	FirstHour       int     `toml:"first_hour"`
	LastHour        int     `toml:"last_hour"`
	PixelsPerHour   float64 `toml:"pixels_per_hour"`
	MonthMaxOrbs    int     `toml:"month_max_orbs"`
	AgendaPageSize  int     `toml:"agenda_page_size"`
	VisibleTrainers int     `toml:"visible_trainers"`
	WeekStart       string  `toml:"week_start"`
	DefaultView     string  `toml:"default_view"`
}

// StorageConfig holds database settings.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// UIConfig holds TUI settings.
type UIConfig struct {
	Theme string `toml:"theme"` // "mocha", "macchiato", "frappe", "latte"
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
	File  string `toml:"file"`  // empty disables file logging
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Schedule: ScheduleConfig{
			Workdays: []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday"},
			DayStart: "05:00",
			DayEnd:   "22:00",
		},
		Conflicts: ConflictsConfig{
			StepMinutes:             15,
			MaxAlternatives:         3,
			SearchDays:              3,
			DoubleBookingMinOverlap: 15,
			CheckClientConflicts:    true,
		},
		Sessions: SessionsConfig{
			DefaultDuration: 60,
			DefaultLocation: "Main Studio",
		},
		Views: ViewsConfig{
			FirstHour:       projector.DefaultFirstHour,
			LastHour:        projector.DefaultLastHour,
			PixelsPerHour:   projector.DefaultPixelsPerHour,
			MonthMaxOrbs:    projector.DefaultMaxOrbs,
			AgendaPageSize:  projector.DefaultAgendaPageSize,
			VisibleTrainers: projector.DefaultVisibleTrainers,
			WeekStart:       "sunday",
			DefaultView:     "week",
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
		UI: UIConfig{
			Theme: "frappe",
		},
		Log: LogConfig{
			Level: "info",
			File:  defaultLogPath(),
		},
	}
}

// defaultDBPath returns the default database path.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "coachcal.db"
	}
	return filepath.Join(home, ".local", "share", "coachcal", "coachcal.db")
}

func defaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "coachcal.log"
	}
	return filepath.Join(home, ".local", "state", "coachcal", "coachcal.log")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "coachcal", "config.toml")
}

// Load loads configuration from the default path, merging with defaults and env vars.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from the specified path.
// It starts with defaults, overlays the file if it exists, then a .env file in
// the working directory or next to the config file, then the process
// environment.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	env, err := loadDotEnv(".env", filepath.Join(filepath.Dir(path), ".env"))
	if err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(cfg, func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return env[key]
	}); err != nil {
		return nil, err
	}

	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)
	cfg.Log.File = expandPath(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads config from a file if it exists.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, use defaults
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// loadDotEnv reads .env files without touching the process environment.
// Earlier paths win.
func loadDotEnv(paths ...string) (map[string]string, error) {
	out := make(map[string]string)
	for i := len(paths) - 1; i >= 0; i-- {
		vals, err := godotenv.Read(paths[i])
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", paths[i], err)
		}
		for k, v := range vals {
			out[k] = v
		}
	}
	return out, nil
}

// applyEnvOverrides applies COACHCAL_* overrides to the config.
func applyEnvOverrides(cfg *Config, getenv func(string) string) error {
	str := func(name string, dst *string) {
		if v := getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v := getenv(EnvPrefix + name)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
		return nil
	}
	flag := func(name string, dst *bool) error {
		v := getenv(EnvPrefix + name)
		if v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = b
		return nil
	}

	str("DAY_START", &cfg.Schedule.DayStart)
	str("DAY_END", &cfg.Schedule.DayEnd)
	if v := getenv(EnvPrefix + "WORKDAYS"); v != "" {
		cfg.Schedule.Workdays = strings.Split(v, ",")
	}
	str("DB_PATH", &cfg.Storage.DBPath)
	str("UI_THEME", &cfg.UI.Theme)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FILE", &cfg.Log.File)
	str("DEFAULT_LOCATION", &cfg.Sessions.DefaultLocation)
	str("WEEK_START", &cfg.Views.WeekStart)
	str("DEFAULT_VIEW", &cfg.Views.DefaultView)

	return errors.Join(
		flag("ENFORCE_WORK_HOURS", &cfg.Schedule.EnforceWorkHours),
		flag("CHECK_CLIENT_CONFLICTS", &cfg.Conflicts.CheckClientConflicts),
		num("MAX_ALTERNATIVES", &cfg.Conflicts.MaxAlternatives),
		num("SEARCH_DAYS", &cfg.Conflicts.SearchDays),
		num("DOUBLE_BOOKING_MIN_OVERLAP", &cfg.Conflicts.DoubleBookingMinOverlap),
		num("DEFAULT_DURATION", &cfg.Sessions.DefaultDuration),
	)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validateTime(c.Schedule.DayStart, "day_start"); err != nil {
		return err
	}
	if err := validateTime(c.Schedule.DayEnd, "day_end"); err != nil {
		return err
	}
	if c.Schedule.DayStart >= c.Schedule.DayEnd {
		return errors.New("day_start must be before day_end")
	}

	if len(c.Schedule.Workdays) == 0 {
		return errors.New("at least one workday must be configured")
	}
	for _, day := range c.Schedule.Workdays {
		if !isValidWeekday(day) {
			return fmt.Errorf("invalid workday: %s", day)
		}
	}

	switch {
	case c.Conflicts.StepMinutes <= 0 || 60%c.Conflicts.StepMinutes != 0:
		return fmt.Errorf("step_minutes must divide an hour, got %d", c.Conflicts.StepMinutes)
	case c.Conflicts.MaxAlternatives < 0:
		return errors.New("max_alternatives cannot be negative")
	case c.Conflicts.SearchDays < 0:
		return errors.New("search_days cannot be negative")
	case c.Conflicts.DoubleBookingMinOverlap <= 0:
		return errors.New("double_booking_min_overlap must be greater than zero")
	}

	if c.Sessions.DefaultDuration <= 0 {
		return errors.New("default_duration must be greater than zero")
	}
	if c.Sessions.DefaultBufferBefore < 0 || c.Sessions.DefaultBufferAfter < 0 {
		return errors.New("default buffers cannot be negative")
	}

	if c.Views.FirstHour < 0 || c.Views.LastHour > 23 || c.Views.FirstHour >= c.Views.LastHour {
		return fmt.Errorf("views hours must satisfy 0 <= first_hour < last_hour <= 23, got %d-%d",
			c.Views.FirstHour, c.Views.LastHour)
	}
	if !isValidWeekday(c.Views.WeekStart) {
		return fmt.Errorf("invalid week_start: %s", c.Views.WeekStart)
	}
	if c.Views.DefaultView != "" {
		if _, err := projector.ParseKind(c.Views.DefaultView); err != nil {
			return fmt.Errorf("invalid default_view: %w", err)
		}
	}

	if c.Storage.DBPath == "" {
		return errors.New("db_path must be set")
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	return nil
}

// validateTime checks if a time string is in HH:MM format.
func validateTime(t, field string) error {
	if len(t) != 5 || t[2] != ':' {
		return fmt.Errorf("%s must be in HH:MM format, got %q", field, t)
	}
	hour := t[0:2]
	min := t[3:5]
	if !isDigits(hour) || !isDigits(min) {
		return fmt.Errorf("%s must be in HH:MM format, got %q", field, t)
	}
	return nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func isValidWeekday(day string) bool {
	_, ok := weekdays[strings.ToLower(day)]
	return ok
}

// IsWorkday returns true if the given weekday name is a configured workday.
func (c *Config) IsWorkday(weekday string) bool {
	weekday = strings.ToLower(weekday)
	for _, d := range c.Schedule.Workdays {
		if strings.ToLower(d) == weekday {
			return true
		}
	}
	return false
}

// ConflictConfig returns the checker tuning.
func (c *Config) ConflictConfig() conflict.Config {
	return conflict.Config{
		StepMinutes:             c.Conflicts.StepMinutes,
		MaxAlternatives:         c.Conflicts.MaxAlternatives,
		SearchDays:              c.Conflicts.SearchDays,
		DoubleBookingMinOverlap: c.Conflicts.DoubleBookingMinOverlap,
		CheckClientConflicts:    c.Conflicts.CheckClientConflicts,
	}
}

// ViewParams returns projector parameters for now.
func (c *Config) ViewParams(now time.Time, admin bool) projector.Params {
	p := projector.DefaultParams(now)
	p.Admin = admin
	p.FirstHour = c.Views.FirstHour
	p.LastHour = c.Views.LastHour
	p.PixelsPerHour = c.Views.PixelsPerHour
	p.MaxOrbs = c.Views.MonthMaxOrbs
	p.AgendaPageSize = c.Views.AgendaPageSize
	p.VisibleTrainers = c.Views.VisibleTrainers
	p.WeekStart = weekdays[strings.ToLower(c.Views.WeekStart)]
	return p
}

// DefaultView returns the view the calendar opens in.
func (c *Config) DefaultView() projector.Kind {
	k, err := projector.ParseKind(c.Views.DefaultView)
	if err != nil {
		return projector.KindWeek
	}
	return k
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
