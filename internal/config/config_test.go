package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/javiermolinar/coachcal/internal/projector"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Schedule.DayStart != "05:00" {
		t.Errorf("expected day_start 05:00, got %s", cfg.Schedule.DayStart)
	}
	if cfg.Schedule.DayEnd != "22:00" {
		t.Errorf("expected day_end 22:00, got %s", cfg.Schedule.DayEnd)
	}
	if cfg.Conflicts.DoubleBookingMinOverlap != 15 || cfg.Conflicts.MaxAlternatives != 3 {
		t.Errorf("unexpected conflict defaults %+v", cfg.Conflicts)
	}
	if cfg.Sessions.DefaultLocation != "Main Studio" {
		t.Errorf("expected Main Studio, got %s", cfg.Sessions.DefaultLocation)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadFrom_FileNotExists(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Should return defaults
	if cfg.Schedule.DayStart != "05:00" {
		t.Errorf("expected default day_start, got %s", cfg.Schedule.DayStart)
	}
}

func TestLoadFrom_ValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	content := `
[schedule]
workdays = ["monday", "tuesday", "wednesday"]
day_start = "06:00"
day_end = "20:00"
enforce_work_hours = true

[conflicts]
step_minutes = 30
max_alternatives = 5
search_days = 2
double_booking_min_overlap = 20
check_client_conflicts = false

[views]
first_hour = 6
last_hour = 21
week_start = "monday"
default_view = "agenda"

[storage]
db_path = "/tmp/test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Schedule.DayStart != "06:00" || !cfg.Schedule.EnforceWorkHours {
		t.Errorf("unexpected schedule %+v", cfg.Schedule)
	}
	if len(cfg.Schedule.Workdays) != 3 {
		t.Errorf("expected 3 workdays, got %d", len(cfg.Schedule.Workdays))
	}

	cc := cfg.ConflictConfig()
	if cc.StepMinutes != 30 || cc.MaxAlternatives != 5 || cc.SearchDays != 2 ||
		cc.DoubleBookingMinOverlap != 20 || cc.CheckClientConflicts {
		t.Errorf("unexpected conflict config %+v", cc)
	}

	// Unset values keep their defaults.
	if cfg.Sessions.DefaultDuration != 60 {
		t.Errorf("expected default duration 60, got %d", cfg.Sessions.DefaultDuration)
	}

	p := cfg.ViewParams(time.Now(), true)
	if p.FirstHour != 6 || p.LastHour != 21 || p.WeekStart != time.Monday || !p.Admin {
		t.Errorf("unexpected view params %+v", p)
	}
	if cfg.DefaultView() != projector.KindAgenda {
		t.Errorf("expected agenda view, got %s", cfg.DefaultView())
	}
	if cfg.Storage.DBPath != "/tmp/test.db" {
		t.Errorf("expected db_path /tmp/test.db, got %s", cfg.Storage.DBPath)
	}
}

func TestLoadFrom_InvalidToml(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	if err := os.WriteFile(configPath, []byte("[schedule\nday_start = "), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := LoadFrom(configPath); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadFrom_DotEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	env := "COACHCAL_DAY_START=07:00\nCOACHCAL_MAX_ALTERNATIVES=4\nCOACHCAL_DB_PATH=/tmp/dotenv.db\n"
	if err := os.WriteFile(filepath.Join(tmpDir, ".env"), []byte(env), 0o644); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	t.Setenv("COACHCAL_DB_PATH", "/tmp/env.db")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Schedule.DayStart != "07:00" {
		t.Errorf("expected .env day_start 07:00, got %s", cfg.Schedule.DayStart)
	}
	if cfg.Conflicts.MaxAlternatives != 4 {
		t.Errorf("expected .env max_alternatives 4, got %d", cfg.Conflicts.MaxAlternatives)
	}
	if cfg.Storage.DBPath != "/tmp/env.db" {
		t.Errorf("process env should win over .env, got %s", cfg.Storage.DBPath)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("COACHCAL_DAY_END", "21:00")
	t.Setenv("COACHCAL_WORKDAYS", "monday,friday")
	t.Setenv("COACHCAL_ENFORCE_WORK_HOURS", "true")
	t.Setenv("COACHCAL_DOUBLE_BOOKING_MIN_OVERLAP", "30")

	cfg, err := LoadFrom("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Schedule.DayEnd != "21:00" {
		t.Errorf("expected day_end 21:00, got %s", cfg.Schedule.DayEnd)
	}
	if len(cfg.Schedule.Workdays) != 2 || !cfg.Schedule.EnforceWorkHours {
		t.Errorf("unexpected schedule %+v", cfg.Schedule)
	}
	if cfg.Conflicts.DoubleBookingMinOverlap != 30 {
		t.Errorf("expected overlap 30, got %d", cfg.Conflicts.DoubleBookingMinOverlap)
	}

	t.Setenv("COACHCAL_SEARCH_DAYS", "many")
	if _, err := LoadFrom("/nonexistent/path/config.toml"); err == nil {
		t.Error("expected error for non-numeric override")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid default", func(c *Config) {}, false},
		{"invalid day_start format", func(c *Config) { c.Schedule.DayStart = "5am" }, true},
		{"start after end", func(c *Config) { c.Schedule.DayStart = "23:00" }, true},
		{"no workdays", func(c *Config) { c.Schedule.Workdays = nil }, true},
		{"invalid workday", func(c *Config) { c.Schedule.Workdays = []string{"funday"} }, true},
		{"step not dividing hour", func(c *Config) { c.Conflicts.StepMinutes = 25 }, true},
		{"zero overlap threshold", func(c *Config) { c.Conflicts.DoubleBookingMinOverlap = 0 }, true},
		{"negative buffer", func(c *Config) { c.Sessions.DefaultBufferAfter = -5 }, true},
		{"inverted view hours", func(c *Config) { c.Views.FirstHour = 22; c.Views.LastHour = 5 }, true},
		{"bad week start", func(c *Config) { c.Views.WeekStart = "someday" }, true},
		{"bad default view", func(c *Config) { c.Views.DefaultView = "year" }, true},
		{"empty db path", func(c *Config) { c.Storage.DBPath = "" }, true},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsWorkday(t *testing.T) {
	cfg := Default()

	if !cfg.IsWorkday("Monday") {
		t.Error("expected Monday to be a workday")
	}
	if cfg.IsWorkday("sunday") {
		t.Error("expected Sunday not to be a workday")
	}
}

func TestSaveTo(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.toml")

	cfg := Default()
	cfg.Schedule.DayStart = "06:30"
	cfg.Conflicts.SearchDays = 5
	cfg.Storage.DBPath = "/tmp/saved.db"
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if loaded.Schedule.DayStart != "06:30" || loaded.Conflicts.SearchDays != 5 {
		t.Errorf("saved values not reloaded: %+v %+v", loaded.Schedule, loaded.Conflicts)
	}
}
