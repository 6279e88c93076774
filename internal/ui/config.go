package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/coachcal/internal/config"
	"github.com/javiermolinar/coachcal/internal/tui/theme"
)

func (a *App) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "View or edit configuration",
		Long: `Interactive configuration management.

If no config file exists, creates one with default values.
Otherwise, displays current config and allows editing.

Example:
  coachcal config`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runConfigInteractive(a.out)
		},
	}
}

func runConfigInteractive(w io.Writer) error {
	configPath := config.DefaultConfigPath()
	fmt.Fprintf(w, "Config file: %s\n\n", configPath)

	// Load existing config or create defaults
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Check if file exists
	_, fileErr := os.Stat(configPath)
	isNew := os.IsNotExist(fileErr)

	if isNew {
		fmt.Fprintln(w, "No config file found. Creating with default values...")
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(w, "Created %s\n\n", configPath)
	}

	// Display current config
	printConfig(w, cfg)

	// Ask if user wants to edit
	if !promptYesNo("\nWould you like to edit the configuration?") {
		return nil
	}

	// Interactive editing
	reader := bufio.NewReader(os.Stdin)

	cfg.Schedule.DayStart = promptValue(reader, "Day start", cfg.Schedule.DayStart)
	cfg.Schedule.DayEnd = promptValue(reader, "Day end", cfg.Schedule.DayEnd)
	cfg.Schedule.Workdays = promptSlice(reader, "Workdays (comma-separated)", cfg.Schedule.Workdays)
	cfg.Schedule.EnforceWorkHours = promptBool(reader, "Only allow sessions within working hours", cfg.Schedule.EnforceWorkHours)
	cfg.Conflicts.StepMinutes = promptInt(reader, "Alternative slot step (minutes)", cfg.Conflicts.StepMinutes)
	cfg.Conflicts.MaxAlternatives = promptInt(reader, "Alternatives to suggest", cfg.Conflicts.MaxAlternatives)
	cfg.Conflicts.DoubleBookingMinOverlap = promptInt(reader, "Double-booking overlap threshold (minutes)", cfg.Conflicts.DoubleBookingMinOverlap)
	cfg.Sessions.DefaultDuration = promptInt(reader, "Default session length (minutes)", cfg.Sessions.DefaultDuration)
	cfg.Sessions.DefaultLocation = promptValue(reader, "Default location", cfg.Sessions.DefaultLocation)
	cfg.Views.DefaultView = promptValue(reader, "Default view (month, week, day, stacked, agenda)", cfg.Views.DefaultView)
	cfg.Storage.DBPath = promptValue(reader, "Database path", cfg.Storage.DBPath)
	cfg.UI.Theme = promptTheme(reader, cfg.UI.Theme)

	// Validate before saving
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Save
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintln(w, "\nConfiguration saved!")
	return nil
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Current configuration:")
	fmt.Fprintln(w, "──────────────────────")
	fmt.Fprintln(w, "[schedule]")
	fmt.Fprintf(w, "  day_start                  = %s\n", cfg.Schedule.DayStart)
	fmt.Fprintf(w, "  day_end                    = %s\n", cfg.Schedule.DayEnd)
	fmt.Fprintf(w, "  workdays                   = %s\n", strings.Join(cfg.Schedule.Workdays, ", "))
	fmt.Fprintf(w, "  enforce_work_hours         = %t\n", cfg.Schedule.EnforceWorkHours)
	fmt.Fprintln(w, "\n[conflicts]")
	fmt.Fprintf(w, "  step_minutes               = %d\n", cfg.Conflicts.StepMinutes)
	fmt.Fprintf(w, "  max_alternatives           = %d\n", cfg.Conflicts.MaxAlternatives)
	fmt.Fprintf(w, "  search_days                = %d\n", cfg.Conflicts.SearchDays)
	fmt.Fprintf(w, "  double_booking_min_overlap = %d\n", cfg.Conflicts.DoubleBookingMinOverlap)
	fmt.Fprintf(w, "  check_client_conflicts     = %t\n", cfg.Conflicts.CheckClientConflicts)
	fmt.Fprintln(w, "\n[sessions]")
	fmt.Fprintf(w, "  default_duration           = %d\n", cfg.Sessions.DefaultDuration)
	fmt.Fprintf(w, "  default_buffer_before      = %d\n", cfg.Sessions.DefaultBufferBefore)
	fmt.Fprintf(w, "  default_buffer_after       = %d\n", cfg.Sessions.DefaultBufferAfter)
	fmt.Fprintf(w, "  default_location           = %s\n", cfg.Sessions.DefaultLocation)
	fmt.Fprintln(w, "\n[views]")
	fmt.Fprintf(w, "  hours                      = %02d:00-%02d:00\n", cfg.Views.FirstHour, cfg.Views.LastHour)
	fmt.Fprintf(w, "  week_start                 = %s\n", cfg.Views.WeekStart)
	fmt.Fprintf(w, "  default_view               = %s\n", cfg.Views.DefaultView)
	fmt.Fprintln(w, "\n[storage]")
	fmt.Fprintf(w, "  db_path                    = %s\n", cfg.Storage.DBPath)
	fmt.Fprintln(w, "\n[ui]")
	fmt.Fprintf(w, "  theme                      = %s\n", cfg.UI.Theme)
	fmt.Fprintln(w, "\n[log]")
	fmt.Fprintf(w, "  level                      = %s\n", cfg.Log.Level)
	fmt.Fprintf(w, "  file                       = %s\n", cfg.Log.File)
}

func promptYesNo(question string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("%s [y/N]: ", question)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}

func promptValue(reader *bufio.Reader, label, current string) string {
	if current == "" {
		fmt.Printf("  %s: ", label)
	} else {
		fmt.Printf("  %s [%s]: ", label, current)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return current
	}
	return input
}

func promptSlice(reader *bufio.Reader, label string, current []string) []string {
	currentStr := strings.Join(current, ", ")
	fmt.Printf("  %s [%s]: ", label, currentStr)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return current
	}
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func promptInt(reader *bufio.Reader, label string, current int) int {
	for {
		value := promptValue(reader, label, strconv.Itoa(current))
		n, err := strconv.Atoi(value)
		if err == nil {
			return n
		}
		fmt.Printf("  Invalid number %q\n", value)
	}
}

func promptBool(reader *bufio.Reader, label string, current bool) bool {
	def := "n"
	if current {
		def = "y"
	}
	value := strings.ToLower(promptValue(reader, label+" (y/n)", def))
	return value == "y" || value == "yes" || value == "true"
}

func promptTheme(reader *bufio.Reader, current string) string {
	options := strings.Join(theme.Available(), ", ")
	label := fmt.Sprintf("UI theme (%s)", options)
	for {
		value := strings.ToLower(promptValue(reader, label, current))
		if theme.IsAvailable(value) {
			return value
		}
		fmt.Printf("  Invalid theme %q. Available: %s\n", value, options)
	}
}
