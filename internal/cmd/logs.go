package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tsm-sh/tsm/internal/config"
	"github.com/tsm-sh/tsm/internal/logging"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View control loop logs",
	Long: `View and filter the structured logs written by the control loop.

Reads the configured log file (or ~/.config/tsm/tsm.log when none is
configured). Use flags to filter and format the output.

Examples:
  # Show last 50 lines
  tsm logs

  # Show all log entries
  tsm logs -n 0

  # Follow logs in real-time
  tsm logs -f

  # Filter by log level
  tsm logs --level warn

  # Show logs from the last hour about one service
  tsm logs --since 1h --service web

  # Show everything a tick did
  tsm logs --tick 1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed

  # Export matching entries
  tsm logs --level error --export errors.csv --format csv`,
	RunE: runLogs,
}

var (
	logsTail      int
	logsFollow    bool
	logsLevel     string
	logsSince     string
	logsGrep      string
	logsComponent string
	logsService   string
	logsTick      string
	logsExport    string
	logsFormat    string
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of lines to show (0 for all)")
	logsCmd.Flags().BoolVar(&logsFollow, "follow", false, "Follow log output (like tail -f)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show logs since duration ago (e.g., 1h, 30m)")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "Filter to messages containing this substring")
	logsCmd.Flags().StringVar(&logsComponent, "component", "", "Filter by component (loop/sampler/reconciler/projector/...)")
	logsCmd.Flags().StringVar(&logsService, "service", "", "Filter by service name")
	logsCmd.Flags().StringVar(&logsTick, "tick", "", "Filter by tick correlation ID")
	logsCmd.Flags().StringVar(&logsExport, "export", "", "Write matching entries to this file instead of stdout")
	logsCmd.Flags().StringVar(&logsFormat, "format", "json", "Export format (json/text/csv)")
}

// ANSI color codes for terminal output
const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorBlue   = "\033[34m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
)

// levelColor returns the ANSI color code for a log level
func levelColor(level string) string {
	switch strings.ToUpper(level) {
	case logging.LevelDebug:
		return colorGray
	case logging.LevelInfo:
		return colorBlue
	case logging.LevelWarn:
		return colorYellow
	case logging.LevelError:
		return colorRed
	default:
		return colorReset
	}
}

// formatLogEntry formats a log entry for terminal output
func formatLogEntry(entry logging.LogEntry) string {
	var sb strings.Builder

	// Timestamp
	sb.WriteString(colorGray)
	sb.WriteString("[")
	sb.WriteString(entry.Timestamp.Format("15:04:05.000"))
	sb.WriteString("]")
	sb.WriteString(colorReset)

	// Level with color
	sb.WriteString(" ")
	sb.WriteString(levelColor(entry.Level))
	sb.WriteString("[")
	sb.WriteString(strings.ToUpper(entry.Level))
	sb.WriteString("]")
	sb.WriteString(colorReset)

	// Message
	sb.WriteString(" ")
	sb.WriteString(entry.Message)

	// Context fields
	writeField := func(key, value string) {
		if value == "" {
			return
		}
		sb.WriteString(" ")
		sb.WriteString(colorCyan)
		sb.WriteString(key)
		sb.WriteString("=")
		sb.WriteString(colorReset)
		sb.WriteString(value)
	}
	writeField("component", entry.Component)
	writeField("service", entry.Service)
	writeField("tick", entry.Tick)
	writeField("phase", entry.Phase)

	// Extra fields
	for key, value := range entry.Attrs {
		writeField(key, fmt.Sprintf("%v", value))
	}

	return sb.String()
}

// buildLogFilter translates the command flags into a filter.
func buildLogFilter() (logging.LogFilter, error) {
	filter := logging.LogFilter{
		Component:       logsComponent,
		Service:         logsService,
		Tick:            logsTick,
		MessageContains: logsGrep,
	}

	if logsLevel != "" {
		filter.Level = logging.ParseLevel(logsLevel)
	}

	if logsSince != "" {
		duration, err := time.ParseDuration(logsSince)
		if err != nil {
			return filter, fmt.Errorf("invalid duration format: %w", err)
		}
		filter.StartTime = time.Now().Add(-duration)
	}

	return filter, nil
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logPath := cfg.Log.File
	if logPath == "" {
		logPath = defaultLogPath()
	}

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		fmt.Printf("No log file at %s\n", logPath)
		fmt.Println("Set log.file in the config, or run 'tsm monitor --dashboard' which logs there by default.")
		return nil
	}

	filter, err := buildLogFilter()
	if err != nil {
		return err
	}

	// Follow mode
	if logsFollow {
		return followLogs(logPath, filter)
	}

	entries, err := logging.AggregateLogs(logPath)
	if err != nil {
		return fmt.Errorf("failed to read log file: %w", err)
	}
	entries = logging.FilterLogs(entries, filter)

	// Export mode
	if logsExport != "" {
		if err := logging.ExportLogEntries(entries, logsExport, logsFormat); err != nil {
			return err
		}
		fmt.Printf("Exported %d entries to %s\n", len(entries), logsExport)
		return nil
	}

	// Apply tail limit
	if logsTail > 0 && len(entries) > logsTail {
		entries = entries[len(entries)-logsTail:]
	}

	for _, entry := range entries {
		fmt.Println(formatLogEntry(entry))
	}

	if len(entries) == 0 {
		fmt.Println("No matching log entries found.")
	}

	return nil
}

// followLogs implements tail -f behavior for the log file
func followLogs(logPath string, filter logging.LogFilter) error {
	file, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	// Seek to end of file
	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}

	fmt.Printf("Following logs... (Ctrl+C to stop)\n\n")

	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				// No new data, wait briefly and try again
				time.Sleep(100 * time.Millisecond)
				continue
			}
			return fmt.Errorf("error reading log file: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var entry logging.LogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			// If we can't parse as JSON, display the raw line
			fmt.Println(line)
			continue
		}

		// Same filter semantics as the batch path
		if len(logging.FilterLogs([]logging.LogEntry{entry}, filter)) == 0 {
			continue
		}

		fmt.Println(formatLogEntry(entry))
	}
}
