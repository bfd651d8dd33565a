package observability

import "log/slog"

// Level is an event severity, numbered to match OpenTelemetry
// SeverityNumber so events can feed an OTel pipeline without
// translation.
type Level int

// Each constant sits at the bottom of its OTel severity range.
const (
	LevelVerbose Level = 5  // DEBUG range (5-8)
	LevelInfo    Level = 9  // INFO range (9-12)
	LevelWarning Level = 13 // WARN range (13-16)
	LevelError   Level = 17 // ERROR range (17-20)
)

// severityBands lists the OTel severity ranges in ascending order, each
// with its upper bound, severity text, and nearest slog level. Levels
// above the last band are FATAL.
var severityBands = []struct {
	max  Level
	text string
	slog slog.Level
}{
	{4, "TRACE", slog.LevelDebug},
	{8, "DEBUG", slog.LevelDebug},
	{12, "INFO", slog.LevelInfo},
	{16, "WARN", slog.LevelWarn},
	{20, "ERROR", slog.LevelError},
}

// String returns the OTel severity text for the level.
func (l Level) String() string {
	for _, band := range severityBands {
		if l <= band.max {
			return band.text
		}
	}
	return "FATAL"
}

// SlogLevel maps the level onto the nearest slog.Level.
func (l Level) SlogLevel() slog.Level {
	for _, band := range severityBands {
		if l <= band.max {
			return band.slog
		}
	}
	return slog.LevelError
}
