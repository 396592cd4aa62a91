package logx

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Formatter renders one entry, newline included.
type Formatter interface {
	Format(entry *LogEntry) ([]byte, error)
}

type LogEntry struct {
	Level     Level
	Message   string
	Fields    Fields
	Error     error
	Timestamp time.Time
	Caller    string
}

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1;31m"
)

// ConsoleFormatter writes human readable lines, optionally colored.
type ConsoleFormatter struct {
	config *Config
}

func (f *ConsoleFormatter) Format(entry *LogEntry) ([]byte, error) {
	var b strings.Builder

	if f.config.EnableTimestamp {
		f.paint(&b, colorGray, formatTimestamp(entry.Timestamp, f.config.TimeFormat))
		b.WriteByte(' ')
	}

	f.paint(&b, levelColor(entry.Level), fmt.Sprintf("%-5s", entry.Level))
	b.WriteByte(' ')

	if entry.Caller != "" {
		f.paint(&b, colorGray, entry.Caller)
		b.WriteByte(' ')
	}

	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(' ')
		f.paint(&b, colorCyan, k)
		fmt.Fprintf(&b, "=%v", entry.Fields[k])
	}

	if entry.Error != nil {
		b.WriteByte(' ')
		f.paint(&b, colorRed, "error")
		fmt.Fprintf(&b, "=%q", entry.Error.Error())
	}

	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func (f *ConsoleFormatter) paint(b *strings.Builder, color, s string) {
	if !f.config.EnableColors {
		b.WriteString(s)
		return
	}
	b.WriteString(color)
	b.WriteString(s)
	b.WriteString(colorReset)
}

func levelColor(l Level) string {
	switch l {
	case LevelTrace, LevelDebug:
		return colorGray
	case LevelInfo:
		return colorBlue
	case LevelWarn:
		return colorYellow
	case LevelError:
		return colorRed
	default:
		return colorBold
	}
}

// JSONFormatter writes one JSON object per line.
type JSONFormatter struct {
	config *Config
}

func (f *JSONFormatter) Format(entry *LogEntry) ([]byte, error) {
	data := make(map[string]any, len(entry.Fields)+5)
	for k, v := range entry.Fields {
		data[k] = v
	}
	data["level"] = entry.Level.String()
	data["message"] = entry.Message
	if f.config.EnableTimestamp {
		data["timestamp"] = formatTimestamp(entry.Timestamp, f.config.TimeFormat)
	}
	if entry.Caller != "" {
		data["caller"] = entry.Caller
	}
	if entry.Error != nil {
		data["error"] = entry.Error.Error()
	}
	return marshalLine(data)
}

// CloudWatchFormatter uses the msg/time keys CloudWatch Insights expects.
type CloudWatchFormatter struct {
	config *Config
}

func (f *CloudWatchFormatter) Format(entry *LogEntry) ([]byte, error) {
	data := make(map[string]any, len(entry.Fields)+5)
	for k, v := range entry.Fields {
		data[k] = v
	}
	data["level"] = entry.Level.String()
	data["msg"] = entry.Message
	data["time"] = entry.Timestamp.Format(time.RFC3339Nano)
	if entry.Caller != "" {
		data["caller"] = entry.Caller
	}
	if entry.Error != nil {
		data["error"] = entry.Error.Error()
		data["error_type"] = fmt.Sprintf("%T", entry.Error)
	}
	return marshalLine(data)
}

func marshalLine(data map[string]any) ([]byte, error) {
	out, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func formatTimestamp(t time.Time, format string) string {
	switch format {
	case "unix":
		return fmt.Sprintf("%d", t.Unix())
	case "unixmilli":
		return fmt.Sprintf("%d", t.UnixMilli())
	case "":
		return t.Format(time.RFC3339)
	default:
		return t.Format(format)
	}
}
