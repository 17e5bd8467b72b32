package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyNode       = "node"
	KeyTask       = "task_id"
	KeyOperation  = "operation"
	KeySensor     = "sensor"
	KeyDurationMS = "duration_ms"
	KeyRecords    = "records"
	KeySubject    = "subject"
	KeyURL        = "url"
	KeyInterval   = "interval"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Node(name string) slog.Attr      { return slog.String(KeyNode, name) }
func Task(id string) slog.Attr        { return slog.String(KeyTask, id) }
func Operation(op string) slog.Attr   { return slog.String(KeyOperation, op) }
func Sensor(name string) slog.Attr    { return slog.String(KeySensor, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Records(n int64) slog.Attr       { return slog.Int64(KeyRecords, n) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Interval(i string) slog.Attr     { return slog.String(KeyInterval, i) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
