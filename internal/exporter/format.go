package exporter

import (
	"strconv"
)

// formatFloat uses the shortest text that parses back to f
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// formatCell renders one typed cell as CSV text.
func formatCell(v interface{}) string {
	switch val := v.(type) {
	case int64:
		return formatInt(val)
	case int:
		return formatInt(int64(val))
	case float64:
		return formatFloat(val)
	case string:
		return val
	default:
		return ""
	}
}
