package miot

import (
	"strings"

	"atxcontrol/pkg/atx"
)

// valueMarker precedes the value on mijiaAPI get output lines, e.g.
// "LKRQ电脑开机卡 (2094828328) 的 on 值为 True"
const valueMarker = "值为"

// ParseValue extracts the value from tool output. Lines are scanned from the
// end so the latest value line wins over any warning noise printed before it.
func ParseValue(output string) (string, bool) {
	lines := strings.Split(output, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		pos := strings.LastIndex(line, valueMarker)
		if pos < 0 {
			continue
		}
		if value := strings.TrimSpace(line[pos+len(valueMarker):]); value != "" {
			return value, true
		}
	}
	return "", false
}

// ParsePowerStatus maps the parsed value to PowerOn when it equals onValue
// (case-insensitive), PowerOff for any other value, and PowerUnknown when no
// value line is present.
func ParsePowerStatus(output, onValue string) atx.PowerStatus {
	value, ok := ParseValue(output)
	if !ok {
		return atx.PowerUnknown
	}
	if strings.EqualFold(value, onValue) {
		return atx.PowerOn
	}
	return atx.PowerOff
}
