package miot

import (
	"testing"

	"atxcontrol/pkg/atx"

	"github.com/stretchr/testify/assert"
)

const warningLine = "2026-02-15 00:27:46.603 - mijiaAPI - WARNING: 同时提供了 did 和 dev_name 参数，将忽略 dev_name"

func TestParsePowerStatus(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		onValue  string
		expected atx.PowerStatus
	}{
		{
			name:     "on",
			output:   "device (123) 的 on 值为 True\n",
			onValue:  "True",
			expected: atx.PowerOn,
		},
		{
			name:     "off",
			output:   "device (123) 的 on 值为 False\n",
			onValue:  "True",
			expected: atx.PowerOff,
		},
		{
			name:     "case insensitive",
			output:   "device (123) 的 on 值为 TRUE\n",
			onValue:  "true",
			expected: atx.PowerOn,
		},
		{
			name:     "warning only",
			output:   warningLine + "\n",
			onValue:  "True",
			expected: atx.PowerUnknown,
		},
		{
			name:     "unexpected output",
			output:   "some unexpected output",
			onValue:  "True",
			expected: atx.PowerUnknown,
		},
		{
			name:     "empty",
			output:   "",
			onValue:  "True",
			expected: atx.PowerUnknown,
		},
		{
			name:     "warning before value",
			output:   warningLine + "\nLKRQ电脑开机卡 (2094828328) 的 on 值为 False\n",
			onValue:  "True",
			expected: atx.PowerOff,
		},
		{
			name:     "last value line wins",
			output:   "dev (1) 的 on 值为 False\ndev (1) 的 on 值为 True\n",
			onValue:  "True",
			expected: atx.PowerOn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParsePowerStatus(tt.output, tt.onValue))
		})
	}
}

func TestParseValue(t *testing.T) {
	value, ok := ParseValue("LKRQ电脑开机卡 (2094828328) 的 on 值为 True\n")
	assert.True(t, ok)
	assert.Equal(t, "True", value)

	value, ok = ParseValue("dev 的 name 值为   1  \r\n")
	assert.True(t, ok)
	assert.Equal(t, "1", value)

	_, ok = ParseValue("no match")
	assert.False(t, ok)

	_, ok = ParseValue("")
	assert.False(t, ok)
}

func TestParseValue_SkipsEmptyMatch(t *testing.T) {
	// the trailing marker line carries no value, so the earlier one is used
	value, ok := ParseValue("dev 的 on 值为 False\ndev 的 on 值为\n")
	assert.True(t, ok)
	assert.Equal(t, "False", value)
}
