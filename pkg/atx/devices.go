package atx

import (
	"path/filepath"
	"sort"
)

// DiscoverDevices lists GPIO chips and hidraw nodes under devDir (normally
// "/dev"). Glob errors only occur on malformed patterns, so they yield empty
// lists.
func DiscoverDevices(devDir string) Devices {
	return Devices{
		GpioChips: globSorted(filepath.Join(devDir, "gpiochip*")),
		UsbRelays: globSorted(filepath.Join(devDir, "hidraw*")),
	}
}

func globSorted(pattern string) []string {
	matches, err := filepath.Glob(pattern)
	if err != nil || matches == nil {
		return []string{}
	}
	sort.Strings(matches)
	return matches
}
