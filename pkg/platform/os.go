// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"runtime"
	"strings"
)

// OS name constants for runtime.GOOS comparisons.
// Centralizes the string literals to avoid scattered magic strings.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

// ExecutableName returns name with the ".exe" suffix appended when goos is
// Windows and the suffix is missing. Other platforms return name unchanged.
func ExecutableName(goos, name string) string {
	if goos == Windows && !strings.HasSuffix(strings.ToLower(name), ".exe") {
		return name + ".exe"
	}
	return name
}

// HostExecutableName is ExecutableName for the running OS.
func HostExecutableName(name string) string {
	return ExecutableName(runtime.GOOS, name)
}
