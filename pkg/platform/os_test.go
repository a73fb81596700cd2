// SPDX-License-Identifier: MPL-2.0

package platform

import "testing"

func TestExecutableName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		goos string
		name string
		want string
	}{
		{Windows, "nuget", "nuget.exe"},
		{Windows, "nuget.exe", "nuget.exe"},
		{Windows, "NuGet.EXE", "NuGet.EXE"},
		{Linux, "nuget", "nuget"},
		{Darwin, "dotnet", "dotnet"},
	}

	for _, tt := range tests {
		if got := ExecutableName(tt.goos, tt.name); got != tt.want {
			t.Errorf("ExecutableName(%q, %q) = %q, want %q", tt.goos, tt.name, got, tt.want)
		}
	}
}
