// SPDX-License-Identifier: MPL-2.0

// Package bootstrap provisions the NuGet CLI used by local builds. The tool is
// downloaded once into the tools directory and reused on later runs.
package bootstrap
