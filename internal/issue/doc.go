// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// remediation hints, plus an optional catalog Id. The catalog holds a Markdown
// help page per Id, rendered for the terminal with glamour.
package issue
