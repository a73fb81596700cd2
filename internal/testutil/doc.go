// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers include environment variable management (MustSetenv, SetHomeDir),
// directory and file setup (MustChdir, MustMkdirAll, MustWriteFile), a manually
// advanced FakeClock, and CommandRecorder, which replaces process launching with
// re-executions of the test binary (the TestHelperProcess pattern).
package testutil
