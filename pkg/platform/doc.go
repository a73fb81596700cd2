// SPDX-License-Identifier: MPL-2.0

// Package platform provides the small amount of OS-specific knowledge the
// build pipeline needs: GOOS name constants and executable file naming.
package platform
