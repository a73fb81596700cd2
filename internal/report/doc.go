// SPDX-License-Identifier: MPL-2.0

// Package report writes run artefacts: a TOML summary of a command run and a
// Prometheus textfile with step timings for node_exporter's textfile collector.
package report
