// SPDX-License-Identifier: MPL-2.0

// Package step defines the unit of build work and the executor that runs an
// ordered list of steps.
//
// Steps are data: a Step has a name, a one-line description and a Run method.
// The Executor runs steps strictly in order, stops at the first failure and
// records every remaining step as skipped. In dry-run mode no step body is
// invoked; each step is recorded as would-run exactly once, in order.
package step
