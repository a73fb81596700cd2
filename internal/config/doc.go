// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is looked up, in order, from the file passed with --config,
// ./dmsbuild.cue in the repository, and dmsbuild/config.cue in the user
// configuration directory ($XDG_CONFIG_HOME on Linux, ~/Library/Application
// Support on macOS, %APPDATA% on Windows). The first file found is validated
// against an embedded CUE schema (config_schema.cue) and merged over the
// built-in defaults; when none exists the defaults apply unchanged.
package config
