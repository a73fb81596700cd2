// SPDX-License-Identifier: MPL-2.0

package params

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/andonyns/Data-Management-Service/internal/registry"
)

const (
	// Debug is the default build configuration.
	Debug Configuration = "Debug"
	// Release is the optimized build configuration.
	Release Configuration = "Release"

	// DefaultVersion is used when no version is given.
	DefaultVersion = "0.1"
	// DefaultFeedURL is the package feed used for restore and publish.
	DefaultFeedURL FeedURL = "https://pkgs.dev.azure.com/ed-fi-alliance/Ed-Fi-Alliance-OSS/_packaging/EdFi/nuget/v3/index.json"
)

// ErrInvalidParameter is the sentinel error wrapped by InvalidParameterError.
var ErrInvalidParameter = errors.New("invalid parameter")

type (
	// Configuration is the build configuration passed to the toolchain.
	Configuration string

	// FeedURL is the package feed address.
	FeedURL string

	// Version is a build version as given by the user (e.g. "0.1") together
	// with its semantic-version reading.
	Version struct {
		raw    string
		semver *semver.Version
	}

	// RawParameters holds invocation options as typed by the user.
	RawParameters struct {
		Command       string
		Configuration string
		Version       string
		DryRun        bool
		FeedURL       string
		LocalBuild    bool
		Timeout       time.Duration
	}

	// Parameters is the resolved, immutable parameter set of one run.
	Parameters struct {
		Command       registry.CommandName
		Configuration Configuration
		Version       Version
		DryRun        bool
		FeedURL       FeedURL
		LocalBuild    bool
		// Timeout bounds each external process. Zero means no timeout.
		Timeout time.Duration
	}

	// InvalidParameterError is returned when an option has a value outside
	// its allowed set or format.
	InvalidParameterError struct {
		Name    string
		Value   string
		Allowed []string
		Err     error
	}
)

// Parse validates raw and fills in defaults.
func Parse(raw RawParameters) (Parameters, error) {
	p := Parameters{
		DryRun:     raw.DryRun,
		LocalBuild: raw.LocalBuild,
		Timeout:    raw.Timeout,
	}

	p.Command = registry.Build
	if cmd := strings.TrimSpace(raw.Command); cmd != "" {
		// Unknown names are kept verbatim and rejected by the registry lookup.
		if parsed, err := registry.ParseCommandName(cmd); err == nil {
			p.Command = parsed
		} else {
			p.Command = registry.CommandName(cmd)
		}
	}

	var err error
	if p.Configuration, err = ParseConfiguration(raw.Configuration); err != nil {
		return Parameters{}, err
	}
	if p.Version, err = ParseVersion(raw.Version); err != nil {
		return Parameters{}, err
	}
	if p.FeedURL, err = ParseFeedURL(raw.FeedURL); err != nil {
		return Parameters{}, err
	}
	if raw.Timeout < 0 {
		return Parameters{}, &InvalidParameterError{Name: "timeout", Value: raw.Timeout.String(), Err: errors.New("must not be negative")}
	}

	return p, nil
}

// ParseConfiguration resolves s case-insensitively. Empty means Debug.
func ParseConfiguration(s string) (Configuration, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Debug, nil
	}
	for _, c := range []Configuration{Debug, Release} {
		if strings.EqualFold(trimmed, string(c)) {
			return c, nil
		}
	}
	return "", &InvalidParameterError{Name: "configuration", Value: s, Allowed: []string{string(Debug), string(Release)}}
}

// String returns the string representation of the Configuration.
func (c Configuration) String() string { return string(c) }

// Validate returns an error unless c is Debug or Release.
func (c Configuration) Validate() error {
	if c != Debug && c != Release {
		return &InvalidParameterError{Name: "configuration", Value: string(c), Allowed: []string{string(Debug), string(Release)}}
	}
	return nil
}

// ParseVersion parses a version such as "0.1" or "1.2.3-beta.1". Empty means
// DefaultVersion.
func ParseVersion(s string) (Version, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		raw = DefaultVersion
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return Version{}, &InvalidParameterError{Name: "version", Value: s, Err: err}
	}
	return Version{raw: raw, semver: v}, nil
}

// MustParseVersion is ParseVersion for constants; it panics on error.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the version as given.
func (v Version) String() string { return v.raw }

// IsZero reports whether v is the zero Version.
func (v Version) IsZero() bool { return v.semver == nil }

// Prefix returns major.minor.patch, the numeric part used for assembly versions.
func (v Version) Prefix() string {
	if v.semver == nil {
		return "0.0.0"
	}
	return fmt.Sprintf("%d.%d.%d", v.semver.Major(), v.semver.Minor(), v.semver.Patch())
}

// Prerelease returns the prerelease label, if any.
func (v Version) Prerelease() string {
	if v.semver == nil {
		return ""
	}
	return v.semver.Prerelease()
}

// ParseFeedURL checks that s is an absolute http(s) URL. Empty means DefaultFeedURL.
func ParseFeedURL(s string) (FeedURL, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return DefaultFeedURL, nil
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", &InvalidParameterError{Name: "feed-url", Value: s, Err: err}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", &InvalidParameterError{Name: "feed-url", Value: s, Err: errors.New("must be an absolute http or https URL")}
	}
	return FeedURL(trimmed), nil
}

// String returns the string representation of the FeedURL.
func (f FeedURL) String() string { return string(f) }

// Error implements the error interface.
func (e *InvalidParameterError) Error() string {
	msg := fmt.Sprintf("invalid value %q for %s", e.Value, e.Name)
	if len(e.Allowed) > 0 {
		msg += fmt.Sprintf(" (allowed: %s)", strings.Join(e.Allowed, ", "))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns ErrInvalidParameter for errors.Is() compatibility.
func (e *InvalidParameterError) Unwrap() error { return ErrInvalidParameter }
