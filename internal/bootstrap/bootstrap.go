// SPDX-License-Identifier: MPL-2.0

package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/andonyns/Data-Management-Service/pkg/types"
)

const (
	// ActionFound means the tool was already present.
	ActionFound Action = iota + 1
	// ActionDownloaded means the tool was fetched during this run.
	ActionDownloaded
	// ActionWouldDownload means a dry run skipped the download.
	ActionWouldDownload

	defaultBackoff  = 500 * time.Millisecond
	defaultAttempts = 3
)

var (
	// ErrBootstrapFailed is the sentinel error wrapped by Error.
	ErrBootstrapFailed = errors.New("tool bootstrap failed")
	// ErrInvalidOptions is returned by New for unusable options.
	ErrInvalidOptions = errors.New("invalid bootstrap options")

	errInterrupted = errors.New("download interrupted")
)

type (
	// Action is what Ensure did to make the tool available.
	Action int

	// Options configures a Bootstrapper.
	Options struct {
		// URL is the download location. Its last path segment names the file.
		URL string
		// ToolsDir receives the downloaded tool.
		ToolsDir types.FilesystemPath
		// Attempts bounds download attempts. Zero means 3.
		Attempts int
		// Backoff is the wait before the second attempt; it doubles after
		// each further failure. Zero means 500ms.
		Backoff time.Duration
		// Client performs the download. Nil means http.DefaultClient.
		Client *http.Client
	}

	// Bootstrapper ensures a single downloadable tool is present.
	Bootstrapper struct {
		url      string
		path     string
		attempts int
		backoff  time.Duration
		client   *http.Client
	}

	// Result reports where the tool lives and how it got there.
	Result struct {
		Path   string
		Action Action
	}

	// Error is returned when the tool could not be provisioned.
	Error struct {
		URL      string
		Attempts int
		Err      error
	}

	// StatusError is a non-200 download response.
	StatusError struct {
		URL  string
		Code int
	}
)

// New validates opts and returns a Bootstrapper.
func New(opts Options) (*Bootstrapper, error) {
	u, err := url.Parse(opts.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: url %q must be an absolute http(s) URL", ErrInvalidOptions, opts.URL)
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return nil, fmt.Errorf("%w: url %q does not name a file", ErrInvalidOptions, opts.URL)
	}
	if err := opts.ToolsDir.Validate(); err != nil {
		return nil, fmt.Errorf("%w: tools dir: %w", ErrInvalidOptions, err)
	}
	if opts.Attempts < 0 {
		return nil, fmt.Errorf("%w: attempts must not be negative", ErrInvalidOptions)
	}

	b := &Bootstrapper{
		url:      opts.URL,
		path:     filepath.Join(string(opts.ToolsDir), name),
		attempts: opts.Attempts,
		backoff:  opts.Backoff,
		client:   opts.Client,
	}
	if b.attempts == 0 {
		b.attempts = defaultAttempts
	}
	if b.backoff == 0 {
		b.backoff = defaultBackoff
	}
	if b.client == nil {
		b.client = http.DefaultClient
	}
	return b, nil
}

// Path returns where the tool is (or will be) stored.
func (b *Bootstrapper) Path() string { return b.path }

// Plan describes the download for dry-run output.
func (b *Bootstrapper) Plan() []string {
	return []string{fmt.Sprintf("download %s to %s", b.url, b.path)}
}

// Ensure makes the tool available, downloading it when missing. With dryRun
// set nothing is written and a missing tool reports ActionWouldDownload.
func (b *Bootstrapper) Ensure(ctx context.Context, dryRun bool) (Result, error) {
	if info, err := os.Stat(b.path); err == nil && !info.IsDir() {
		slog.Debug("tool already present", "path", b.path)
		return Result{Path: b.path, Action: ActionFound}, nil
	}

	if dryRun {
		slog.Info("would download tool", "url", b.url, "path", b.path)
		return Result{Path: b.path, Action: ActionWouldDownload}, nil
	}

	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return Result{}, &Error{URL: b.url, Err: err}
	}

	attempts := 0
	err := RetryWithBackoff(ctx, b.attempts, b.backoff, func(attempt int) (bool, error) {
		attempts = attempt + 1
		slog.Info("downloading tool", "url", b.url, "attempt", attempts)
		err := b.download(ctx)
		if err != nil && isTransient(ctx, err) {
			slog.Warn("download failed, retrying", "url", b.url, "attempt", attempts, "error", err)
			return true, err
		}
		return false, err
	})
	if err != nil {
		return Result{}, &Error{URL: b.url, Attempts: attempts, Err: err}
	}

	return Result{Path: b.path, Action: ActionDownloaded}, nil
}

// download fetches the tool into a temp file next to the target and renames
// it into place, so an interrupted download never leaves a partial tool.
func (b *Bootstrapper) download(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.url, nil)
	if err != nil {
		return err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{URL: b.url, Code: resp.StatusCode}
	}

	tmp, err := os.CreateTemp(filepath.Dir(b.path), "."+filepath.Base(b.path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %w", errInterrupted, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o755); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), b.path)
}

// isTransient reports whether a failed download is worth retrying: server
// errors, throttling and transport failures, unless the caller gave up.
func isTransient(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500 || statusErr.Code == http.StatusTooManyRequests
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr) || errors.Is(err, errInterrupted)
}

// String returns a lowercase label for the action.
func (a Action) String() string {
	switch a {
	case ActionFound:
		return "found"
	case ActionDownloaded:
		return "downloaded"
	case ActionWouldDownload:
		return "would download"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("bootstrap %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
	}
	return fmt.Sprintf("bootstrap %s failed: %v", e.URL, e.Err)
}

// Unwrap returns both ErrBootstrapFailed and the underlying cause.
func (e *Error) Unwrap() []error { return []error{ErrBootstrapFailed, e.Err} }

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}
