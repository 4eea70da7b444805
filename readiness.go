package pipeline

import (
	"context"
	"net/http"
	"time"
)

// PollState is the state of a readiness poll.
type PollState int

const (
	// StatePolling means the poll is still probing
	StatePolling PollState = iota
	// StateReady means a probe succeeded
	StateReady
	// StateFailed means the attempt budget ran out without a success
	StateFailed
)

// String returns the string representation of a PollState
func (s PollState) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "polling"
	}
}

// Poller probes the WebUI endpoint until it answers or a bounded attempt
// budget is exhausted. Any HTTP response counts as ready; the status code
// and body are ignored, since the WebUI serves its loading page long
// before the models finish loading and either signal is good enough for
// the processing scripts to start retrying against the API.
type Poller struct {
	// URL is the endpoint probed for readiness
	URL string

	// Interval is the sleep between failed probes
	Interval time.Duration

	// MaxAttempts is the probe budget; the poll fails when it is exhausted
	MaxAttempts int

	// Client is the HTTP client used for probes
	Client *http.Client

	// probe and sleep are injectable for tests
	probe func(ctx context.Context) error
	sleep func(ctx context.Context, d time.Duration) error
}

// PollerOption configures a Poller
type PollerOption func(*Poller)

// WithProbeURL sets the endpoint to probe
func WithProbeURL(url string) PollerOption {
	return func(p *Poller) {
		p.URL = url
	}
}

// WithProbeInterval sets the sleep between failed probes
func WithProbeInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		p.Interval = d
	}
}

// WithMaxAttempts sets the probe budget
func WithMaxAttempts(n int) PollerOption {
	return func(p *Poller) {
		p.MaxAttempts = n
	}
}

// WithHTTPClient sets the HTTP client used for probes
func WithHTTPClient(c *http.Client) PollerOption {
	return func(p *Poller) {
		p.Client = c
	}
}

// NewPoller creates a Poller with standard defaults: 60 attempts, 5 seconds
// apart, against the local WebUI port.
func NewPoller(opts ...PollerOption) *Poller {
	p := &Poller{
		URL:         DefaultProbeURL,
		Interval:    DefaultProbeInterval,
		MaxAttempts: DefaultProbeAttempts,
		Client:      &http.Client{Timeout: DefaultProbeTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.probe == nil {
		p.probe = p.httpProbe
	}
	if p.sleep == nil {
		p.sleep = sleepCtx
	}
	return p
}

// httpProbe issues one GET against the poll URL.
func (p *Poller) httpProbe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return err
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}

// sleepCtx sleeps for d unless the context is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitReady runs the poll loop. It returns the attempt number the probe
// succeeded on. A success exits immediately with no further probing or
// sleeping; a probe failure on any attempt before the last sleeps for the
// interval and retries. When the budget is exhausted the poll fails with
// ErrNotReady.
func (p *Poller) WaitReady(ctx context.Context) (int, error) {
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt, &OpError{Op: OpProbe, Path: p.URL, Err: err}
		}
		if err := p.probe(ctx); err == nil {
			return attempt, nil
		}
		if attempt == p.MaxAttempts {
			break
		}
		if err := p.sleep(ctx, p.Interval); err != nil {
			return attempt, &OpError{Op: OpProbe, Path: p.URL, Err: err}
		}
	}
	return p.MaxAttempts, &OpError{Op: OpProbe, Path: p.URL, Err: ErrNotReady}
}
