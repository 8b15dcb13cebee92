// Package engine provides the single outbound call path shared by every
// probe family: acquire from the run-wide request budget, smooth with a
// per-second limiter, issue the request, and persist an evidence record.
// Funneling all probes through one client keeps the throttle and the
// evidence trail global to the run.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"

	"golang.org/x/time/rate"

	"github.com/bountyscan/bountyscan/pkg/budget"
	"github.com/bountyscan/bountyscan/pkg/defaults"
	"github.com/bountyscan/bountyscan/pkg/evidence"
	"github.com/bountyscan/bountyscan/pkg/httpclient"
	"github.com/bountyscan/bountyscan/pkg/iohelper"
	"github.com/bountyscan/bountyscan/pkg/probe"
)

// Config holds engine construction options.
type Config struct {
	// Budget is the shared fixed-window request budget. Required; a nil
	// budget gets the package default so a misconfigured caller is still
	// throttled.
	Budget *budget.Budget

	// RunBudget caps total requests for the whole run. Optional; when it
	// runs out further calls fail with budget.ErrExhausted instead of
	// blocking.
	RunBudget *budget.Budget

	// Recorder persists evidence per call. Optional.
	Recorder *evidence.Recorder

	// RequestsPerSecond smooths bursts inside the budget window (0 = 10).
	RequestsPerSecond int

	// Client overrides the HTTP client. Defaults to the probing preset.
	Client *http.Client

	// UserAgent overrides the probe User-Agent header.
	UserAgent string

	// Logger receives per-call debug logging.
	Logger *slog.Logger
}

// Client is the shared probe transport.
type Client struct {
	http      *http.Client
	budget    *budget.Budget
	runBudget *budget.Budget
	limiter   *rate.Limiter
	recorder  *evidence.Recorder
	ua        string
	logger    *slog.Logger
}

// New creates a Client, filling zero-value config with defaults.
func New(cfg Config) *Client {
	if cfg.Budget == nil {
		cfg.Budget = budget.Default()
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}
	if cfg.Client == nil {
		cfg.Client = httpclient.Probing()
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		http:      cfg.Client,
		budget:    cfg.Budget,
		runBudget: cfg.RunBudget,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.RequestsPerSecond),
		recorder:  cfg.Recorder,
		ua:        cfg.UserAgent,
		logger:    cfg.Logger,
	}
}

// Get issues a GET with params merged into the URL's query string.
// Existing parameters named in params are replaced; others are kept.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values) (probe.Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return probe.Result{}, err
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			q.Del(k)
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return probe.Result{}, err
	}
	return c.do(req, flatten(params))
}

// PostForm issues an application/x-www-form-urlencoded POST.
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values) (probe.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return probe.Result{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, flatten(form))
}

func (c *Client) do(req *http.Request, payload map[string]string) (probe.Result, error) {
	ctx := req.Context()

	if c.runBudget != nil && !c.runBudget.Allow(1) {
		return probe.Result{}, budget.ErrExhausted
	}
	if err := c.budget.Acquire(ctx, 1); err != nil {
		return probe.Result{}, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return probe.Result{}, err
	}

	req.Header.Set("User-Agent", c.ua)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("probe request failed",
			slog.String("url", req.URL.String()),
			slog.String("error", err.Error()),
		)
		return probe.Result{}, err
	}
	defer iohelper.DrainAndClose(resp.Body)

	body := iohelper.ReadBodyOrLog(resp.Body, c.logger)
	result := probe.Result{
		StatusCode: resp.StatusCode,
		BodyLength: len(body),
		Body:       string(body),
		Header:     resp.Header,
	}

	if c.recorder != nil {
		_, err := c.recorder.Record(evidence.Record{
			URL:            req.URL.String(),
			Method:         req.Method,
			RequestPayload: payload,
			Response: evidence.Snapshot{
				Status:  result.StatusCode,
				Headers: headerMap(resp.Header),
				Body:    result.Body,
			},
		})
		if err != nil {
			c.logger.Warn("evidence record failed", slog.String("error", err.Error()))
		}
	}

	return result, nil
}

// IsTimeout reports whether err is a request timeout. The SSRF family
// treats a timeout as its own (weaker) signal rather than a plain failure.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func flatten(v url.Values) map[string]string {
	if len(v) == 0 {
		return nil
	}
	m := make(map[string]string, len(v))
	for k, vs := range v {
		if len(vs) > 0 {
			m[k] = vs[0]
		}
	}
	return m
}

func headerMap(h http.Header) map[string]string {
	m := make(map[string]string, len(h))
	for k := range h {
		m[k] = h.Get(k)
	}
	return m
}
