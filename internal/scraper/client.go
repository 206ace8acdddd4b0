// Package scraper fetches LPNU student schedule pages.
//
// Requests go either directly to the schedule site, with browser-like headers
// and a jittered delay, or through a rendering scraping proxy when an API key
// is configured. Redirect loops and challenge pages are reported as anti-bot
// blocks, distinct from ordinary network failures.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/corpix/uarand"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	domerrors "github.com/garyellow/lpnu-schedule-bot/internal/errors"
)

// Defaults for ClientConfig zero values.
const (
	DefaultBaseURL       = "https://student.lpnu.ua"
	DefaultProxyEndpoint = "https://api.scraperapi.com/"
	DefaultMaxRedirects  = 10
	DefaultMaxBodyBytes  = 4 << 20
	DefaultTimeout       = 30 * time.Second

	schedulePath = "/students_schedule"
)

// errRedirectLoop is returned from CheckRedirect and surfaces wrapped in *url.Error.
var errRedirectLoop = errors.New("redirect loop")

// challengeMarkers identify anti-bot interstitials served instead of the page.
// Only challenge markup counts: a normal page may still name its CDN.
var challengeMarkers = []string{
	"cf-challenge",
	"cf-browser-verification",
	"cf-turnstile",
	"<title>just a moment...</title>",
	"attention required! | cloudflare",
	"/.well-known/ddos-guard/js-challenge",
	"/.well-known/ddos-guard/check",
}

// Request identifies one schedule page.
type Request struct {
	Group    string
	Semester int
	TermHalf int
}

// Values returns the query parameters the schedule view expects.
func (r Request) Values() url.Values {
	v := url.Values{}
	v.Set("studygroup_abbrname", r.Group)
	v.Set("semestr", strconv.Itoa(r.Semester))
	v.Set("semestrduration", strconv.Itoa(r.TermHalf))
	return v
}

// RawDocument is a fetched page with its body decoded to UTF-8.
type RawDocument struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
	ViaProxy    bool
}

// Recorder receives fetch metrics. *metrics.Metrics implements it.
type Recorder interface {
	RecordScraperRequest(mode, status string, duration float64)
}

// ClientConfig configures a Client. Zero values fall back to the defaults.
type ClientConfig struct {
	BaseURL  string
	Timeout  time.Duration
	MinDelay time.Duration // jitter window before direct requests
	MaxDelay time.Duration

	// ProxyAPIKey enables the rendering proxy. Empty means direct fetching.
	ProxyAPIKey   string
	ProxyEndpoint string

	MaxRedirects int
	MaxBodyBytes int64
	Metrics      Recorder
}

// Client fetches schedule pages. It is safe for concurrent use.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	minDelay      time.Duration
	maxDelay      time.Duration
	proxyAPIKey   string
	proxyEndpoint string
	maxRedirects  int
	maxBodyBytes  int64
	metrics       Recorder
	flight        *CacheWrapper
}

// NewClient creates a schedule page client.
func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		minDelay:      cfg.MinDelay,
		maxDelay:      cfg.MaxDelay,
		proxyAPIKey:   cfg.ProxyAPIKey,
		proxyEndpoint: cfg.ProxyEndpoint,
		maxRedirects:  cfg.MaxRedirects,
		maxBodyBytes:  cfg.MaxBodyBytes,
		metrics:       cfg.Metrics,
		flight:        NewCacheWrapper(),
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.proxyEndpoint == "" {
		c.proxyEndpoint = DefaultProxyEndpoint
	}
	if c.maxRedirects <= 0 {
		c.maxRedirects = DefaultMaxRedirects
	}
	if c.maxBodyBytes <= 0 {
		c.maxBodyBytes = DefaultMaxBodyBytes
	}
	if c.maxDelay < c.minDelay {
		c.maxDelay = c.minDelay
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	jar, _ := cookiejar.New(nil)
	c.httpClient = &http.Client{
		Timeout: timeout,
		Jar:     jar,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
		},
		CheckRedirect: c.checkRedirect,
	}
	return c
}

// ProxyEnabled reports whether requests go through the rendering proxy.
func (c *Client) ProxyEnabled() bool {
	return c.proxyAPIKey != ""
}

// TargetURL returns the schedule page URL for a request.
func (c *Client) TargetURL(r Request) string {
	return c.baseURL + schedulePath + "?" + r.Values().Encode()
}

// Fetch loads the schedule page. Concurrent calls for the same request share
// one HTTP round trip. Failures are *errors.FetchError values unwrapping to
// ErrNetwork or ErrAntiBot.
func (c *Client) Fetch(ctx context.Context, r Request) (*RawDocument, error) {
	target := c.TargetURL(r)
	return c.flight.Do(ctx, target, func(ctx context.Context) (*RawDocument, error) {
		return c.fetch(ctx, target)
	})
}

func (c *Client) fetch(ctx context.Context, target string) (*RawDocument, error) {
	mode := "direct"
	if c.ProxyEnabled() {
		mode = "proxy"
	}
	start := time.Now()
	doc, err := c.do(ctx, target)
	c.record(mode, err, time.Since(start))
	return doc, err
}

func (c *Client) do(ctx context.Context, target string) (*RawDocument, error) {
	viaProxy := c.ProxyEnabled()
	requestURL := target
	if viaProxy {
		requestURL = c.proxyURL(target)
	} else if err := Sleep(ctx, c.jitter()); err != nil {
		return nil, domerrors.NewFetchError(target, 0, false, domerrors.ErrNetwork, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, domerrors.NewFetchError(target, 0, viaProxy, domerrors.ErrNetwork, err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = redactURL(err, target)
		if errors.Is(err, errRedirectLoop) {
			return nil, domerrors.NewFetchError(target, 0, viaProxy, domerrors.ErrAntiBot, err)
		}
		return nil, domerrors.NewFetchError(target, 0, viaProxy, domerrors.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := c.readBody(resp)
	if err != nil {
		return nil, domerrors.NewFetchError(target, resp.StatusCode, viaProxy, domerrors.ErrNetwork, err)
	}

	if isChallenge(body) {
		return nil, domerrors.NewFetchError(target, resp.StatusCode, viaProxy, domerrors.ErrAntiBot,
			errors.New("challenge page served"))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, domerrors.NewFetchError(target, resp.StatusCode, viaProxy, domerrors.ErrNetwork,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	return &RawDocument{
		URL:         target,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		ViaProxy:    viaProxy,
	}, nil
}

// proxyURL wraps the target for the scraping proxy with JS rendering on.
func (c *Client) proxyURL(target string) string {
	v := url.Values{}
	v.Set("api_key", c.proxyAPIKey)
	v.Set("url", target)
	v.Set("render", "true")
	sep := "?"
	if strings.Contains(c.proxyEndpoint, "?") {
		sep = "&"
	}
	return c.proxyEndpoint + sep + v.Encode()
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", randomUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "uk-UA,uk;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Referer", c.baseURL+schedulePath)
}

// checkRedirect stops after maxRedirects hops or when a hop visits the same
// URL a third time. One revisit is the site's cookie handshake.
func (c *Client) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= c.maxRedirects {
		return fmt.Errorf("%w: %d redirects", errRedirectLoop, len(via))
	}
	next := req.URL.String()
	seen := 0
	for _, prev := range via {
		if prev.URL.String() == next {
			seen++
		}
	}
	if seen >= 2 {
		return fmt.Errorf("%w: revisited %s", errRedirectLoop, stripAPIKey(req.URL))
	}
	return nil
}

// redactURL swaps the request URL in a transport error for the schedule page
// URL. In proxy mode the request URL carries the API key.
func redactURL(err error, target string) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	return &url.Error{Op: ue.Op, URL: target, Err: ue.Err}
}

func stripAPIKey(u *url.URL) string {
	q := u.Query()
	if !q.Has("api_key") {
		return u.String()
	}
	q.Del("api_key")
	clean := *u
	clean.RawQuery = q.Encode()
	return clean.String()
}

// readBody decompresses, bounds and transcodes the response body.
func (c *Client) readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress gzip: %w", err)
		}
		defer func() { _ = gz.Close() }()
		reader = gz
	}

	if isWindows1251(resp.Header.Get("Content-Type")) {
		reader = transform.NewReader(reader, charmap.Windows1251.NewDecoder())
	}

	body, err := io.ReadAll(io.LimitReader(reader, c.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, fmt.Errorf("response body exceeds %d bytes", c.maxBodyBytes)
	}
	return body, nil
}

func isWindows1251(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "windows-1251") || strings.Contains(ct, "cp1251")
}

func isChallenge(body []byte) bool {
	head := body
	if len(head) > 64<<10 {
		head = head[:64<<10]
	}
	lower := strings.ToLower(string(head))
	for _, m := range challengeMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// jitter returns a random delay in [minDelay, maxDelay].
func (c *Client) jitter() time.Duration {
	if c.maxDelay <= c.minDelay {
		return c.minDelay
	}
	return c.minDelay + rand.N(c.maxDelay-c.minDelay+1)
}

func (c *Client) record(mode string, err error, d time.Duration) {
	if c.metrics == nil {
		return
	}
	status := "success"
	switch {
	case err == nil:
	case domerrors.IsAntiBot(err):
		status = "anti_bot"
	case errors.Is(err, context.DeadlineExceeded):
		status = "timeout"
	default:
		status = "error"
	}
	c.metrics.RecordScraperRequest(mode, status, d.Seconds())
}

// desktopUserAgents backs up uarand when it yields a mobile or bot agent.
var desktopUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:133.0) Gecko/20100101 Firefox/133.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
}

func randomUserAgent() string {
	ua := uarand.GetRandom()
	if isDesktopAgent(ua) {
		return ua
	}
	return desktopUserAgents[rand.IntN(len(desktopUserAgents))]
}

func isDesktopAgent(ua string) bool {
	if strings.Contains(ua, "Mobile") || strings.Contains(ua, "Android") {
		return false
	}
	return strings.Contains(ua, "Windows NT") || strings.Contains(ua, "Macintosh") || strings.Contains(ua, "X11")
}
