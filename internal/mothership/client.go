package mothership

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/nao1215/usercrawl/internal/model"
)

// Endpoint paths relative to the base URL.
const (
	resultsPath = "/results"
	healthPath  = "/health"
)

// DefaultTimeout bounds each request when no HTTP client is supplied.
const DefaultTimeout = 30 * time.Second

var (
	// ErrUnreachable is returned when the mothership cannot be reached:
	// connection refused, DNS failure, timeout, or cancellation.
	ErrUnreachable = errors.New("mothership unreachable")

	// ErrRejected is returned when the mothership answers with a non-2xx status.
	ErrRejected = errors.New("mothership rejected submission")

	// ErrInvalidAck is returned when a 2xx acknowledgement body cannot be decoded.
	ErrInvalidAck = errors.New("mothership sent an unreadable acknowledgement")
)

// submission is the request body of a result submission.
type submission struct {
	Worker  string          `json:"worker"`
	Results []model.Triplet `json:"results"`
}

// rejection is the optional error body of a non-2xx response.
type rejection struct {
	Error string `json:"error"`
}

// Client submits results to one mothership.
type Client struct {
	rest    *resty.Client
	baseURL string
}

type options struct {
	token      string
	userAgent  string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*options)

// WithToken sends token as a bearer token on every request.
func WithToken(token string) Option {
	return func(o *options) {
		o.token = token
	}
}

// WithHTTPClient makes requests through hc, keeping its transport and
// timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// NewClient creates a Client for baseURL. Without WithHTTPClient each
// request is bounded by DefaultTimeout.
func NewClient(baseURL string, opts ...Option) *Client {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var rest *resty.Client
	if o.httpClient != nil {
		rest = resty.NewWithClient(o.httpClient)
	} else {
		rest = resty.New().SetTimeout(DefaultTimeout)
	}

	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	rest.SetBaseURL(baseURL).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	if o.token != "" {
		rest.SetAuthToken(o.token)
	}
	if o.userAgent != "" {
		rest.SetHeader("User-Agent", o.userAgent)
	}

	return &Client{rest: rest, baseURL: baseURL}
}

// BaseURL returns the mothership base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Submit posts results on behalf of worker.
//
// When the mothership answers 2xx without an acknowledgement body, the
// returned Ack counts every submitted triplet as accepted.
func (c *Client) Submit(ctx context.Context, worker string, results []model.Triplet) (*model.Ack, error) {
	if results == nil {
		results = []model.Triplet{}
	}

	var ack model.Ack
	var rej rejection
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(submission{Worker: worker, Results: results}).
		SetResult(&ack).
		SetError(&rej).
		Post(resultsPath)
	if err != nil && !answered(resp) {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreachable, c.baseURL, err)
	}
	if !resp.IsSuccess() {
		return nil, rejectedError(resp, rej.Error)
	}
	// resty reports a result decoding failure together with the response.
	if err != nil && len(resp.Body()) > 0 {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidAck, c.baseURL, err)
	}

	if len(resp.Body()) == 0 {
		ack.Accepted = len(results)
	}
	return &ack, nil
}

// Ping checks that the mothership answers GET <base>/health with 2xx.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.rest.R().SetContext(ctx).Get(healthPath)
	if err != nil && !answered(resp) {
		return fmt.Errorf("%w: %s: %w", ErrUnreachable, c.baseURL, err)
	}
	if !resp.IsSuccess() {
		return rejectedError(resp, "")
	}
	return nil
}

// answered reports whether resp carries an HTTP response from the server.
func answered(resp *resty.Response) bool {
	return resp != nil && resp.RawResponse != nil
}

func rejectedError(resp *resty.Response, reason string) error {
	if reason == "" {
		reason = strings.TrimSpace(resp.String())
	}
	if len(reason) > 200 {
		reason = reason[:200]
	}
	if reason == "" {
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode())
	}
	return fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode(), reason)
}
