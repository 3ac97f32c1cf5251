// Copyright 2024 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package antelope

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/ledgerwatch/log/v3"
	"golang.org/x/time/rate"
)

var (
	ErrUnavailable = errors.New("antelope: endpoint unavailable")
	ErrDecode      = errors.New("antelope: malformed response")
)

// APIError is a non-2xx answer of the chain API.
type APIError struct {
	StatusCode int
	Path       string
	Name       string
	What       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("antelope: %s: status %d: %s: %s", e.Path, e.StatusCode, e.Name, e.What)
}

const (
	getInfoPath      = "/v1/chain/get_info"
	getTableRowsPath = "/v1/chain/get_table_rows"

	DefaultMaxRetries     = 5
	DefaultRetryWaitMin   = time.Second
	DefaultRetryWaitMax   = 30 * time.Second
	DefaultRequestTimeout = time.Minute
)

type ClientOption func(*clientOptions)

type clientOptions struct {
	httpClient     *http.Client
	maxRetries     int
	retryWaitMin   time.Duration
	retryWaitMax   time.Duration
	requestTimeout time.Duration
	rateLimit      rate.Limit
	rateBurst      int
}

func WithHttpClient(httpClient *http.Client) ClientOption {
	return func(o *clientOptions) {
		o.httpClient = httpClient
	}
}

func WithHttpMaxRetries(retries int) ClientOption {
	return func(o *clientOptions) {
		o.maxRetries = retries
	}
}

func WithHttpRetryWait(minWait, maxWait time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.retryWaitMin = minWait
		o.retryWaitMax = maxWait
	}
}

func WithHttpRequestTimeout(timeout time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.requestTimeout = timeout
	}
}

// WithRateLimit bounds the requests per second sent to the endpoint.
func WithRateLimit(requestsPerSecond float64, burst int) ClientOption {
	return func(o *clientOptions) {
		o.rateLimit = rate.Limit(requestsPerSecond)
		o.rateBurst = max(burst, 1)
	}
}

// Client talks to the chain API of a nodeos instance. Transport errors and
// 5xx answers are retried with exponential backoff.
type Client struct {
	UrlString string
	Logger    log.Logger

	http    *retryablehttp.Client
	limiter *rate.Limiter
}

func NewClient(urlString string, logger log.Logger, opts ...ClientOption) *Client {
	o := &clientOptions{
		maxRetries:     DefaultMaxRetries,
		retryWaitMin:   DefaultRetryWaitMin,
		retryWaitMax:   DefaultRetryWaitMax,
		requestTimeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	if logger == nil {
		logger = log.Root()
	}

	rc := retryablehttp.NewClient()
	if o.httpClient != nil {
		// the caller keeps its client untouched
		hc := *o.httpClient
		rc.HTTPClient = &hc
	}
	rc.HTTPClient.Timeout = o.requestTimeout
	rc.RetryMax = o.maxRetries
	rc.RetryWaitMin = o.retryWaitMin
	rc.RetryWaitMax = o.retryWaitMax
	rc.Logger = logger
	// hand the last response back instead of a generic "giving up" error
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{
		UrlString: strings.TrimRight(urlString, "/"),
		Logger:    logger,
		http:      rc,
	}
	if o.rateLimit > 0 {
		c.limiter = rate.NewLimiter(o.rateLimit, o.rateBurst)
	}
	return c
}

func (c *Client) GetInfo(ctx context.Context) (*Info, error) {
	var info Info
	ctx = withRequestType(ctx, getInfoRequest)
	if err := c.post(ctx, getInfoPath, struct{}{}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) GetTableRows(ctx context.Context, req TableRowsRequest) (*TableRowsResponse, error) {
	var resp TableRowsResponse
	ctx = withRequestType(ctx, getTableRowsRequest)
	c.Logger.Trace("[antelope] fetching table rows", "code", req.Code, "scope", req.Scope, "table", req.Table, "lowerBound", req.LowerBound)
	if err := c.post(ctx, getTableRowsPath, req, &resp); err != nil {
		return nil, err
	}
	rowsFetched.Add(len(resp.Rows))
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) (err error) {
	start := time.Now()
	defer func() {
		sendMetrics(ctx, start, err == nil)
	}()

	endpoint, err := url.JoinPath(c.UrlString, path)
	if err != nil {
		return fmt.Errorf("antelope: invalid endpoint %q: %w", c.UrlString, err)
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, path, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %w", ErrUnavailable, apiError(resp.StatusCode, path, data))
	}
	if resp.StatusCode != http.StatusOK {
		return apiError(resp.StatusCode, path, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	return nil
}

func apiError(status int, path string, data []byte) *APIError {
	e := &APIError{StatusCode: status, Path: path}
	var body apiErrorBody
	if err := json.Unmarshal(data, &body); err == nil {
		e.Name, e.What = body.Error.Name, body.Error.What
		if e.What == "" {
			e.What = body.Message
		}
	}
	if e.What == "" {
		e.What = http.StatusText(status)
	}
	return e
}
