// Copyright (c) 2016-2019 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package httputil

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"io/ioutil"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff"
)

// StatusError occurs if an HTTP response has an unexpected status code.
type StatusError struct {
	Method       string
	URL          string
	Status       int
	Header       http.Header
	ResponseDump string
}

// NewStatusError returns a new StatusError.
func NewStatusError(resp *http.Response) StatusError {
	defer resp.Body.Close()
	respBytes, err := ioutil.ReadAll(io.LimitReader(resp.Body, 1024))
	respDump := string(respBytes)
	if err != nil {
		respDump = fmt.Sprintf("failed to dump response: %s", err)
	}
	return StatusError{
		Method:       resp.Request.Method,
		URL:          resp.Request.URL.String(),
		Status:       resp.StatusCode,
		Header:       resp.Header,
		ResponseDump: respDump,
	}
}

func (e StatusError) Error() string {
	if e.ResponseDump == "" {
		return fmt.Sprintf("%s %s %d", e.Method, e.URL, e.Status)
	}
	return fmt.Sprintf("%s %s %d: %s", e.Method, e.URL, e.Status, e.ResponseDump)
}

// IsStatus returns true if err is a StatusError of the given status.
func IsStatus(err error, status int) bool {
	statusErr, ok := err.(StatusError)
	return ok && statusErr.Status == status
}

// IsNotFound returns true if err is a "not found" StatusError.
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}

// IsRetryable returns true if err is a StatusError which may succeed when the
// request is repeated, i.e. a 5xx or 429 status.
func IsRetryable(err error) bool {
	statusErr, ok := err.(StatusError)
	return ok && (statusErr.Status >= 500 || statusErr.Status == http.StatusTooManyRequests)
}

// NetworkError occurs on any Send error which occurred while trying to send
// the HTTP request, e.g. the given host is unresponsive.
type NetworkError struct {
	err error
}

func (e NetworkError) Error() string {
	return fmt.Sprintf("network error: %s", e.err)
}

// Unwrap returns the underlying transport error.
func (e NetworkError) Unwrap() error {
	return e.err
}

// IsNetworkError returns true if err is a NetworkError.
func IsNetworkError(err error) bool {
	_, ok := err.(NetworkError)
	return ok
}

// ClientConfig defines the transport settings shared by every request of a
// client.
type ClientConfig struct {
	// Timeout bounds connecting and waiting for response headers. Bodies are
	// not bounded by it, since blobs may be many gigabytes.
	Timeout            time.Duration
	InsecureSkipVerify bool
	UserAgent          string
}

// NewClient builds an http.Client from config.
func NewClient(config ClientConfig) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if config.Timeout > 0 {
		transport.DialContext = (&net.Dialer{
			Timeout:   config.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext
		transport.TLSHandshakeTimeout = config.Timeout
		transport.ResponseHeaderTimeout = config.Timeout
	}
	if config.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	var rt http.RoundTripper = transport
	if config.UserAgent != "" {
		rt = userAgentTransport{config.UserAgent, transport}
	}
	return &http.Client{Transport: rt}
}

type userAgentTransport struct {
	agent string
	next  http.RoundTripper
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.agent)
	return t.next.RoundTrip(req)
}

type sendOptions struct {
	ctx           context.Context
	client        *http.Client
	timeout       time.Duration
	acceptedCodes map[int]bool
	headers       map[string]string
	retry         backoff.BackOff
}

// SendOption allows overriding defaults for the Send function.
type SendOption func(*sendOptions)

// SendContext sets the context of the request.
func SendContext(ctx context.Context) SendOption {
	return func(o *sendOptions) { o.ctx = ctx }
}

// SendClient sends the request through c instead of http.DefaultClient.
func SendClient(c *http.Client) SendOption {
	return func(o *sendOptions) { o.client = c }
}

// SendTimeout bounds the whole request, including reading the body.
func SendTimeout(timeout time.Duration) SendOption {
	return func(o *sendOptions) { o.timeout = timeout }
}

// SendHeaders specifies headers for http request
func SendHeaders(headers map[string]string) SendOption {
	return func(o *sendOptions) { o.headers = headers }
}

// SendAcceptedCodes specifies accepted codes for http request. By default any
// 2xx status is accepted.
func SendAcceptedCodes(codes ...int) SendOption {
	m := make(map[int]bool)
	for _, c := range codes {
		m[c] = true
	}
	return func(o *sendOptions) { o.acceptedCodes = m }
}

// SendRetry repeats the request according to b while it fails with a
// NetworkError or a retryable StatusError.
func SendRetry(b backoff.BackOff) SendOption {
	return func(o *sendOptions) { o.retry = b }
}

// Send sends an HTTP request. A StatusError is returned for unaccepted status
// codes and a NetworkError for transport failures. On success the caller owns
// resp.Body.
func Send(method, url string, options ...SendOption) (*http.Response, error) {
	opts := &sendOptions{
		ctx:     context.Background(),
		client:  http.DefaultClient,
		headers: map[string]string{},
	}
	for _, o := range options {
		o(opts)
	}

	client := opts.client
	if opts.timeout > 0 {
		c := *client
		c.Timeout = opts.timeout
		client = &c
	}

	if opts.retry == nil {
		return send(client, method, url, opts)
	}
	var resp *http.Response
	err := backoff.Retry(func() error {
		var err error
		resp, err = send(client, method, url, opts)
		if err != nil && !IsNetworkError(err) && !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(opts.retry, opts.ctx))
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func send(client *http.Client, method, url string, opts *sendOptions) (*http.Response, error) {
	req, err := http.NewRequestWithContext(opts.ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %s", err)
	}
	for key, val := range opts.headers {
		req.Header.Set(key, val)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, NetworkError{err}
	}
	if !accepted(opts.acceptedCodes, resp.StatusCode) {
		return nil, NewStatusError(resp)
	}
	return resp, nil
}

func accepted(codes map[int]bool, status int) bool {
	if len(codes) == 0 {
		return status >= 200 && status < 300
	}
	return codes[status]
}

// Get sends a GET http request.
func Get(url string, options ...SendOption) (*http.Response, error) {
	return Send("GET", url, options...)
}

// Head sends a HEAD http request.
func Head(url string, options ...SendOption) (*http.Response, error) {
	return Send("HEAD", url, options...)
}
