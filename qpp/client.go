// Copyright 2019 - 2025 The Samply Community
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

// Package qpp is a client of the QPP submission validation API. Converted
// documents can be checked against it before they are submitted.
package qpp

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
)

// A Client combines an HTTP client with the URL of the submission validation
// endpoint.
type Client struct {
	httpClient http.Client
	baseURL    url.URL
	auth       Auth
}

// Auth sets the credentials of a request.
type Auth interface {
	setAuth(req *http.Request)
}

// BasicAuth authenticates with user and password.
type BasicAuth struct {
	User     string
	Password string
}

func (a BasicAuth) setAuth(req *http.Request) {
	req.SetBasicAuth(a.User, a.Password)
}

// TokenAuth authenticates with a bearer token.
type TokenAuth struct {
	Token string
}

func (a TokenAuth) setAuth(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+a.Token)
}

// NewClient creates a new Client with the given endpoint URL and Auth. A nil
// Auth sends no credentials.
func NewClient(baseURL url.URL, auth Auth) *Client {
	return createClient(baseURL, auth, false, nil)
}

// NewClientInsecure creates a new Client as NewClient does but disables TLS
// certificate verification. Use it with great caution.
func NewClientInsecure(baseURL url.URL, auth Auth) *Client {
	return createClient(baseURL, auth, true, nil)
}

// NewClientCa creates a new Client trusting the certificate authority in the
// PEM file at caCertFile in addition to the system roots.
func NewClientCa(baseURL url.URL, auth Auth, caCertFile string) (*Client, error) {
	pem, err := os.ReadFile(caCertFile)
	if err != nil {
		return nil, fmt.Errorf("error while reading the certificate authority file: %w", err)
	}
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificate found in %s", caCertFile)
	}
	return createClient(baseURL, auth, false, pool), nil
}

func createClient(baseURL url.URL, auth Auth, insecure bool, rootCAs *x509.CertPool) *Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxConnsPerHost = 100
	t.MaxIdleConnsPerHost = 100
	if t.TLSClientConfig == nil {
		t.TLSClientConfig = &tls.Config{}
	}
	t.TLSClientConfig.InsecureSkipVerify = insecure
	t.TLSClientConfig.RootCAs = rootCAs

	return &Client{
		httpClient: http.Client{Transport: t},
		baseURL:    baseURL,
		auth:       auth,
	}
}

const mediaTypeJSON = "application/json"

// NewValidationRequest creates a request posting the QPP JSON submission read
// from body to the validation endpoint.
func (c *Client) NewValidationRequest(ctx context.Context, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("error while creating a validation request: %w", err)
	}
	req.Header.Add("Accept", mediaTypeJSON)
	req.Header.Add("Content-Type", mediaTypeJSON)
	return req, nil
}

// Do calls Do on the HTTP client after setting the credentials.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.auth != nil {
		c.auth.setAuth(req)
	}
	return c.httpClient.Do(req)
}

// CloseIdleConnections calls CloseIdleConnections on the HTTP client.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// RejectedError is returned by ValidateSubmission if the service rejected
// the submission. Body holds the error document of the service.
type RejectedError struct {
	StatusCode int
	Body       []byte
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("submission rejected with status %d", e.StatusCode)
}

// ValidateSubmission posts submission to the validation endpoint. It returns
// a *RejectedError if the service answers with a client error status.
func (c *Client) ValidateSubmission(ctx context.Context, submission []byte) error {
	req, err := c.NewValidationRequest(ctx, bytes.NewReader(submission))
	if err != nil {
		return err
	}
	resp, err := c.Do(req)
	if err != nil {
		return fmt.Errorf("error while validating the submission: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error while reading the validation response: %w", err)
	}
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &RejectedError{StatusCode: resp.StatusCode, Body: body}
	default:
		return fmt.Errorf("unexpected status %d from the validation service", resp.StatusCode)
	}
}
