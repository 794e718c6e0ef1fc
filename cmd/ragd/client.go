// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	ragerr "github.com/sigil-dev/ragd/pkg/errors"
)

// defaultHTTPClient is used by every client command. Generation can take a
// while, hence the generous timeout. Tests swap it for an httptest client.
var defaultHTTPClient = &http.Client{
	Timeout: 2 * time.Minute,
}

// apiClient talks to a running ragd server.
type apiClient struct {
	baseURL string
	http    *http.Client
}

// newAPIClient targets the given host:port address.
func newAPIClient(addr string) *apiClient {
	return &apiClient{
		baseURL: "http://" + addr,
		http:    defaultHTTPClient,
	}
}

// addAddrFlag registers --addr on a client command.
func addAddrFlag(cmd *cobra.Command) {
	cmd.Flags().String("addr", "", "ragd server address (default: networking.listen)")
}

// clientFor resolves the server address from --addr or the listen config.
// A wildcard listen host is dialled on loopback.
func clientFor(cmd *cobra.Command) *apiClient {
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = viper.GetString("networking.listen")
	}
	if host, port, err := net.SplitHostPort(addr); err == nil && (host == "" || host == "0.0.0.0" || host == "::") {
		addr = net.JoinHostPort("127.0.0.1", port)
	}
	return newAPIClient(addr)
}

func (c *apiClient) getJSON(ctx context.Context, path string, query url.Values, dest any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return ragerr.Errorf(ragerr.CodeCLIRequestFailure, "building request: %w", err)
	}
	return c.do(req, dest)
}

func (c *apiClient) postJSON(ctx context.Context, path string, body, dest any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return ragerr.Errorf(ragerr.CodeCLIRequestFailure, "encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return ragerr.Errorf(ragerr.CodeCLIRequestFailure, "building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, dest)
}

// postFile uploads data as the multipart part named field.
func (c *apiClient) postFile(ctx context.Context, path, field, filename string, data []byte, dest any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return ragerr.Errorf(ragerr.CodeCLIRequestFailure, "building upload: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return ragerr.Errorf(ragerr.CodeCLIRequestFailure, "building upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return ragerr.Errorf(ragerr.CodeCLIRequestFailure, "building upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return ragerr.Errorf(ragerr.CodeCLIRequestFailure, "building request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, dest)
}

// problem is the subset of an RFC 9457 body the CLI reports.
type problem struct {
	Detail string `json:"detail"`
	Errors []struct {
		Location string `json:"location"`
		Value    any    `json:"value"`
	} `json:"errors"`
}

func (c *apiClient) do(req *http.Request, dest any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		if isDialError(err) {
			return ragerr.New(ragerr.CodeCLIServerNotRunning,
				fmt.Sprintf("ragd is not running at %s (connection refused)", req.URL.Host))
		}
		return ragerr.Errorf(ragerr.CodeCLIRequestFailure, "request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var p problem
		if json.Unmarshal(body, &p) == nil && p.Detail != "" {
			code := ""
			for _, e := range p.Errors {
				if e.Location == "code" {
					code, _ = e.Value.(string)
				}
			}
			return ragerr.New(ragerr.CodeCLIRequestFailure,
				fmt.Sprintf("server returned %d: %s", resp.StatusCode, p.Detail),
				ragerr.Field("server_code", code))
		}
		return ragerr.New(ragerr.CodeCLIRequestFailure,
			fmt.Sprintf("server returned %d: %s", resp.StatusCode, bytes.TrimSpace(body)))
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return ragerr.Errorf(ragerr.CodeCLIResponseInvalid, "invalid response: %w", err)
	}
	return nil
}

// isDialError reports whether err is a net dial error (connection refused, etc.).
func isDialError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}
