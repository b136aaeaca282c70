package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// ============================================================
// HTTP helpers for the REST (PostgREST) and Auth (GoTrue) APIs
// ============================================================

// doRequest executes a PostgREST call authenticated with the service role key.
// prefer is sent as the Prefer header when not empty.
func (c *Client) doRequest(ctx context.Context, method, path string, payload any, prefer string) ([]byte, error) {
	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
	return c.send(ctx, method, url, c.serviceRoleKey, payload, prefer)
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	return c.doRequest(ctx, http.MethodGet, path, nil, "")
}

func (c *Client) doPost(ctx context.Context, table string, data any) ([]byte, error) {
	return c.doRequest(ctx, http.MethodPost, table, data, "return=representation")
}

func (c *Client) doPatch(ctx context.Context, path string, data any) ([]byte, error) {
	return c.doRequest(ctx, http.MethodPatch, path, data, "return=representation")
}

func (c *Client) doDelete(ctx context.Context, path string) ([]byte, error) {
	return c.doRequest(ctx, http.MethodDelete, path, nil, "return=representation")
}

// doAuth executes a GoTrue call. bearer is the user's access token, or empty
// for anonymous endpoints (signup, token).
func (c *Client) doAuth(ctx context.Context, method, path, bearer string, payload any) ([]byte, error) {
	url := fmt.Sprintf("%s/auth/v1/%s", c.baseURL, path)
	if bearer == "" {
		bearer = c.anonKey
	}
	return c.send(ctx, method, url, bearer, payload, "")
}

func (c *Client) send(ctx context.Context, method, url, bearer string, payload any, prefer string) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		c.logger.Error("supabase: failed to create request",
			zap.String("method", method),
			zap.String("url", url),
			zap.Error(err),
		)
		return nil, err
	}

	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", "application/json")
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: request failed",
			zap.String("method", method),
			zap.String("url", url),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: non-2xx response",
			zap.String("method", method),
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, classify(&apiError{Status: resp.StatusCode, Body: string(body)})
	}

	c.logger.Debug("supabase: request OK",
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
	)
	return body, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
