package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/errors"
)

// remoteError accepts the two error shapes payment gateways commonly use:
// {"error":{"code","message"}} and {"error":{"code","description"}}.
type remoteError struct {
	Error *struct {
		Code        string `json:"code"`
		Message     string `json:"message"`
		Description string `json:"description"`
	} `json:"error"`
}

// ParseResponseError consumes a non-2xx response and maps it to an AppError
// so callers can branch on errors.Is with the usual sentinels.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned %d (read body: %w)", service, resp.StatusCode, err)
	}

	msg := string(bytes.TrimSpace(body))
	var remote remoteError
	if json.Unmarshal(body, &remote) == nil && remote.Error != nil {
		msg = remote.Error.Message
		if msg == "" {
			msg = remote.Error.Description
		}
	}
	qualified := fmt.Sprintf("%s: %s", service, msg)

	switch status := resp.StatusCode; {
	case status == http.StatusNotFound:
		return apperrors.NotFound(service+" resource", msg)
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return apperrors.PaymentFailed(qualified)
	case status == http.StatusConflict:
		return apperrors.Conflict(qualified)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		// Our credentials were rejected: an operator problem, not the caller's.
		return apperrors.Internal(fmt.Errorf("%s rejected credentials: %s", service, msg))
	case status == http.StatusTooManyRequests, status >= 500:
		return apperrors.Unavailable(service, fmt.Errorf("status %d: %s", status, msg))
	default:
		return fmt.Errorf("%s returned unexpected status %d: %s", service, status, msg)
	}
}

// DoJSON sends in (when non-nil) as a JSON body and decodes a 2xx response
// into out (when non-nil). Non-2xx responses go through ParseResponseError.
func DoJSON(ctx context.Context, d Doer, method, url string, header http.Header, in, out any, service string) error {
	var body io.Reader
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("marshal %s request: %w", service, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", service, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := d.Do(ctx, req)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ParseResponseError(resp, service)
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", service, err)
	}
	return nil
}
