package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/nijaru/yt-summary/errors"
	"github.com/pkg/errors"
)

const maxRelayResponse = 1 << 20

type relayCaller struct {
	baseURL    string
	httpClient *http.Client
}

func newRelayCaller(baseURL string) *relayCaller {
	return &relayCaller{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
}

// call POSTs payload to the relay endpoint and decodes the JSON reply into
// out. Every failure reads "Backend API error: ...".
func (r *relayCaller) call(ctx context.Context, apiKey, endpoint string, payload, out interface{}) error {
	err := r.do(ctx, apiKey, endpoint, payload, out)
	if err != nil {
		return errors.Wrap(err, "Backend API error")
	}
	return nil
}

func (r *relayCaller) do(ctx context.Context, apiKey, endpoint string, payload, out interface{}) error {
	op := "client.relay." + endpoint

	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Internal(op, err, "failed to encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/"+endpoint, bytes.NewReader(body))
	if err != nil {
		return apperrors.Internal(op, err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return apperrors.Upstream(op, err, "API call failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRelayResponse))
	if err != nil {
		return apperrors.Upstream(op, err, "API call failed")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := fmt.Sprintf("API call failed: %s", http.StatusText(resp.StatusCode))
		var relayErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &relayErr) == nil && relayErr.Error != "" {
			msg += ": " + relayErr.Error
		}
		appErr := apperrors.Upstream(op, nil, msg)
		if resp.StatusCode == http.StatusUnauthorized {
			appErr = apperrors.Unauthorized(op, msg)
		}
		return appErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.Upstream(op, err, "invalid response from relay")
	}
	return nil
}
