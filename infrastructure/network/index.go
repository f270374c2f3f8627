package network

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// NetworkController is a thin JSON-over-HTTP client for the pipeline's
// external collaborators (face engine, license marketplace).
type NetworkController struct {
	BaseUrl string
	Client  *http.Client
}

func (n *NetworkController) httpClient() *http.Client {
	if n.Client == nil {
		n.Client = &http.Client{Timeout: 30 * time.Second}
	}
	return n.Client
}

func (n *NetworkController) Post(ctx context.Context, path string, headers map[string]string, body any) (*[]byte, *int, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, fmt.Errorf("error encoding request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.BaseUrl+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	res, err := n.httpClient().Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &res.StatusCode, err
	}
	return &payload, &res.StatusCode, nil
}

func (n *NetworkController) Get(ctx context.Context, path string, headers map[string]string) (*[]byte, *int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.BaseUrl+path, nil)
	if err != nil {
		return nil, nil, err
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	res, err := n.httpClient().Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &res.StatusCode, err
	}
	return &payload, &res.StatusCode, nil
}
