package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultPodAPIURL is the pod management GraphQL endpoint
const DefaultPodAPIURL = "https://api.runpod.io/graphql"

// PodClient talks to the RunPod management API. All operations are single
// GraphQL requests; the client holds no connection state.
type PodClient struct {
	// BaseURL is the GraphQL endpoint
	BaseURL string
	// APIKey authenticates requests; operations fail without it
	APIKey string
	// HTTPClient issues the requests
	HTTPClient *http.Client
}

// PodClientOption configures a PodClient
type PodClientOption func(*PodClient)

// WithPodAPIURL overrides the GraphQL endpoint
func WithPodAPIURL(url string) PodClientOption {
	return func(c *PodClient) {
		c.BaseURL = url
	}
}

// WithPodHTTPClient overrides the HTTP client
func WithPodHTTPClient(hc *http.Client) PodClientOption {
	return func(c *PodClient) {
		c.HTTPClient = hc
	}
}

// NewPodClient creates a PodClient authenticated with the given API key.
func NewPodClient(apiKey string, opts ...PodClientOption) *PodClient {
	c := &PodClient{
		BaseURL:    DefaultPodAPIURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PodPort is a single exposed port mapping on a running pod.
type PodPort struct {
	PrivatePort int    `json:"privatePort"`
	PublicPort  int    `json:"publicPort"`
	Type        string `json:"type"`
}

// PodInfo is the subset of pod state the pipeline cares about.
type PodInfo struct {
	ID    string
	Name  string
	Ports []PodPort
	// Running reports whether the pod has an active runtime
	Running bool
}

const podInfoQuery = `query Pod($podId: String!) {
  pod(input: { podId: $podId }) {
    id
    name
    runtime {
      ports {
        privatePort
        publicPort
        type
      }
    }
  }
}`

const podStartMutation = `mutation StartPod($podId: String!) {
  podStart(input: { podId: $podId }) {
    id
  }
}`

const podStopMutation = `mutation StopPod($podId: String!) {
  podStop(input: { podId: $podId }) {
    id
  }
}`

// do issues one GraphQL request and decodes the data object into out.
func (c *PodClient) do(ctx context.Context, query string, vars map[string]any, out any) error {
	if c.APIKey == "" {
		return &OpError{Op: OpPod, Path: c.BaseURL, Err: ErrAPIKeyMissing}
	}

	body, err := json.Marshal(map[string]any{"query": query, "variables": vars})
	if err != nil {
		return &OpError{Op: OpPod, Path: c.BaseURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(body))
	if err != nil {
		return &OpError{Op: OpPod, Path: c.BaseURL, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &OpError{Op: OpPod, Path: c.BaseURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &OpError{Op: OpPod, Path: c.BaseURL, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return &OpError{Op: OpPod, Path: c.BaseURL,
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))}
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return &OpError{Op: OpPod, Path: c.BaseURL, Err: err}
	}
	if len(envelope.Errors) > 0 {
		return &OpError{Op: OpPod, Path: c.BaseURL,
			Err: fmt.Errorf("api error: %s", envelope.Errors[0].Message)}
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return &OpError{Op: OpPod, Path: c.BaseURL, Err: err}
		}
	}
	return nil
}

// Info fetches the pod's current state.
func (c *PodClient) Info(ctx context.Context, podID string) (PodInfo, error) {
	var data struct {
		Pod *struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Runtime *struct {
				Ports []PodPort `json:"ports"`
			} `json:"runtime"`
		} `json:"pod"`
	}
	if err := c.do(ctx, podInfoQuery, map[string]any{"podId": podID}, &data); err != nil {
		return PodInfo{}, err
	}
	if data.Pod == nil {
		return PodInfo{}, &OpError{Op: OpPod, Path: podID, Err: fmt.Errorf("pod not found")}
	}

	info := PodInfo{ID: data.Pod.ID, Name: data.Pod.Name}
	if data.Pod.Runtime != nil {
		info.Running = true
		info.Ports = data.Pod.Runtime.Ports
	}
	return info, nil
}

// Start resumes a stopped pod.
func (c *PodClient) Start(ctx context.Context, podID string) error {
	return c.do(ctx, podStartMutation, map[string]any{"podId": podID}, nil)
}

// Stop halts a running pod. The pod's volume persists; only compute stops.
func (c *PodClient) Stop(ctx context.Context, podID string) error {
	return c.do(ctx, podStopMutation, map[string]any{"podId": podID}, nil)
}

// WaitReady polls pod state until the pod has a runtime and the optional
// reachability probe succeeds. The 10-second interval matches how long a
// pod typically takes to move between lifecycle states.
func (c *PodClient) WaitReady(ctx context.Context, podID string, probe func(ctx context.Context) error) error {
	const interval = 10 * time.Second

	for {
		info, err := c.Info(ctx, podID)
		if err == nil && info.Running {
			if probe == nil {
				return nil
			}
			if probeErr := probe(ctx); probeErr == nil {
				return nil
			}
		}

		if err := sleepCtx(ctx, interval); err != nil {
			return &OpError{Op: OpPod, Path: podID, Err: err}
		}
	}
}
