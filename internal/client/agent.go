package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/vaanipro/backend/internal/config"
)

var ErrAgentUnavailable = errors.New("agent unavailable")

// upstreamStatusError marks a 5xx from the agent. The response is still
// relayed, but the breaker counts it as a failure.
type upstreamStatusError struct {
	status int
}

func (e *upstreamStatusError) Error() string {
	return fmt.Sprintf("agent returned status %d", e.status)
}

// AgentClient relays streaming search requests to the agent service.
type AgentClient struct {
	baseURL    string
	streamPath string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	log        logrus.FieldLogger
}

func NewAgentClient(cfg config.AgentConfig, log logrus.FieldLogger) *AgentClient {
	log = log.WithField("component", "agent_client")
	return &AgentClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		streamPath: cfg.StreamPath,
		httpClient: &http.Client{
			// Long searches stream for a while.
			Timeout: 120 * time.Second,
		},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "agent",
			MaxRequests: 1,
			Interval:    30 * time.Second,
			Timeout:     15 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.WithFields(logrus.Fields{"from": from.String(), "to": to.String()}).Warn("agent circuit state changed")
			},
		}),
		log: log,
	}
}

func (c *AgentClient) IsConfigured() bool {
	return c.baseURL != ""
}

// Stream forwards body to the agent on behalf of userID. The caller owns the
// returned response body.
func (c *AgentClient) Stream(ctx context.Context, userID, contentType string, body io.Reader) (*http.Response, error) {
	if !c.IsConfigured() {
		return nil, fmt.Errorf("%w: AGENT_URL is not set", ErrAgentUnavailable)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.streamPath, body)
		if err != nil {
			return nil, err
		}
		if contentType == "" {
			contentType = "application/json"
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("X-User-ID", userID)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to send request to agent: %w", err)
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, &upstreamStatusError{status: resp.StatusCode}
		}
		return resp, nil
	})

	var statusErr *upstreamStatusError
	switch {
	case err == nil:
		return result.(*http.Response), nil
	case errors.As(err, &statusErr) && result != nil:
		return result.(*http.Response), nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("%w: %v", ErrAgentUnavailable, err)
	default:
		return nil, err
	}
}
