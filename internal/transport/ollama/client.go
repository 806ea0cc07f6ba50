package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	generatePath = "/api/generate"
	tagsPath     = "/api/tags"

	defaultTimeout = 30 * time.Second
)

var (
	ErrTimeout     = errors.New("model request timed out")
	ErrUnavailable = errors.New("model server unavailable")
	ErrBadResponse = errors.New("unexpected model server response")
)

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Client talks to an Ollama compatible model server.
type Client struct {
	logger *slog.Logger

	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

func New(logger *slog.Logger, baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		logger:     logger.With("component", "ollama"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

// Generate sends a non-streaming prompt to model and returns the generated text.
// Every call is bounded by the client timeout.
func (that *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Model: model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", fmt.Errorf("failed to marshal generate request: %w", err)
	}

	var response generateResponse
	if err = that.do(ctx, http.MethodPost, generatePath, bytes.NewReader(body), &response); err != nil {
		that.logger.Warn("generate failed", "model", model, "error", err)
		return "", err
	}

	return response.Response, nil
}

// ListModels returns the identifiers of the installed models.
func (that *Client) ListModels(ctx context.Context) ([]string, error) {
	var response tagsResponse
	if err := that.do(ctx, http.MethodGet, tagsPath, nil, &response); err != nil {
		return nil, err
	}

	models := make([]string, 0, len(response.Models))
	for _, model := range response.Models {
		models = append(models, model.Name)
	}

	return models, nil
}

func (that *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	ctx, cancel := context.WithTimeout(ctx, that.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, that.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := that.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s", ErrTimeout, that.timeout)
		}
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrBadResponse, resp.StatusCode)
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s", ErrTimeout, that.timeout)
		}
		return fmt.Errorf("%w: %w", ErrBadResponse, err)
	}

	return nil
}
