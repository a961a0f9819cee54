package optimizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/codeyogi-ai/backend/internal/model"
)

// checkRequest is the wire body for POST /repos/check-and-optimize.
type checkRequest struct {
	RepoURL      string `json:"repo_url"`
	LastKnownSHA string `json:"last_known_sha"`
	GithubToken  string `json:"github_token"`
}

// Client talks to the external optimizer backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CheckAndOptimize asks the backend whether the repository has a new commit
// since lastKnownSHA, and whether that triggered a pull request.
func (c *Client) CheckAndOptimize(ctx context.Context, repoURL, lastKnownSHA, githubToken string) (*model.CheckResult, error) {
	body, err := json.Marshal(checkRequest{
		RepoURL:      repoURL,
		LastKnownSHA: lastKnownSHA,
		GithubToken:  githubToken,
	})
	if err != nil {
		return nil, fmt.Errorf("encode check request: %w", err)
	}

	url := fmt.Sprintf("%s/repos/check-and-optimize", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create check request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("check repository: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("check-and-optimize returned status %d", resp.StatusCode)
	}

	var result model.CheckResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode check response: %w", err)
	}
	return &result, nil
}
