package applications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/collabsuite/marketplace_layer/pkg/logger"
)

// HTTPRegistrar notifies an external plugin registrar over HTTP.
type HTTPRegistrar struct {
	client   *http.Client
	endpoint *url.URL
	apiKey   string
	log      *logger.Logger
}

var _ PluginRegistrar = (*HTTPRegistrar)(nil)

// NewHTTPRegistrar constructs a registrar client for the provided endpoint.
func NewHTTPRegistrar(client *http.Client, endpoint, apiKey string, log *logger.Logger) (*HTTPRegistrar, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("registrar endpoint required")
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse registrar endpoint: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	if log == nil {
		log = logger.NewDefault("plugin-registrar")
	}
	return &HTTPRegistrar{
		client:   client,
		endpoint: parsed,
		apiKey:   strings.TrimSpace(apiKey),
		log:      log,
	}, nil
}

// Register announces an application and its secret to the registrar.
func (r *HTTPRegistrar) Register(ctx context.Context, repositoryURL, appID, appSecret string) error {
	payload, err := json.Marshal(struct {
		Repository string `json:"repository"`
		AppID      string `json:"app_id"`
		AppSecret  string `json:"app_secret"`
	}{Repository: repositoryURL, AppID: appID, AppSecret: appSecret})
	if err != nil {
		return fmt.Errorf("encode registrar payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build registrar request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("registrar request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("registrar status %d", resp.StatusCode)
	}
	return nil
}
