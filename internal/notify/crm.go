package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/harborclub/harborclub-backend/pkg/config"
	pkgerrors "github.com/harborclub/harborclub-backend/pkg/errors"
)

// CRMClient pushes billing state changes to the club's CRM. The CRM is a
// plain JSON-over-HTTP surface; every call is a deferred action, so a
// failure here is logged and counted but never blocks ingestion.
type CRMClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewCRMClient builds the CRM client from configuration. It returns nil
// when no base URL is configured, which disables CRM sync.
func NewCRMClient(cfg config.CRMConfig) *CRMClient {
	if cfg.BaseURL == "" {
		return nil
	}
	return &CRMClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// Sync upserts one resource into the CRM.
func (c *CRMClient) Sync(ctx context.Context, resourceType, resourceID string, payload any) error {
	if c == nil {
		return nil
	}

	body, err := json.Marshal(map[string]any{
		"resource_type": resourceType,
		"resource_id":   resourceID,
		"payload":       payload,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding crm sync payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/sync", bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building crm request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "crm sync request failed")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("crm sync returned status %d", resp.StatusCode))
	}
	return nil
}
