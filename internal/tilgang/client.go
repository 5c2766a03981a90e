// Package tilgang is the client contract for the external authorization
// service. Access decisions are delegated entirely; this service never decides
// who may see a person.
package tilgang

//go:generate mockgen -source=client.go -destination=mocks/client_mock.go -package=mocks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client answers whether a caseworker may act on a person.
type Client interface {
	HarTilgang(ctx context.Context, navIdent, personIdent string) (bool, error)
}

type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type tilgangRequest struct {
	NavIdent    string `json:"navIdent"`
	PersonIdent string `json:"personIdent"`
}

type tilgangResponse struct {
	HarTilgang bool `json:"harTilgang"`
}

func (c *HTTPClient) HarTilgang(ctx context.Context, navIdent, personIdent string) (bool, error) {
	body, err := json.Marshal(tilgangRequest{NavIdent: navIdent, PersonIdent: personIdent})
	if err != nil {
		return false, fmt.Errorf("marshal tilgang request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/tilgang/person", bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build tilgang request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("call tilgang service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("tilgang service returned %d", resp.StatusCode)
	}

	var decoded tilgangResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return false, fmt.Errorf("decode tilgang response: %w", err)
	}
	return decoded.HarTilgang, nil
}
