package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fadedpez/vaultspin/pkg/entities"
)

var ErrRemoteDraw = errors.New("remote draw failed")

// RemoteResult is the payload of a server-authoritative draw. The engine
// must resolve CardID against its local catalog before trusting it.
type RemoteResult struct {
	CardID  string            `json:"cardId"`
	PackKey string            `json:"packKey"`
	Rarity  entities.Rarity   `json:"rarityTier"`
	Value   int64             `json:"estimatedValue"`
	Mode    entities.OpenMode `json:"mode"`
}

// Validate checks the remote payload at the boundary before use
func (r *RemoteResult) Validate() error {
	if r.CardID == "" {
		return errors.New("remote draw missing cardId")
	}
	if r.PackKey == "" {
		return errors.New("remote draw missing packKey")
	}
	if !r.Rarity.IsValid() {
		return fmt.Errorf("remote draw has unknown rarity %q", r.Rarity)
	}
	if !r.Mode.IsValid() {
		return fmt.Errorf("remote draw has unknown mode %q", r.Mode)
	}
	return nil
}

// RemoteDraw performs the draw under the server's authority instead of the
// local resolver, so paid draws cannot be tampered with client-side.
type RemoteDraw interface {
	OpenPack(ctx context.Context, packKey string, mode entities.OpenMode) (*RemoteResult, error)
}

// HTTPRemoteDraw calls a draw endpoint over HTTP
type HTTPRemoteDraw struct {
	baseURL string
	client  *http.Client
}

// NewHTTPRemoteDraw creates a remote draw client bound to the base URL
func NewHTTPRemoteDraw(baseURL string, timeout time.Duration) *HTTPRemoteDraw {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPRemoteDraw{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type remoteDrawRequest struct {
	PackKey string            `json:"packKey"`
	Mode    entities.OpenMode `json:"mode"`
}

// OpenPack requests one authoritative draw from the server
func (c *HTTPRemoteDraw) OpenPack(ctx context.Context, packKey string, mode entities.OpenMode) (*RemoteResult, error) {
	body, err := json.Marshal(remoteDrawRequest{PackKey: packKey, Mode: mode})
	if err != nil {
		return nil, fmt.Errorf("error encoding draw request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/draw", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error building draw request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteDraw, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrRemoteDraw, resp.StatusCode, string(snippet))
	}

	var result RemoteResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrRemoteDraw, err)
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteDraw, err)
	}

	return &result, nil
}
