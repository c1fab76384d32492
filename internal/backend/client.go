// Package backend is the HTTP client for the voice backend: room
// token issuance, bridge call control for support calls, and push
// token registration.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sebas/ridecall/internal/room"
)

// DefaultBridgeNumber is the support desk number dialed by the bridge.
const DefaultBridgeNumber = "+443333054030"

// Client is an HTTP client for the voice backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a backend client. baseURL is the service root,
// without a trailing slash.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// BaseURL returns the configured service root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CallerToken fetches room credentials for the calling side.
func (c *Client) CallerToken(ctx context.Context, req CallerTokenRequest) (room.Credentials, error) {
	var resp TokenResponse
	if err := c.post(ctx, "/api/v1/bot/sdk/get-caller-livekit-token", req, &resp); err != nil {
		return room.Credentials{}, fmt.Errorf("caller token: %w", err)
	}
	return room.Credentials{URL: resp.WsURL, Token: resp.AccessToken}, nil
}

// CalledToken fetches room credentials for the called side.
func (c *Client) CalledToken(ctx context.Context, req CalledTokenRequest) (room.Credentials, error) {
	var resp TokenResponse
	if err := c.post(ctx, "/api/v1/bot/sdk/get-called-livekit-token", req, &resp); err != nil {
		return room.Credentials{}, fmt.Errorf("called token: %w", err)
	}
	return room.Credentials{URL: resp.WsURL, Token: resp.AccessToken}, nil
}

// RoomToken fetches room credentials by room name and identity alone.
func (c *Client) RoomToken(ctx context.Context, roomName, participantIdentity string) (room.Credentials, error) {
	var resp TokenResponse
	req := TokenRequest{RoomName: roomName, ParticipantIdentity: participantIdentity}
	if err := c.post(ctx, "/api/v1/bot/sdk/get-token", req, &resp); err != nil {
		return room.Credentials{}, fmt.Errorf("room token: %w", err)
	}
	return room.Credentials{URL: resp.WsURL, Token: resp.AccessToken}, nil
}

// MakeBridgeCall asks the bridge to dial the support desk into the
// given room. The returned data carries the room token plus the
// bridged participant identity needed for teardown.
func (c *Client) MakeBridgeCall(ctx context.Context, req BridgeCallRequest) (*BridgeCallData, error) {
	if req.PhoneNumber == "" {
		req.PhoneNumber = DefaultBridgeNumber
	}
	var resp BridgeCallResponse
	if err := c.post(ctx, "/api/v1/bot/sdk-sip/calls/make", req, &resp); err != nil {
		return nil, fmt.Errorf("make bridge call: %w", err)
	}
	if !resp.Success || resp.Data == nil {
		return nil, fmt.Errorf("make bridge call: backend refused: %s", refusal(resp.Message, resp.Error))
	}
	return resp.Data, nil
}

// EndBridgeCall tears down a bridged support call. Implements
// call.BridgeAPI.
func (c *Client) EndBridgeCall(ctx context.Context, participantIdentity, roomName string) error {
	req := EndBridgeCallRequest{ParticipantIdentity: participantIdentity, RoomName: roomName}
	var resp EndBridgeCallResponse
	if err := c.post(ctx, "/api/v1/bot/sdk-sip/calls/end", req, &resp); err != nil {
		return fmt.Errorf("end bridge call: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("end bridge call: backend refused: %s", refusal(resp.Message, resp.Error))
	}
	return nil
}

// RandomUser fetches a backend-assigned driver identity.
func (c *Client) RandomUser(ctx context.Context) (*RandomUserResponse, error) {
	var resp RandomUserResponse
	if err := c.get(ctx, "/api/v1/bot/random-user", &resp); err != nil {
		return nil, fmt.Errorf("random user: %w", err)
	}
	return &resp, nil
}

// RandomLead fetches a backend-assigned customer identity.
func (c *Client) RandomLead(ctx context.Context) (*RandomLeadResponse, error) {
	var resp RandomLeadResponse
	if err := c.get(ctx, "/api/v1/bot/random-lead", &resp); err != nil {
		return nil, fmt.Errorf("random lead: %w", err)
	}
	return &resp, nil
}

// RegisterPushToken registers this device for incoming-call pushes.
func (c *Client) RegisterPushToken(ctx context.Context, req RegisterPushTokenRequest) error {
	if req.DeviceType == "" {
		req.DeviceType = "go"
	}
	var resp PushTokenResponse
	if err := c.post(ctx, "/api/v1/bot/notifications/register-token", req, &resp); err != nil {
		return fmt.Errorf("register push token: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("register push token: backend refused: %s", refusal(resp.Message, resp.Error))
	}
	return nil
}

// UpdatePushToken rotates the device push token.
func (c *Client) UpdatePushToken(ctx context.Context, req UpdatePushTokenRequest) error {
	if req.DeviceType == "" {
		req.DeviceType = "go"
	}
	var resp PushTokenResponse
	if err := c.post(ctx, "/api/v1/bot/notifications/update-token", req, &resp); err != nil {
		return fmt.Errorf("update push token: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("update push token: backend refused: %s", refusal(resp.Message, resp.Error))
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: unexpected status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

func refusal(message, errMsg string) string {
	if errMsg != "" {
		return errMsg
	}
	if message != "" {
		return message
	}
	return "no reason given"
}
