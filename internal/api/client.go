package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/tosurnament/dashboard/internal/discord"
)

const DefaultBaseURL = "http://localhost:5001/api/v1"

var ErrUnauthorized = errors.New("api: unauthorized")

// Error is a non 2xx answer of the backend.
type Error struct {
	Method string
	Path   string
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s %s: %d", e.Method, e.Path, e.Status)
}

func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// UserMessage is the notification shown for a failed call.
func UserMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return "Unknown error, please retry"
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), httpClient: httpClient}
}

func (c *Client) Get(ctx context.Context, token, path string, out any) error {
	return c.do(ctx, token, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, token, path string, body, out any) error {
	return c.do(ctx, token, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, token, path string, body, out any) error {
	return c.do(ctx, token, http.MethodPut, path, body, out)
}

func (c *Client) Delete(ctx context.Context, token, path string) error {
	return c.do(ctx, token, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, token, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s response: %w", method, path, err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &Error{Method: method, Path: path, Status: resp.StatusCode}
		var detail struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(data, &detail) == nil {
			apiErr.Detail = detail.Detail
		}
		slog.Warn("api request failed", "method", method, "path", path, "status", resp.StatusCode, "detail", apiErr.Detail)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := decode(data, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// unwrap returns data[key] when data is an object holding key, else data.
func unwrap(data json.RawMessage, key string) json.RawMessage {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return data
	}
	if inner, ok := envelope[key]; ok {
		return inner
	}
	return data
}

func (c *Client) getList(ctx context.Context, token, path, key string, out any) error {
	var raw json.RawMessage
	if err := c.Get(ctx, token, path, &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	if err := decode(unwrap(raw, key), out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) getFirst(ctx context.Context, token, path, key string) (Record, error) {
	var records []Record
	if err := c.getList(ctx, token, path, key, &records); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

func (c *Client) CommonGuilds(ctx context.Context, token string) ([]discord.Guild, error) {
	var guilds []discord.Guild
	err := c.getList(ctx, token, "/discord/guilds/common", "guilds", &guilds)
	return guilds, err
}

// Guild returns the bot settings of a Discord guild, nil when there are none.
func (c *Client) Guild(ctx context.Context, token, guildID string) (Record, error) {
	return c.getFirst(ctx, token, "/tosurnament/guilds?guild_id="+url.QueryEscape(guildID), "guilds")
}

// Tournament returns the guild's tournament with its brackets and
// spreadsheets, nil when the guild has none.
func (c *Client) Tournament(ctx context.Context, token, guildID string) (Record, error) {
	path := "/tosurnament/tournaments?guild_id=" + url.QueryEscape(guildID) + "&include_brackets=true&include_spreadsheets=true"
	return c.getFirst(ctx, token, path, "tournaments")
}

func (c *Client) Roles(ctx context.Context, token, guildID string) ([]discord.Role, error) {
	var roles []discord.Role
	err := c.getList(ctx, token, "/discord/guilds/"+url.PathEscape(guildID)+"/roles", "roles", &roles)
	return roles, err
}

func (c *Client) Channels(ctx context.Context, token, guildID string) ([]discord.Channel, error) {
	var channels []discord.Channel
	err := c.getList(ctx, token, "/discord/guilds/"+url.PathEscape(guildID)+"/channels", "channels", &channels)
	return channels, err
}
