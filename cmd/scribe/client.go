package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"scribed/internal/api"
	"scribed/internal/config"
)

// apiClient talks to a running scribed daemon over its HTTP API.
type apiClient struct {
	baseURL    string
	httpClient *http.Client
}

func newAPIClient(addrFlag, configFlag string) (*apiClient, error) {
	addr := strings.TrimSpace(addrFlag)
	if addr == "" {
		cfg, _, _, err := config.Load(configFlag)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		addr = cfg.Paths.APIBind
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return &apiClient{
		baseURL:    strings.TrimRight(addr, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (c *apiClient) Status() (*api.StatusResponse, error) {
	var out api.StatusResponse
	if err := c.do(http.MethodGet, "/api/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) ListSessions(statuses []string) ([]api.SessionView, error) {
	endpoint := "/api/sessions"
	if len(statuses) > 0 {
		query := url.Values{}
		for _, status := range statuses {
			query.Add("status", status)
		}
		endpoint += "?" + query.Encode()
	}
	var out api.SessionListResponse
	if err := c.do(http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

func (c *apiClient) GetSession(id string) (*api.SessionView, error) {
	var out api.SessionView
	if err := c.do(http.MethodGet, "/api/sessions/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) CreateSession(req api.CreateSessionRequest) (*api.SessionView, error) {
	var out api.SessionView
	if err := c.do(http.MethodPost, "/api/sessions", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) ProcessSession(id string) (*api.SessionView, error) {
	var out api.SessionView
	if err := c.do(http.MethodPost, "/api/sessions/"+url.PathEscape(id)+"/process", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) Speakers(id string) (*api.SpeakersView, error) {
	var out api.SpeakersView
	if err := c.do(http.MethodGet, "/api/sessions/"+url.PathEscape(id)+"/speakers", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) ApplyMapping(id string, mapping map[string]string) (*api.SessionView, error) {
	var out api.SessionView
	req := api.ApplyMappingRequest{Mapping: mapping}
	if err := c.do(http.MethodPatch, "/api/sessions/"+url.PathEscape(id)+"/speakers", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) DeleteSession(id string) error {
	return c.do(http.MethodDelete, "/api/sessions/"+url.PathEscape(id), nil, nil)
}

func (c *apiClient) do(method, endpoint string, payload, out any) error {
	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("is scribed running? %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
			return fmt.Errorf("%s", payload.Error)
		}
		return fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
