package ipinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://ipinfo.io"

type IPInfoResponse struct {
	IP       string `json:"ip"`
	Hostname string `json:"hostname"`
	Anycast  bool   `json:"anycast"`
	City     string `json:"city"`
	Region   string `json:"region"`
	Country  string `json:"country"`
	Loc      string `json:"loc"`
	Org      string `json:"org"`
	Postal   string `json:"postal"`
	Timezone string `json:"timezone"`
}

type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewClient(token string) *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// GetIPInfo looks up ip; an empty ip returns the caller's own public address.
func (c *Client) GetIPInfo(ctx context.Context, ip string) (IPInfoResponse, error) {
	u := strings.TrimRight(c.BaseURL, "/") + "/" + url.PathEscape(ip)
	if c.Token != "" {
		u += "?token=" + url.QueryEscape(c.Token)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return IPInfoResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return IPInfoResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return IPInfoResponse{}, fmt.Errorf("ipinfo returned status %d", resp.StatusCode)
	}

	var ipInfo IPInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&ipInfo); err != nil {
		return IPInfoResponse{}, fmt.Errorf("failed to decode ipinfo response: %w", err)
	}
	return ipInfo, nil
}

// Egress returns the public IP and country the host is currently seen from.
func (c *Client) Egress(ctx context.Context) (string, string, error) {
	info, err := c.GetIPInfo(ctx, "")
	if err != nil {
		return "", "", err
	}
	return info.IP, info.Country, nil
}
