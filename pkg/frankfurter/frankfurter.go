// Package frankfurter is a client for the frankfurter.app exchange-rate API,
// quoting supported currencies against BRL.
package frankfurter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/bancoagil/atendimento/agent/contract"
)

const maxResponseBytes = 1 << 20

var supportedCodes = map[string]bool{
	"USD": true,
	"EUR": true,
	"GBP": true,
	"JPY": true,
	"ARS": true,
}

// Supported reports whether the API client will quote the given ISO code.
func Supported(code string) bool {
	return supportedCodes[strings.ToUpper(strings.TrimSpace(code))]
}

type Config struct {
	BaseURL string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.frankfurter.app"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("frankfurter base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid frankfurter base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

type latestResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// Latest returns how many BRL one unit of code is worth. Failures map to the
// contract sentinels: ErrRateUnsupported for unknown codes, ErrRateTimeout
// when the API does not answer in time, ErrRateService for everything else.
func (c *Client) Latest(ctx context.Context, code string) (float64, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !supportedCodes[code] {
		return 0, fmt.Errorf("%w: %q", contractx.ErrRateUnsupported, code)
	}

	endpoint := fmt.Sprintf("%s/latest?from=%s&to=BRL", c.baseURL, code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: build request: %v", contractx.ErrRateService, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return 0, fmt.Errorf("%w: %v", contractx.ErrRateTimeout, err)
		}
		return 0, fmt.Errorf("%w: %v", contractx.ErrRateService, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, fmt.Errorf("%w: read response: %v", contractx.ErrRateService, err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: http status=%d", contractx.ErrRateService, resp.StatusCode)
	}

	var parsed latestResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return 0, fmt.Errorf("%w: decode response: %v", contractx.ErrRateService, err)
	}

	rate, ok := parsed.Rates["BRL"]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("%w: BRL rate missing for %s", contractx.ErrRateService, code)
	}
	return rate, nil
}

func isTimeout(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Timeout()
	}
	return errors.Is(err, context.DeadlineExceeded)
}
