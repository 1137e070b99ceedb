package moderation

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// HTTPOracle 通过 HTTP 调用毒性分类服务。
//
// 请求：POST {"text": "..."}；响应：{"match": true|false}。
type HTTPOracle struct {
	Endpoint string
	Client   *http.Client
}

// NewHTTPOracle 创建 HTTPOracle，timeout 为 0 时使用 5 秒。
func NewHTTPOracle(endpoint string, timeout time.Duration) *HTTPOracle {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPOracle{Endpoint: endpoint, Client: &http.Client{Timeout: timeout}}
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Match *bool `json:"match"`
}

func (o *HTTPOracle) Classify(ctx context.Context, text string) (bool, error) {
	body, err := json.Marshal(classifyRequest{Text: text})
	if err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.Endpoint, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.Client.Do(req)
	if err != nil {
		return false, fmt.Errorf("classify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("classify: status %d: %s", resp.StatusCode, bytes.TrimSpace(b))
	}

	var out classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("decode classify response: %w", err)
	}
	if out.Match == nil {
		return false, fmt.Errorf("classify: response has no match field")
	}
	return *out.Match, nil
}
