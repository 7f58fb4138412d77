package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	xerrors "MeetingMCP/internal/errors"
)

const webhookDefaultTimeout = 10 * time.Second

// WebhookClient 把纯文本内容推送到任意 HTTP 端点，主要用于告警。
type WebhookClient struct {
	url        string
	httpClient *http.Client
}

// NewWebhookClient 创建通用 webhook 客户端。
func NewWebhookClient(url string) (*WebhookClient, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("未配置 webhook 地址")
	}
	return &WebhookClient{
		url:        url,
		httpClient: &http.Client{Timeout: webhookDefaultTimeout},
	}, nil
}

// Send 推送一条文本消息。
func (c *WebhookClient) Send(ctx context.Context, content string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(content))
	if err != nil {
		return fmt.Errorf("构建 webhook 请求失败: %w", err)
	}
	httpReq.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeExternalService, err, "请求 webhook 失败")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return xerrors.New(xerrors.CodeExternalService,
			fmt.Sprintf("webhook 返回错误状态 %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}
	return nil
}
