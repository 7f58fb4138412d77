package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	xerrors "MeetingMCP/internal/errors"
)

const slackDefaultTimeout = 10 * time.Second

// SlackClient 通过 Incoming Webhook 向 Slack 频道推送文本消息。
type SlackClient struct {
	webhookURL string
	httpClient *http.Client
}

// NewSlackClient 创建 Slack Webhook 客户端。
func NewSlackClient(webhookURL string) (*SlackClient, error) {
	webhookURL = strings.TrimSpace(webhookURL)
	if webhookURL == "" {
		return nil, errors.New("未配置 Slack Webhook 地址")
	}
	return &SlackClient{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: slackDefaultTimeout},
	}, nil
}

// Post 发送一条文本消息。
func (c *SlackClient) Post(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("序列化 Slack 消息失败: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("构建 Slack 请求失败: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeExternalService, err, "请求 Slack 失败")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return xerrors.New(xerrors.CodeExternalService,
			fmt.Sprintf("Slack 返回错误状态 %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}
	return nil
}
