package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"MeetingMCP/internal/config"
	xerrors "MeetingMCP/internal/errors"
)

const calendarDefaultTimeout = 15 * time.Second

// CalendarClient 调用日历服务的 REST API，完成会议日程的增查。
type CalendarClient struct {
	baseURL    string
	apiKey     string
	calendarID string
	httpClient *http.Client
}

// NewCalendarClient 根据外部系统配置创建日历客户端。
func NewCalendarClient(cfg config.CalendarIntegration) (*CalendarClient, error) {
	if !cfg.Configured() {
		return nil, errors.New("未配置日历服务地址")
	}
	return &CalendarClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		calendarID: strings.TrimSpace(cfg.CalendarID),
		httpClient: &http.Client{Timeout: calendarDefaultTimeout},
	}, nil
}

// DefaultCalendarID 返回配置的默认日历。
func (c *CalendarClient) DefaultCalendarID() string {
	return c.calendarID
}

// CreateEvent 在指定日历下创建日程，返回服务端响应。
func (c *CalendarClient) CreateEvent(ctx context.Context, calendarID string, event map[string]any) (map[string]any, error) {
	endpoint := fmt.Sprintf("%s/calendars/%s/events", c.baseURL, url.PathEscape(c.resolve(calendarID)))
	return c.do(ctx, http.MethodPost, endpoint, event)
}

// FetchEvent 读取单个日程。
func (c *CalendarClient) FetchEvent(ctx context.Context, calendarID, eventID string) (map[string]any, error) {
	endpoint := fmt.Sprintf("%s/calendars/%s/events/%s",
		c.baseURL, url.PathEscape(c.resolve(calendarID)), url.PathEscape(eventID))
	return c.do(ctx, http.MethodGet, endpoint, nil)
}

// ListEvents 列出日历下的日程。
func (c *CalendarClient) ListEvents(ctx context.Context, calendarID string) (map[string]any, error) {
	endpoint := fmt.Sprintf("%s/calendars/%s/events", c.baseURL, url.PathEscape(c.resolve(calendarID)))
	return c.do(ctx, http.MethodGet, endpoint, nil)
}

// Availability 查询日历在给定时间窗内的空闲情况。
func (c *CalendarClient) Availability(ctx context.Context, calendarID, start, end string) (map[string]any, error) {
	query := url.Values{}
	if start != "" {
		query.Set("start", start)
	}
	if end != "" {
		query.Set("end", end)
	}
	endpoint := fmt.Sprintf("%s/calendars/%s/availability", c.baseURL, url.PathEscape(c.resolve(calendarID)))
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	return c.do(ctx, http.MethodGet, endpoint, nil)
}

func (c *CalendarClient) resolve(calendarID string) string {
	if strings.TrimSpace(calendarID) != "" {
		return calendarID
	}
	return c.calendarID
}

func (c *CalendarClient) do(ctx context.Context, method, endpoint string, body map[string]any) (map[string]any, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("序列化日历请求失败: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("构建日历请求失败: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		httpReq.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeExternalService, err, "请求日历服务失败")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, xerrors.New(xerrors.CodeExternalService,
			fmt.Sprintf("日历服务返回错误状态 %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		if err == io.EOF {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("解析日历响应失败: %w", err)
	}
	return decoded, nil
}
