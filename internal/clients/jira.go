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
	"strconv"
	"strings"
	"time"

	"MeetingMCP/internal/config"
	xerrors "MeetingMCP/internal/errors"
)

const jiraDefaultTimeout = 30 * time.Second

// JiraClient 通过 Jira REST API v2 创建与查询 Issue。
type JiraClient struct {
	baseURL    string
	user       string
	token      string
	projectKey string
	httpClient *http.Client
}

// JiraIssue 是查询结果中关心的字段子集。
type JiraIssue struct {
	Key    string `json:"key"`
	Fields struct {
		Summary  string `json:"summary"`
		DueDate  string `json:"duedate"`
		Updated  string `json:"updated"`
		Priority struct {
			Name string `json:"name"`
		} `json:"priority"`
	} `json:"fields"`
}

// NewJiraClient 根据外部系统配置创建 Jira 客户端。
func NewJiraClient(cfg config.JiraIntegration) (*JiraClient, error) {
	if !cfg.Configured() {
		return nil, errors.New("Jira 凭证不完整")
	}
	return &JiraClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		user:       strings.TrimSpace(cfg.User),
		token:      strings.TrimSpace(cfg.Token),
		projectKey: strings.TrimSpace(cfg.ProjectKey),
		httpClient: &http.Client{Timeout: jiraDefaultTimeout},
	}, nil
}

// ProjectKey 返回默认项目标识。
func (c *JiraClient) ProjectKey() string {
	return c.projectKey
}

// CreateIssue 在默认项目下创建一个 Issue，返回 Issue Key。
func (c *JiraClient) CreateIssue(ctx context.Context, summary, description, issueType string) (string, error) {
	if strings.TrimSpace(issueType) == "" {
		issueType = "Task"
	}
	body := map[string]any{
		"fields": map[string]any{
			"project":     map[string]string{"key": c.projectKey},
			"summary":     strings.ReplaceAll(summary, "\n", " "),
			"description": description,
			"issuetype":   map[string]string{"name": issueType},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("序列化 Jira 请求失败: %w", err)
	}

	endpoint := c.baseURL + "/rest/api/2/issue"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("构建 Jira 请求失败: %w", err)
	}
	httpReq.SetBasicAuth(c.user, c.token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeExternalService, err, "请求 Jira 失败")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", xerrors.New(xerrors.CodeExternalService,
			fmt.Sprintf("Jira 返回错误状态 %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	var decoded struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("解析 Jira 响应失败: %w", err)
	}
	if decoded.Key == "" {
		return "", errors.New("Jira 响应中没有 Issue Key")
	}
	return decoded.Key, nil
}

// Search 用 JQL 查询 Issue，最多返回 maxResults 条。
func (c *JiraClient) Search(ctx context.Context, jql string, maxResults int) ([]JiraIssue, error) {
	if maxResults <= 0 {
		maxResults = 50
	}
	query := url.Values{}
	query.Set("jql", jql)
	query.Set("maxResults", strconv.Itoa(maxResults))
	query.Set("fields", "summary,duedate,updated,priority")

	endpoint := c.baseURL + "/rest/api/2/search?" + query.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("构建 Jira 查询失败: %w", err)
	}
	httpReq.SetBasicAuth(c.user, c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeExternalService, err, "查询 Jira 失败")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, xerrors.New(xerrors.CodeExternalService,
			fmt.Sprintf("Jira 查询返回错误状态 %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	var decoded struct {
		Issues []JiraIssue `json:"issues"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("解析 Jira 查询响应失败: %w", err)
	}
	return decoded.Issues, nil
}
