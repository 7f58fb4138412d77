package mistral

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

	"MeetingMCP/internal/extract"
	"MeetingMCP/internal/summarizer"
	"MeetingMCP/pkg/logger"
)

const (
	defaultBaseURL   = "https://api.mistral.ai/v1"
	defaultModelName = "mistral-small-latest"
	defaultTimeout   = 60 * time.Second

	// minChunkWords 以下的分片视为无效输入，直接跳过不消耗配额。
	minChunkWords = 10
)

// Config 描述调用 Mistral Chat Completions API 所需的信息。
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client 通过 HTTP 调用 Mistral 对会议转写做结构化摘要。
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

var _ summarizer.Backend = (*Client)(nil)

// NewClient 根据配置创建 Mistral 客户端。
func NewClient(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("未提供 Mistral API Key")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModelName
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Summarize 逐个分片调用模型并合并结构化结果。
// 网络或鉴权失败向上返回错误；单个分片的输出解析失败只跳过该分片，
// 不拖垮整次摘要。
func (c *Client) Summarize(ctx context.Context, chunks []string) (*summarizer.Result, error) {
	var (
		summaryItems []string
		actionItems  []any
		decisions    []string
		risks        []string
		followUps    []string
	)

	processed := 0
	for idx, chunk := range chunks {
		if !validChunk(chunk) {
			continue
		}
		processed++

		raw, err := c.complete(ctx, buildPrompt(chunk))
		if err != nil {
			return nil, err
		}

		parsed, err := extract.ParseObject(raw)
		if err != nil {
			logger.L().Warn("分片输出无法恢复为 JSON，跳过",
				"chunk", idx,
				"error", err,
			)
			continue
		}

		for _, item := range stringList(parsed["summary"]) {
			if extract.ValidSummaryItem(item) {
				summaryItems = append(summaryItems, item)
			}
		}
		for _, item := range anyList(parsed["action_items"]) {
			if extract.ValidActionItem(item) {
				actionItems = append(actionItems, item)
			}
		}
		for _, item := range stringList(parsed["decisions"]) {
			if extract.ValidSummaryItem(item) {
				decisions = append(decisions, item)
			}
		}
		for _, item := range stringList(parsed["risks"]) {
			if extract.ValidSummaryItem(item) {
				risks = append(risks, item)
			}
		}
		for _, item := range stringList(parsed["follow_up_questions"]) {
			if extract.ValidSummaryItem(item) {
				followUps = append(followUps, item)
			}
		}
	}

	if processed == 0 {
		return nil, errors.New("没有可用的转写分片")
	}

	return &summarizer.Result{
		Summary:           strings.Join(extract.DedupStrings(summaryItems), "\n"),
		ActionItems:       extract.DedupItems(actionItems),
		Decisions:         extract.DedupStrings(decisions),
		Risks:             extract.DedupStrings(risks),
		FollowUpQuestions: extract.DedupStrings(followUps),
	}, nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0.2,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("序列化 Mistral 请求失败: %w", err)
	}

	endpoint := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("构建 Mistral 请求失败: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("请求 Mistral 失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("Mistral 返回错误状态 %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("解析 Mistral 响应失败: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("Mistral 响应中没有有效的 choices")
	}

	content := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("Mistral 响应内容为空")
	}
	return content, nil
}

func validChunk(chunk string) bool {
	return len(strings.Fields(chunk)) >= minChunkWords
}

func stringList(value any) []string {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if text, ok := item.(string); ok && strings.TrimSpace(text) != "" {
			out = append(out, text)
		}
	}
	return out
}

func anyList(value any) []any {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	return items
}

func buildPrompt(chunk string) string {
	var builder strings.Builder
	builder.WriteString(promptHeader)
	builder.WriteString("\n```json\n")
	builder.WriteString(promptExample)
	builder.WriteString("\n```\n\nTRANSCRIPT:\n")
	builder.WriteString(chunk)
	return builder.String()
}

const promptHeader = `You are an AI specialized in analyzing meeting transcripts.
Your task is to produce:
1. A clear and concise SUMMARY of the meeting as a numbered or bulleted list (do not use 'point 1', 'point 2', use real content).
2. A list of ACTION ITEMS as an array of objects. Use issue_type: 'Story' for major feature creation and 'Task' or 'Bug' for technical sub-work. Each action item must include: summary, assignee, issue_type, and a logical due_date.
3. A list of DECISIONS made during the meeting.
4. A list of RISKS, blockers, or concerns raised.
5. A list of FOLLOW-UP QUESTIONS that attendees should clarify.

INSTRUCTIONS:
- Read the provided meeting transcript thoroughly.
- Do NOT invent information. Only extract what is explicitly or implicitly present.
- If some sections have no information, return an empty list.
- Keep summary short but complete (5-8 bullet points or numbers).
- Use simple, business-friendly language.
- DO NOT use placeholder text like 'point 1', 'point 2', '<summary bullet 1>', '<task>', etc.
- DO NOT copy the example below. Fill with real meeting content.

RETURN THE OUTPUT IN THIS EXACT JSON FORMAT (as a code block):`

const promptExample = `{
  "summary": ["<summary bullet 1>", "<summary bullet 2>"],
  "action_items": [ {"task": "<task>", "owner": "<owner>", "deadline": "<deadline>"} ]
}`
