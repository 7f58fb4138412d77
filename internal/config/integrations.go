package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Integrations 描述外部系统（Jira、Slack、日历）的接入信息，
// 独立于主配置文件，方便将凭证排除在版本库之外。
type Integrations struct {
	Jira     JiraIntegration     `yaml:"jira"`
	Slack    SlackIntegration    `yaml:"slack"`
	Calendar CalendarIntegration `yaml:"calendar"`
}

// JiraIntegration 描述 Jira REST API 的接入信息。
type JiraIntegration struct {
	BaseURL    string `yaml:"base_url"`
	User       string `yaml:"user"`
	Token      string `yaml:"token"`
	ProjectKey string `yaml:"project_key"`
	// IncludeInRiskScan 控制风险扫描是否附带 Jira 查询。
	// 未显式配置时，仅当 Jira 凭证完整时才开启。
	IncludeInRiskScan *bool `yaml:"include_in_risk_scan"`
}

// Configured 判断 Jira 凭证是否完整。
func (j JiraIntegration) Configured() bool {
	return strings.TrimSpace(j.BaseURL) != "" &&
		strings.TrimSpace(j.User) != "" &&
		strings.TrimSpace(j.Token) != ""
}

// RiskScanEnabled 返回风险扫描是否应包含 Jira 查询。
func (j JiraIntegration) RiskScanEnabled() bool {
	if j.IncludeInRiskScan != nil {
		return *j.IncludeInRiskScan
	}
	return j.Configured()
}

// SlackIntegration 描述 Slack Incoming Webhook 的接入信息。
type SlackIntegration struct {
	WebhookURL string `yaml:"webhook_url"`
}

// Configured 判断 Slack Webhook 是否可用。
func (s SlackIntegration) Configured() bool {
	return strings.TrimSpace(s.WebhookURL) != ""
}

// CalendarIntegration 描述日历服务的接入信息。
type CalendarIntegration struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	CalendarID string `yaml:"calendar_id"`
}

// Configured 判断日历服务是否可用。
func (c CalendarIntegration) Configured() bool {
	return strings.TrimSpace(c.BaseURL) != ""
}

// LoadIntegrations 解析 YAML 格式的外部系统配置。
// 文件不存在视为未接入任何外部系统，而非错误。
func LoadIntegrations(path string) (*Integrations, error) {
	if path == "" {
		return &Integrations{}, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Integrations{}, nil
		}
		return nil, fmt.Errorf("读取外部系统配置失败: %w", err)
	}

	var integrations Integrations
	if err := yaml.Unmarshal(content, &integrations); err != nil {
		return nil, fmt.Errorf("解析外部系统配置失败: %w", err)
	}
	return &integrations, nil
}
