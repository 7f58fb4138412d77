package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config 描述了 MeetingMCP 守护进程在启动阶段需要加载的核心配置。
type Config struct {
	Server       ServerConfig     `json:"server"`
	Logging      LoggingConfig    `json:"logging"`
	Summarizer   SummarizerConfig `json:"summarizer"`
	JobStore     JobStoreConfig   `json:"job_store"`
	JobQueue     JobQueueConfig   `json:"job_queue"`
	Alerting     AlertingConfig   `json:"alerting"`
	Integrations string           `json:"integrations_file"`
}

// ServerConfig 控制 API 服务的监听地址与共享密钥。
type ServerConfig struct {
	Address string `json:"address"`
	// APIKey 为空时表示开放访问（本地开发模式）。
	APIKey string `json:"api_key"`
}

// LoggingConfig 映射到 pkg/logger 的初始化参数。
type LoggingConfig struct {
	Level       string      `json:"level"`
	Format      string      `json:"format"`
	OutputPaths []string    `json:"output_paths"`
	Audit       AuditConfig `json:"audit"`
}

// AuditConfig 控制审计日志文件的轮转行为。
type AuditConfig struct {
	Enabled    bool   `json:"enabled"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// SummarizerConfig 配置摘要后端的选择与连接方式。
type SummarizerConfig struct {
	// Mode 取值 bart、mistral 或 auto。
	Mode    string        `json:"mode"`
	Bart    BartConfig    `json:"bart"`
	Mistral MistralConfig `json:"mistral"`
}

// BartConfig 描述通过本地 Python 脚本完成 BART 推理所需的信息。
type BartConfig struct {
	Enabled          bool   `json:"enabled"`
	PythonExecutable string `json:"python_executable"`
	ScriptPath       string `json:"script_path"`
	WorkingDir       string `json:"working_dir"`
}

// MistralConfig 描述调用 Mistral 推理服务所需的信息。
type MistralConfig struct {
	Enabled        bool   `json:"enabled"`
	BaseURL        string `json:"base_url"`
	APIKey         string `json:"api_key"`
	APIKeyEnv      string `json:"api_key_env"`
	Model          string `json:"model"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// Timeout 返回 Mistral 请求超时时间。
func (c MistralConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// JobStoreConfig 描述编排任务存储的驱动与连接信息。
type JobStoreConfig struct {
	Driver  string `json:"driver"`
	DSN     string `json:"dsn"`
	Retries int    `json:"retries"`
}

// JobQueueConfig 描述编排任务队列的驱动与消费参数。
type JobQueueConfig struct {
	Driver   string         `json:"driver"`
	Worker   int            `json:"worker"`
	Redis    RedisConfig    `json:"redis"`
	RabbitMQ RabbitMQConfig `json:"rabbitmq"`
}

// RedisConfig 描述 Redis 队列连接参数。
type RedisConfig struct {
	Address   string `json:"address"`
	Password  string `json:"password"`
	DB        int    `json:"db"`
	Queue     string `json:"queue"`
	BlockWait int    `json:"block_wait_seconds"`
}

// RabbitMQConfig 描述 RabbitMQ 队列连接参数。
type RabbitMQConfig struct {
	URL        string `json:"url"`
	Queue      string `json:"queue"`
	Prefetch   int    `json:"prefetch"`
	Durable    bool   `json:"durable"`
	AutoDelete bool   `json:"auto_delete"`
}

// AlertingConfig 控制失败作业的告警渠道。
type AlertingConfig struct {
	// SlackEnabled 为真时复用 integrations 中的 Slack webhook 发送告警。
	SlackEnabled bool `json:"slack_enabled"`
	// WebhookURL 指向一个接收纯文本告警的通用 HTTP 端点。
	WebhookURL string `json:"webhook_url"`
}

// Load 负责解析指定路径的 JSON 配置文件。
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("配置文件路径为空")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	cfg.applyDefaults(filepath.Dir(path))
	return &cfg, nil
}

// applyDefaults 在用户未填写部分字段时设置合理的默认值。
func (c *Config) applyDefaults(baseDir string) {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	if c.Summarizer.Mode == "" {
		c.Summarizer.Mode = "auto"
	}
	if c.Summarizer.Bart.PythonExecutable == "" {
		c.Summarizer.Bart.PythonExecutable = "python3"
	}
	if c.Summarizer.Bart.WorkingDir == "" {
		c.Summarizer.Bart.WorkingDir = baseDir
	} else if !filepath.IsAbs(c.Summarizer.Bart.WorkingDir) {
		c.Summarizer.Bart.WorkingDir = filepath.Join(baseDir, c.Summarizer.Bart.WorkingDir)
	}

	if c.JobStore.Driver == "" {
		c.JobStore.Driver = "memory"
	}
	if c.JobStore.Retries <= 0 {
		c.JobStore.Retries = 3
	}

	if c.JobQueue.Driver == "" {
		c.JobQueue.Driver = "memory"
	}
	if c.JobQueue.Worker <= 0 {
		c.JobQueue.Worker = 4
	}

	if c.Integrations == "" {
		c.Integrations = filepath.Join(baseDir, "integrations.yaml")
	} else if !filepath.IsAbs(c.Integrations) {
		c.Integrations = filepath.Join(baseDir, c.Integrations)
	}
}
