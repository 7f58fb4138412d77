package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"MeetingMCP/internal/api"
	"MeetingMCP/internal/auth"
	"MeetingMCP/internal/clients"
	"MeetingMCP/internal/config"
	"MeetingMCP/internal/host"
	"MeetingMCP/internal/job"
	"MeetingMCP/internal/observability/alerting"
	"MeetingMCP/internal/orchestrator"
	"MeetingMCP/internal/summarizer"
	"MeetingMCP/internal/summarizer/bart"
	"MeetingMCP/internal/summarizer/mistral"
	"MeetingMCP/internal/tool"
	"MeetingMCP/pkg/logger"
)

// main 是 MeetingMCP 守护进程的入口。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("meetmcpd 运行失败: %v", err)
	}
}

func run(ctx context.Context) error {
	configPath := os.Getenv("MEETMCP_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("configs", "meetmcp.json")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: cfg.Logging.OutputPaths,
		Audit: logger.AuditConfig{
			Enabled:    cfg.Logging.Audit.Enabled,
			Path:       cfg.Logging.Audit.Path,
			MaxSizeMB:  cfg.Logging.Audit.MaxSizeMB,
			MaxBackups: cfg.Logging.Audit.MaxBackups,
			MaxAgeDays: cfg.Logging.Audit.MaxAgeDays,
		},
	}); err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	integrations, err := config.LoadIntegrations(cfg.Integrations)
	if err != nil {
		return err
	}

	var jiraClient *clients.JiraClient
	if integrations.Jira.Configured() {
		jiraClient, err = clients.NewJiraClient(integrations.Jira)
		if err != nil {
			return err
		}
	}
	var slackClient *clients.SlackClient
	if integrations.Slack.Configured() {
		slackClient, err = clients.NewSlackClient(integrations.Slack.WebhookURL)
		if err != nil {
			return err
		}
	}
	var calendarClient *clients.CalendarClient
	if integrations.Calendar.Configured() {
		calendarClient, err = clients.NewCalendarClient(integrations.Calendar)
		if err != nil {
			return err
		}
	}

	selector := buildSelector(cfg)

	h := host.New()
	tools := []tool.Tool{
		tool.NewTranscriptTool(),
		tool.NewSummarizationTool(selector),
		tool.NewCalendarTool(calendarClient),
	}
	if jiraClient != nil {
		tools = append(tools,
			tool.NewRiskTool(jiraClient, integrations.Jira.RiskScanEnabled()),
			tool.NewJiraTool(jiraClient),
		)
	} else {
		tools = append(tools,
			tool.NewRiskTool(nil, false),
			tool.NewJiraTool(nil),
		)
	}
	if slackClient != nil {
		tools = append(tools, tool.NewNotificationTool(slackClient))
	} else {
		tools = append(tools, tool.NewNotificationTool(nil))
	}
	for _, t := range tools {
		if err := h.Register(t); err != nil {
			return err
		}
	}

	orch := orchestrator.New(h)

	jobStore, err := buildJobStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if jobStore != nil {
			_ = jobStore.Close()
		}
	}()

	jobQueue, err := buildJobQueue(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if jobQueue != nil {
			if err := jobQueue.Close(); err != nil {
				log.Printf("关闭作业队列失败: %v", err)
			}
		}
	}()

	jobService := job.NewService(jobStore, jobQueue, cfg.JobStore.Retries)

	var notifiers []alerting.Notifier
	if cfg.Alerting.SlackEnabled && slackClient != nil {
		notifiers = append(notifiers, &alerting.SlackNotifier{Sender: slackClient})
	}
	if cfg.Alerting.WebhookURL != "" {
		webhookClient, err := clients.NewWebhookClient(cfg.Alerting.WebhookURL)
		if err != nil {
			return err
		}
		notifiers = append(notifiers, &alerting.WebhookNotifier{Sender: webhookClient})
	}
	var dispatcher alerting.Dispatcher
	if len(notifiers) > 0 {
		dispatcher = alerting.NewFanout(notifiers...)
	}

	processorOpts := []job.ProcessorOption{
		job.WithWorkerCount(cfg.JobQueue.Worker),
		job.WithProcessorLogger(logger.Named("job-processor")),
		job.WithRecoveryHandler(job.ExcerptRecovery{}),
	}
	if dispatcher != nil {
		processorOpts = append(processorOpts, job.WithAlertDispatcher(dispatcher))
	}
	processor := job.NewProcessor(job.NewOrchestratorExecutor(orch), jobStore, jobQueue, jobQueue, processorOpts...)

	processorCtx, processorCancel := context.WithCancel(ctx)
	defer processorCancel()

	go func() {
		if err := processor.Start(processorCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("作业处理器异常退出: %v", err)
		}
	}()

	var authService *auth.Service
	if cfg.Server.APIKey != "" {
		authService = auth.NewService(cfg.Server.APIKey)
	}

	server := api.NewServer(cfg.Server.Address, h, orch, jobService, authService)
	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// buildSelector 按配置装配摘要后端。后端惰性初始化，缺失的
// 凭证在首次调用时才会暴露为降级。
func buildSelector(cfg *config.Config) *summarizer.Selector {
	var bartHolder *summarizer.Holder
	if cfg.Summarizer.Bart.Enabled {
		bartCfg := cfg.Summarizer.Bart
		bartHolder = summarizer.NewHolder(func() (summarizer.Backend, error) {
			scriptPath := bart.ResolveScriptPath(bartCfg.WorkingDir, bartCfg.ScriptPath)
			return bart.NewBridge(bartCfg.PythonExecutable, scriptPath, bartCfg.WorkingDir)
		})
	}

	var mistralHolder *summarizer.Holder
	if cfg.Summarizer.Mistral.Enabled {
		mistralCfg := cfg.Summarizer.Mistral
		mistralHolder = summarizer.NewHolder(func() (summarizer.Backend, error) {
			apiKey := strings.TrimSpace(mistralCfg.APIKey)
			if apiKey == "" && mistralCfg.APIKeyEnv != "" {
				apiKey = strings.TrimSpace(os.Getenv(mistralCfg.APIKeyEnv))
			}
			return mistral.NewClient(mistral.Config{
				APIKey:  apiKey,
				BaseURL: mistralCfg.BaseURL,
				Model:   mistralCfg.Model,
				Timeout: mistralCfg.Timeout(),
			})
		})
	}

	return summarizer.NewSelector(cfg.Summarizer.Mode, bartHolder, mistralHolder)
}

func buildJobStore(cfg *config.Config) (job.Store, error) {
	switch cfg.JobStore.Driver {
	case "", "memory":
		return job.NewMemoryStore(), nil
	case "mysql":
		return job.NewMySQLStore(cfg.JobStore.DSN)
	default:
		return nil, fmt.Errorf("未知的存储驱动: %s", cfg.JobStore.Driver)
	}
}

func buildJobQueue(cfg *config.Config) (job.Queue, error) {
	switch cfg.JobQueue.Driver {
	case "", "memory":
		return job.NewMemoryQueue(1024), nil
	case "redis":
		return job.NewRedisQueue(job.RedisQueueConfig{
			Address:   cfg.JobQueue.Redis.Address,
			Password:  cfg.JobQueue.Redis.Password,
			DB:        cfg.JobQueue.Redis.DB,
			Queue:     cfg.JobQueue.Redis.Queue,
			BlockWait: time.Duration(cfg.JobQueue.Redis.BlockWait) * time.Second,
		})
	case "rabbitmq":
		return job.NewRabbitMQQueue(job.RabbitMQConfig{
			URL:        cfg.JobQueue.RabbitMQ.URL,
			Queue:      cfg.JobQueue.RabbitMQ.Queue,
			Prefetch:   cfg.JobQueue.RabbitMQ.Prefetch,
			Durable:    cfg.JobQueue.RabbitMQ.Durable,
			AutoDelete: cfg.JobQueue.RabbitMQ.AutoDelete,
		})
	default:
		return nil, fmt.Errorf("未知的队列驱动: %s", cfg.JobQueue.Driver)
	}
}
