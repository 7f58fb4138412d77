package job

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	xerrors "MeetingMCP/internal/errors"
	"MeetingMCP/internal/observability/alerting"
	"MeetingMCP/internal/orchestrator"
	"MeetingMCP/internal/tool"
	"MeetingMCP/pkg/logger"
)

// Processor 负责从队列消费作业并交给编排器执行。
type Processor struct {
	executor    Executor
	store       Store
	consumer    Consumer
	producer    Producer
	workerCount int
	logger      *slog.Logger
	recovery    RecoveryHandler
	alerter     alerting.Dispatcher
}

// ProcessorOption 定义可选配置。
type ProcessorOption func(*Processor)

// WithProcessorLogger 指定日志输出。
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithWorkerCount 设置消费协程数量。
func WithWorkerCount(workers int) ProcessorOption {
	return func(p *Processor) {
		if workers > 0 {
			p.workerCount = workers
		}
	}
}

// WithRecoveryHandler 配置失败补偿策略。
func WithRecoveryHandler(handler RecoveryHandler) ProcessorOption {
	return func(p *Processor) {
		p.recovery = handler
	}
}

// WithAlertDispatcher 配置告警派发器。
func WithAlertDispatcher(dispatcher alerting.Dispatcher) ProcessorOption {
	return func(p *Processor) {
		p.alerter = dispatcher
	}
}

// NewProcessor 构造 Processor。
func NewProcessor(executor Executor, store Store, consumer Consumer, producer Producer, opts ...ProcessorOption) *Processor {
	p := &Processor{
		executor:    executor,
		store:       store,
		consumer:    consumer,
		producer:    producer,
		workerCount: 1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.workerCount <= 0 {
		p.workerCount = 1
	}
	return p
}

// Start 启动作业处理循环。
func (p *Processor) Start(ctx context.Context) error {
	if p.consumer == nil {
		return xerrors.New(xerrors.CodeInitializationFailure, "未配置作业消费者")
	}
	return p.consumer.Consume(ctx, p.workerCount, p.handle)
}

func (p *Processor) handle(ctx context.Context, jobID string) error {
	if p.store == nil || p.executor == nil {
		return xerrors.New(xerrors.CodeInitializationFailure, "处理器未初始化")
	}
	j, err := p.store.Claim(ctx, jobID)
	if err != nil {
		if stdErrors.Is(err, ErrJobNotFound) || stdErrors.Is(err, ErrJobCompleted) || stdErrors.Is(err, ErrJobExhausted) {
			p.logDebug("跳过作业", slog.String("job_id", jobID), slog.String("reason", err.Error()))
			return nil
		}
		logger.L().Error("领取作业失败", slog.Any("error", err), slog.String("job_id", jobID))
		p.emitAlert(ctx, &Job{ID: jobID}, CodeJobProcessing, err, "claim")
		return err
	}

	params := cloneParams(j.Params)
	if j.MeetingID != "" {
		if params == nil {
			params = make(map[string]any, 1)
		}
		if _, ok := params["meeting_id"]; !ok {
			params["meeting_id"] = j.MeetingID
		}
	}
	result, execErr := p.executor.Orchestrate(ctx, j.Message, params)
	if execErr != nil {
		return p.handleExecutionFailure(ctx, j, execErr)
	}

	record := recordFrom(result)
	if err := p.store.MarkSucceeded(ctx, j.ID, record); err != nil {
		logger.L().Error("标记作业成功状态失败", slog.Any("error", err), slog.String("job_id", j.ID))
		if storeErr := p.store.MarkFailed(ctx, j.ID, CodeJobProcessing, err.Error(), false); storeErr != nil {
			logger.L().Error("回写失败状态出错", slog.Any("error", storeErr), slog.String("job_id", j.ID))
			return storeErr
		}
		if pubErr := p.producer.Publish(ctx, j.ID); pubErr != nil {
			return xerrors.Wrap(CodeJobPublish, pubErr, fmt.Sprintf("作业 %s 在标记成功失败后重投失败", j.ID))
		}
		logger.Audit().Warn("作业标记成功失败后重试",
			slog.String("job_id", j.ID),
			slog.String("message", j.Message),
			slog.String("error", err.Error()),
		)
		return nil
	}
	logger.Audit().Info("作业执行成功",
		slog.String("job_id", j.ID),
		slog.String("message", j.Message),
		slog.String("intent", record.Intent),
	)
	return nil
}

func (p *Processor) handleExecutionFailure(ctx context.Context, j *Job, execErr error) error {
	code := xerrors.CodeOf(execErr)
	if code == xerrors.CodeUnknown {
		code = CodeJobProcessing
	}
	retryable := xerrors.RetryableError(execErr)
	terminal := j.Attempts >= j.MaxRetries || !retryable

	if !retryable && p.recovery != nil {
		if fallback, recErr := p.recovery.Recover(ctx, j, execErr); recErr != nil {
			wrapped := xerrors.Wrap(CodeJobCompensate, recErr, "作业补偿失败")
			logger.L().Error("执行补偿逻辑失败",
				slog.Any("error", wrapped),
				slog.String("job_id", j.ID))
			p.emitAlert(ctx, j, CodeJobCompensate, wrapped, "compensate")
		} else if fallback != nil {
			if fallback.Observations == "" {
				fallback.Observations = fmt.Sprintf("降级处理: %v", execErr)
			}
			if err := p.store.MarkSucceeded(ctx, j.ID, *fallback); err != nil {
				logger.L().Error("记录降级结果失败", slog.Any("error", err), slog.String("job_id", j.ID))
				if storeErr := p.store.MarkFailed(ctx, j.ID, code, err.Error(), false); storeErr != nil {
					logger.L().Error("降级失败后的回写失败状态出错", slog.Any("error", storeErr), slog.String("job_id", j.ID))
					return storeErr
				}
				if pubErr := p.producer.Publish(ctx, j.ID); pubErr != nil {
					return xerrors.Wrap(CodeJobPublish, pubErr, fmt.Sprintf("作业 %s 在降级失败后重投失败", j.ID))
				}
				return nil
			}
			logger.Audit().Warn("作业降级完成",
				slog.String("job_id", j.ID),
				slog.String("message", j.Message),
				slog.String("observations", fallback.Observations),
			)
			p.emitAlert(ctx, j, code, execErr, "degraded")
			return nil
		}
	}

	if storeErr := p.store.MarkFailed(ctx, j.ID, code, execErr.Error(), terminal); storeErr != nil {
		logger.L().Error("标记作业失败状态出错", slog.Any("error", storeErr), slog.String("job_id", j.ID))
		return storeErr
	}
	logger.Audit().Warn("作业执行失败",
		slog.String("job_id", j.ID),
		slog.String("message", j.Message),
		slog.Bool("terminal", terminal),
		slog.String("error", execErr.Error()),
		slog.String("error_code", string(code)),
		slog.Int("attempts", j.Attempts),
		slog.Int("max_retries", j.MaxRetries),
	)

	stage := "retry"
	if terminal {
		stage = "terminal"
	} else if !retryable {
		stage = "non_retryable"
	}
	p.emitAlert(ctx, j, code, execErr, stage)

	if retryable && !terminal {
		if pubErr := p.producer.Publish(ctx, j.ID); pubErr != nil {
			return xerrors.Wrap(CodeJobPublish, pubErr, fmt.Sprintf("作业 %s 重投失败", j.ID))
		}
		p.logDebug("作业已重新排队", slog.String("job_id", j.ID), slog.Int("attempts", j.Attempts))
	}
	return nil
}

// recordFrom 把流水线结果压缩为持久化的作业记录。
func recordFrom(result *orchestrator.PipelineResult) PipelineRecord {
	if result == nil {
		return PipelineRecord{}
	}
	record := PipelineRecord{Intent: string(result.Intent)}
	if outcome, ok := result.Results["summarization"]; ok && outcome.Payload != nil {
		if summary, ok := outcome.Payload["summary"].(string); ok {
			record.Summary = summary
		}
	}
	if len(result.Results) > 0 {
		if encoded, err := json.Marshal(result.Results); err == nil {
			record.Payload = string(encoded)
		}
	}
	if result.Degraded {
		failed := make([]string, 0, len(result.Results))
		for stage, outcome := range result.Results {
			if outcome.Status == tool.StatusError {
				failed = append(failed, stage)
			}
		}
		sort.Strings(failed)
		record.Observations = "部分阶段降级: " + strings.Join(failed, ", ")
	}
	return record
}

func (p *Processor) logDebug(msg string, attrs ...slog.Attr) {
	if p.logger != nil {
		args := make([]any, len(attrs))
		for i, attr := range attrs {
			args[i] = attr
		}
		p.logger.Debug(msg, args...)
	}
}

func (p *Processor) emitAlert(ctx context.Context, j *Job, code xerrors.Code, cause error, stage string) {
	if p == nil || p.alerter == nil || j == nil {
		return
	}
	attrs := xerrors.AttributesOf(code)
	message := attrs.Message
	if cause != nil {
		message = cause.Error()
	}
	metadata := map[string]string{
		"stage": stage,
	}
	if cause != nil {
		metadata["cause"] = cause.Error()
	}
	event := alerting.Event{
		Code:       code,
		Message:    message,
		Severity:   attrs.Severity,
		JobID:      j.ID,
		Attempts:   j.Attempts,
		MaxRetries: j.MaxRetries,
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}
	if err := p.alerter.Notify(ctx, event); err != nil {
		logger.L().Error("告警通知失败",
			slog.Any("error", err),
			slog.String("job_id", j.ID),
			slog.String("stage", stage),
		)
	}
}
