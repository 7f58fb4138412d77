package job

import (
	"context"
	"sort"
	"strings"

	"MeetingMCP/internal/orchestrator"
	"MeetingMCP/internal/tool"

	xerrors "MeetingMCP/internal/errors"
)

// Executor 定义了处理器所需的编排能力。
type Executor interface {
	Orchestrate(ctx context.Context, message string, params map[string]any) (*orchestrator.PipelineResult, error)
}

// OrchestratorExecutor 把编排器适配为队列处理器使用的执行器。
// 编排器内部对单个阶段的失败做降级续跑，这里只在所有阶段都
// 失败时把结果升级为可重试的执行错误。
type OrchestratorExecutor struct {
	orchestrator *orchestrator.Orchestrator
}

// NewOrchestratorExecutor 构造 OrchestratorExecutor。
func NewOrchestratorExecutor(o *orchestrator.Orchestrator) *OrchestratorExecutor {
	return &OrchestratorExecutor{orchestrator: o}
}

// Orchestrate 执行一次编排流水线。
func (e *OrchestratorExecutor) Orchestrate(ctx context.Context, message string, params map[string]any) (*orchestrator.PipelineResult, error) {
	if e == nil || e.orchestrator == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "编排器未初始化")
	}
	result := e.orchestrator.Orchestrate(ctx, message, params)
	if result == nil {
		return nil, xerrors.New(CodeJobProcessing, "编排器未返回结果")
	}
	if allStagesFailed(result) {
		failed := failedStages(result)
		return nil, xerrors.New(CodeJobProcessing, "所有流水线阶段均失败: "+strings.Join(failed, ", "))
	}
	return result, nil
}

func allStagesFailed(result *orchestrator.PipelineResult) bool {
	if len(result.Results) == 0 {
		return false
	}
	for _, outcome := range result.Results {
		if outcome.Status != tool.StatusError {
			return false
		}
	}
	return true
}

func failedStages(result *orchestrator.PipelineResult) []string {
	stages := make([]string, 0, len(result.Results))
	for stage, outcome := range result.Results {
		if outcome.Status == tool.StatusError {
			stages = append(stages, stage)
		}
	}
	sort.Strings(stages)
	return stages
}

var _ Executor = (*OrchestratorExecutor)(nil)
