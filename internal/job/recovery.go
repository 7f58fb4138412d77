package job

import (
	"context"
	"strings"
)

// RecoveryHandler 定义了在作业执行失败时的补偿策略。
type RecoveryHandler interface {
	// Recover 尝试根据失败原因进行补偿或降级。
	// 返回的 PipelineRecord 将作为降级结果写入作业；若返回 nil 则继续按照失败流程处理。
	Recover(ctx context.Context, j *Job, cause error) (*PipelineRecord, error)
}

const excerptRecoveryLimit = 300

// ExcerptRecovery 在编排完全失败时把原始转写截成摘录，保证
// 作业仍然产出一个可用的降级结果。
type ExcerptRecovery struct{}

// Recover 实现 RecoveryHandler。
func (ExcerptRecovery) Recover(_ context.Context, j *Job, _ error) (*PipelineRecord, error) {
	if j == nil {
		return nil, nil
	}
	transcripts := transcriptsFromParams(j.Params)
	if len(transcripts) == 0 {
		return nil, nil
	}
	full := strings.TrimSpace(strings.Join(transcripts, "\n"))
	if full == "" {
		return nil, nil
	}
	summary := full
	if len(summary) > excerptRecoveryLimit {
		summary = summary[:excerptRecoveryLimit] + "..."
	}
	// 降级结果没有经过意图检测，意图留空。
	return &PipelineRecord{Summary: summary}, nil
}

func transcriptsFromParams(params map[string]any) []string {
	for _, key := range []string{"transcripts", "data"} {
		raw, ok := params[key]
		if !ok {
			continue
		}
		switch value := raw.(type) {
		case []string:
			return value
		case []any:
			out := make([]string, 0, len(value))
			for _, item := range value {
				if text, ok := item.(string); ok {
					out = append(out, text)
				}
			}
			return out
		case string:
			if strings.TrimSpace(value) != "" {
				return []string{value}
			}
		}
	}
	return nil
}

var _ RecoveryHandler = ExcerptRecovery{}
