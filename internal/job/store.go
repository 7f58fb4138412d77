package job

import (
	"context"

	xerrors "MeetingMCP/internal/errors"
)

// Store 抽象作业状态的持久化。
type Store interface {
	// Create 插入新的作业，ID 冲突时返回 ErrJobConflict。
	Create(ctx context.Context, j *Job) error
	// Get 返回指定作业，未找到时返回 ErrJobNotFound。
	Get(ctx context.Context, id string) (*Job, error)
	// Claim 原子地把作业置为运行中并累加尝试次数。
	// 已完成、运行中、重试耗尽的作业分别返回对应的哨兵错误。
	Claim(ctx context.Context, id string) (*Job, error)
	// MarkSucceeded 写入执行结果并把作业置为成功。
	MarkSucceeded(ctx context.Context, id string, record PipelineRecord) error
	// MarkFailed 记录失败原因。terminal 为真时作业不再被重试。
	MarkFailed(ctx context.Context, id string, code xerrors.Code, lastError string, terminal bool) error
	// List 返回符合过滤条件的作业。
	List(ctx context.Context, opts ListOptions) ([]*Job, error)
	// Stats 返回符合过滤条件的聚合统计。
	Stats(ctx context.Context, opts ListOptions) (JobStats, error)
	// Close 释放底层资源。
	Close() error
}
