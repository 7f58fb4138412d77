package job

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	xerrors "MeetingMCP/internal/errors"
)

// MemoryStore 以内存方式保存作业状态，主要用于测试与单机部署。
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewMemoryStore 创建 MemoryStore。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*Job)}
}

// Create 实现 Store 接口。
func (m *MemoryStore) Create(_ context.Context, j *Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j == nil {
		return xerrors.New(xerrors.CodeInvalidArgument, "job 不能为空")
	}
	if j.ID == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "作业 ID 不能为空")
	}
	if _, ok := m.jobs[j.ID]; ok {
		return ErrJobConflict
	}
	now := time.Now().Unix()
	if j.CreatedAt == 0 {
		j.CreatedAt = now
	}
	j.UpdatedAt = now
	m.jobs[j.ID] = cloneJob(j)
	return nil
}

// Get 返回作业。
func (m *MemoryStore) Get(_ context.Context, id string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return cloneJob(j), nil
}

// Claim 将作业状态更新为运行中。
func (m *MemoryStore) Claim(_ context.Context, id string) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	switch j.Status {
	case StatusSucceeded:
		return cloneJob(j), ErrJobCompleted
	case StatusRunning:
		return cloneJob(j), ErrJobConflict
	}
	if j.Attempts >= j.MaxRetries {
		return cloneJob(j), ErrJobExhausted
	}
	j.Status = StatusRunning
	j.Attempts++
	j.LastError = ""
	j.ErrorCode = ""
	j.UpdatedAt = time.Now().Unix()
	return cloneJob(j), nil
}

// MarkSucceeded 记录成功结果。
func (m *MemoryStore) MarkSucceeded(_ context.Context, id string, record PipelineRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	j.Status = StatusSucceeded
	j.Result = &record
	j.LastError = ""
	j.ErrorCode = ""
	j.UpdatedAt = time.Now().Unix()
	return nil
}

// MarkFailed 标记作业失败。terminal 为真时直接耗尽剩余重试。
func (m *MemoryStore) MarkFailed(_ context.Context, id string, code xerrors.Code, lastError string, terminal bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	j.Status = StatusFailed
	j.LastError = lastError
	j.ErrorCode = string(code)
	if terminal && j.Attempts < j.MaxRetries {
		j.Attempts = j.MaxRetries
	}
	j.UpdatedAt = time.Now().Unix()
	return nil
}

// List 返回符合过滤条件的作业。
func (m *MemoryStore) List(_ context.Context, opts ListOptions) ([]*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	opts.applyDefaults()

	results := make([]*Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		if !matchesListFilters(j, opts) {
			continue
		}
		results = append(results, cloneJob(j))
	}

	sort.Slice(results, func(i, k int) bool {
		if opts.Order == SortByUpdatedAsc {
			if results[i].UpdatedAt == results[k].UpdatedAt {
				if results[i].CreatedAt == results[k].CreatedAt {
					return results[i].ID < results[k].ID
				}
				return results[i].CreatedAt < results[k].CreatedAt
			}
			return results[i].UpdatedAt < results[k].UpdatedAt
		}
		if results[i].UpdatedAt == results[k].UpdatedAt {
			if results[i].CreatedAt == results[k].CreatedAt {
				return results[i].ID < results[k].ID
			}
			return results[i].CreatedAt > results[k].CreatedAt
		}
		return results[i].UpdatedAt > results[k].UpdatedAt
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(results) {
			return []*Job{}, nil
		}
		results = results[opts.Offset:]
	}
	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

// Stats 统计符合过滤条件的作业数量与更新时间范围。
func (m *MemoryStore) Stats(_ context.Context, opts ListOptions) (JobStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	opts.applyDefaults()

	stats := JobStats{}
	for _, j := range m.jobs {
		if !matchesListFilters(j, opts) {
			continue
		}
		stats.Total++
		switch j.Status {
		case StatusPending:
			stats.Pending++
		case StatusRunning:
			stats.Running++
		case StatusSucceeded:
			stats.Succeeded++
		case StatusFailed:
			stats.Failed++
		}
		if j.UpdatedAt > stats.NewestUpdatedAt {
			stats.NewestUpdatedAt = j.UpdatedAt
		}
		if stats.OldestUpdatedAt == 0 || (j.UpdatedAt != 0 && j.UpdatedAt < stats.OldestUpdatedAt) {
			stats.OldestUpdatedAt = j.UpdatedAt
		}
	}
	if stats.Total == 0 {
		stats.OldestUpdatedAt = 0
		stats.NewestUpdatedAt = 0
	}
	return stats, nil
}

// Close 对内存存储无需操作。
func (m *MemoryStore) Close() error {
	return nil
}

func cloneJob(j *Job) *Job {
	clone := *j
	if j.Result != nil {
		resultCopy := *j.Result
		clone.Result = &resultCopy
	}
	clone.Params = cloneParams(j.Params)
	return &clone
}

func matchesListFilters(j *Job, opts ListOptions) bool {
	if len(opts.Statuses) > 0 {
		matched := false
		for _, status := range opts.Statuses {
			if j.Status == status {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if opts.UpdatedGTE > 0 && j.UpdatedAt < opts.UpdatedGTE {
		return false
	}
	if opts.UpdatedLTE > 0 && j.UpdatedAt > opts.UpdatedLTE {
		return false
	}
	if opts.HasResult != nil && jobHasResult(j) != *opts.HasResult {
		return false
	}
	if opts.Query != "" && !matchesQuery(j, opts.Query) {
		return false
	}
	return true
}

func jobHasResult(j *Job) bool {
	if j == nil || j.Result == nil {
		return false
	}
	result := j.Result
	return result.Intent != "" || result.Summary != "" || result.Payload != "" || result.Observations != ""
}

func matchesQuery(j *Job, query string) bool {
	query = strings.ToLower(query)
	fields := []string{j.ID, j.Message, j.MeetingID, j.LastError}
	if j.Result != nil {
		fields = append(fields, j.Result.Intent, j.Result.Summary, j.Result.Payload, j.Result.Observations)
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// ensure interface compliance at compile time
var _ Store = (*MemoryStore)(nil)
