package job

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"MeetingMCP/pkg/logger"
)

// Handler 处理来自消息队列的作业 ID。
type Handler func(ctx context.Context, jobID string) error

// Producer 负责向队列投递作业。
type Producer interface {
	Publish(ctx context.Context, jobID string) error
	Close() error
}

// Consumer 负责从队列中消费作业。
type Consumer interface {
	Consume(ctx context.Context, workerCount int, handler Handler) error
	Close() error
}

// Queue 同时具备生产者与消费者能力。
type Queue interface {
	Producer
	Consumer
}

// queueMessage 是队列上传输的作业信封。除作业 ID 外携带入队时间，
// 消费端据此观测作业在队列中的等待时长。
type queueMessage struct {
	JobID      string `json:"job_id"`
	EnqueuedAt int64  `json:"enqueued_at_ms,omitempty"`
}

func newQueueMessage(jobID string) queueMessage {
	return queueMessage{JobID: jobID, EnqueuedAt: time.Now().UnixMilli()}
}

func (m queueMessage) encode() []byte {
	raw, err := json.Marshal(m)
	if err != nil {
		return []byte(m.JobID)
	}
	return raw
}

// decodeQueueMessage 解析队列消息。裸作业 ID（人工投递或旧格式）
// 原样接受，入队时间缺省为零。
func decodeQueueMessage(raw []byte) queueMessage {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "{") {
		var m queueMessage
		if err := json.Unmarshal([]byte(trimmed), &m); err == nil && m.JobID != "" {
			return m
		}
	}
	return queueMessage{JobID: trimmed}
}

// queueWait 返回消息在队列中的等待时长；没有入队时间时为 0。
func (m queueMessage) queueWait() time.Duration {
	if m.EnqueuedAt <= 0 {
		return 0
	}
	elapsed := time.Now().UnixMilli() - m.EnqueuedAt
	if elapsed < 0 {
		return 0
	}
	return time.Duration(elapsed) * time.Millisecond
}

func observeDequeue(m queueMessage) {
	if wait := m.queueWait(); wait > 0 {
		logger.L().Debug("作业出队",
			"job_id", m.JobID,
			"queue_wait_ms", wait.Milliseconds(),
		)
	}
}
