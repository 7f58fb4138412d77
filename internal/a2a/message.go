package a2a

import (
	"github.com/google/uuid"
)

// Role 标识消息的发送方身份。
type Role string

const (
	RoleClient Role = "client"
	RoleAgent  Role = "agent"
)

// PartKind 是消息载荷的封闭枚举。消费方遇到未知类型时跳过而非失败，
// 以保持向前兼容。
type PartKind string

const (
	KindText       PartKind = "text"
	KindJSON       PartKind = "json"
	KindMeetingID  PartKind = "meeting_id"
	KindSummary    PartKind = "summary"
	KindTask       PartKind = "task"
	KindActionItem PartKind = "action_item"
	KindRisk       PartKind = "risk"
	KindResult     PartKind = "result"
)

// KnownKind 判断类型是否属于封闭枚举。
func KnownKind(kind PartKind) bool {
	switch kind {
	case KindText, KindJSON, KindMeetingID, KindSummary, KindTask, KindActionItem, KindRisk, KindResult:
		return true
	default:
		return false
	}
}

// Part 是带类型标签的载荷单元。文本类载荷放在 Text，
// 结构化载荷放在 Data，两者互斥。
type Part struct {
	Kind PartKind       `json:"kind"`
	Text string         `json:"text,omitempty"`
	Data map[string]any `json:"data,omitempty"`
}

// Message 是组件之间传递的消息信封。Parts 保持追加顺序。
type Message struct {
	ID    string `json:"message_id"`
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// New 创建一个空消息信封，ID 为随机 128 位标识。
func New(role Role) *Message {
	return &Message{
		ID:    uuid.NewString(),
		Role:  role,
		Parts: make([]Part, 0, 4),
	}
}

// AddText 追加一段纯文本。
func (m *Message) AddText(text string) *Message {
	return m.Add(Part{Kind: KindText, Text: text})
}

// AddJSON 追加一段结构化载荷。
func (m *Message) AddJSON(data map[string]any) *Message {
	return m.Add(Part{Kind: KindJSON, Data: data})
}

// AddTextPart 以指定类型追加文本载荷。
func (m *Message) AddTextPart(kind PartKind, text string) *Message {
	return m.Add(Part{Kind: kind, Text: text})
}

// AddDataPart 以指定类型追加结构化载荷。
func (m *Message) AddDataPart(kind PartKind, data map[string]any) *Message {
	return m.Add(Part{Kind: kind, Data: data})
}

// Add 纯追加一个载荷单元。
func (m *Message) Add(part Part) *Message {
	m.Parts = append(m.Parts, part)
	return m
}

// First 返回第一个匹配类型的载荷；未知或缺失返回 false。
// 与 All 构成两种消费模式：单值取首个，集合取全部。
func (m *Message) First(kind PartKind) (Part, bool) {
	if m == nil || !KnownKind(kind) {
		return Part{}, false
	}
	for _, part := range m.Parts {
		if part.Kind == kind {
			return part, true
		}
	}
	return Part{}, false
}

// All 按插入顺序返回所有匹配类型的载荷。
func (m *Message) All(kind PartKind) []Part {
	if m == nil || !KnownKind(kind) {
		return nil
	}
	var parts []Part
	for _, part := range m.Parts {
		if part.Kind == kind {
			parts = append(parts, part)
		}
	}
	return parts
}

// FirstText 返回第一个匹配类型载荷的文本内容。
func (m *Message) FirstText(kind PartKind) (string, bool) {
	part, ok := m.First(kind)
	if !ok {
		return "", false
	}
	return part.Text, true
}

// FirstData 返回第一个匹配类型载荷的结构化内容。
func (m *Message) FirstData(kind PartKind) (map[string]any, bool) {
	part, ok := m.First(kind)
	if !ok || part.Data == nil {
		return nil, false
	}
	return part.Data, true
}
