package extract

import (
	"encoding/json"
	"sort"
	"strings"
)

// placeholderSummaryItems 是模型照抄提示词示例时会出现的占位文案。
var placeholderSummaryItems = map[string]struct{}{
	"point 1":              {},
	"point 2":              {},
	"point1":               {},
	"point2":               {},
	"-":                    {},
	"<summary bullet 1>":   {},
	"<summary bullet 2>":   {},
}

// ValidSummaryItem 过滤空白与占位摘要条目。
func ValidSummaryItem(item string) bool {
	trimmed := strings.TrimSpace(item)
	if trimmed == "" {
		return false
	}
	low := strings.ToLower(trimmed)
	if _, ok := placeholderSummaryItems[low]; ok {
		return false
	}
	if strings.HasPrefix(low, "point ") || strings.HasPrefix(low, "<summary") {
		return false
	}
	// 同时含尖括号开闭的条目是模板回显，无论括号出现在哪个位置。
	if strings.Contains(trimmed, "<") && strings.Contains(trimmed, ">") {
		return false
	}
	return true
}

// ValidActionItem 过滤占位任务条目。结构化条目要求所有字符串字段
// 非空且不以 < 开头，并且至少有一个非零值字段；纯文本条目同理。
func ValidActionItem(item any) bool {
	switch v := item.(type) {
	case map[string]any:
		hasValue := false
		for _, value := range v {
			if text, ok := value.(string); ok {
				trimmed := strings.TrimSpace(text)
				if trimmed == "" || strings.HasPrefix(trimmed, "<") {
					return false
				}
				hasValue = true
				continue
			}
			if value != nil {
				hasValue = true
			}
		}
		return hasValue
	case string:
		trimmed := strings.TrimSpace(v)
		return trimmed != "" && !strings.HasPrefix(trimmed, "<")
	case nil:
		return false
	default:
		return true
	}
}

// DedupStrings 按小写去空白后的内容去重，保留首次出现的原始形式。
func DedupStrings(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, item := range items {
		key := strings.ToLower(strings.TrimSpace(item))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

// DedupItems 对混合列表去重：结构化条目用键排序后的 JSON 作为指纹，
// 文本条目用小写去空白后的内容。首次出现者保留，重复执行结果不变。
func DedupItems(items []any) []any {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	var out []any
	for _, item := range items {
		key := itemFingerprint(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

func itemFingerprint(item any) string {
	switch v := item.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString("{")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(",")
			}
			kb, _ := json.Marshal(k)
			vb, _ := json.Marshal(v[k])
			b.Write(kb)
			b.WriteString(":")
			b.Write(vb)
		}
		b.WriteString("}")
		return b.String()
	case string:
		return strings.ToLower(strings.TrimSpace(v))
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}
