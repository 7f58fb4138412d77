package tool

import "strings"

// 调用方来自不同客户端，同一语义的参数名并不统一，
// 这里按别名顺序取第一个命中的值。

// StringParam 取第一个命中的非空字符串参数。
func StringParam(params map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		if value, ok := params[key]; ok {
			if text, ok := value.(string); ok && strings.TrimSpace(text) != "" {
				return text, true
			}
		}
	}
	return "", false
}

// BoolParam 取第一个命中的布尔参数。
func BoolParam(params map[string]any, keys ...string) (bool, bool) {
	for _, key := range keys {
		if value, ok := params[key]; ok {
			if b, ok := value.(bool); ok {
				return b, true
			}
		}
	}
	return false, false
}

// IntParam 取第一个命中的整数参数，兼容 JSON 解码出的 float64。
func IntParam(params map[string]any, keys ...string) (int, bool) {
	for _, key := range keys {
		if value, ok := params[key]; ok {
			switch v := value.(type) {
			case int:
				return v, true
			case int64:
				return int(v), true
			case float64:
				return int(v), true
			}
		}
	}
	return 0, false
}

// ListParam 取第一个命中的列表参数。
func ListParam(params map[string]any, keys ...string) []any {
	for _, key := range keys {
		if value, ok := params[key]; ok {
			switch v := value.(type) {
			case []any:
				return v
			case []string:
				out := make([]any, 0, len(v))
				for _, item := range v {
					out = append(out, item)
				}
				return out
			case []map[string]any:
				out := make([]any, 0, len(v))
				for _, item := range v {
					out = append(out, item)
				}
				return out
			}
		}
	}
	return nil
}

// StringsParam 取第一个命中的字符串列表参数。
// 单个字符串视为只有一个元素的列表。
func StringsParam(params map[string]any, keys ...string) []string {
	for _, key := range keys {
		value, ok := params[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case []string:
			return v
		case []any:
			var out []string
			for _, item := range v {
				if text, ok := item.(string); ok {
					out = append(out, text)
				}
			}
			if out != nil {
				return out
			}
		case string:
			if strings.TrimSpace(v) != "" {
				return []string{v}
			}
		}
	}
	return nil
}

// MapParam 取第一个命中的对象参数。
func MapParam(params map[string]any, keys ...string) (map[string]any, bool) {
	for _, key := range keys {
		if value, ok := params[key]; ok {
			if m, ok := value.(map[string]any); ok {
				return m, true
			}
		}
	}
	return nil, false
}
