package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	xerrors "MeetingMCP/internal/errors"
)

// trailingCommaPattern 匹配紧邻 } 或 ] 之前的多余逗号。
var trailingCommaPattern = regexp.MustCompile(`,([ \t\r\n]*[}\]])`)

// LastJSONObject 在一段可能夹杂散文或代码围栏的模型输出中，
// 扫描花括号深度并记录每个顶层 {...} 块，返回最后一个。
// 模型常把示例 schema 当作草稿先输出一遍，最后一次出现的对象才是答案。
// 未找到平衡的花括号时返回 false，由调用方按提取失败降级处理。
func LastJSONObject(text string) (string, bool) {
	depth := 0
	start := -1
	lastStart, lastEnd := -1, -1
	for i, c := range text {
		switch c {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				lastStart, lastEnd = start, i+1
				start = -1
			}
		}
	}
	if lastStart < 0 {
		return "", false
	}
	return text[lastStart:lastEnd], true
}

// Repair 对候选 JSON 做两类修复：
// 单引号数量超过双引号时判定为非标准引号习惯，整体替换为双引号；
// 并且总是去掉 } 或 ] 之前的尾逗号。
func Repair(candidate string) string {
	fixed := candidate
	if strings.Count(fixed, "'") > strings.Count(fixed, `"`) {
		fixed = strings.ReplaceAll(fixed, "'", `"`)
	}
	return trailingCommaPattern.ReplaceAllString(fixed, "$1")
}

// ParseObject 从模型输出中恢复最后一个顶层 JSON 对象并解析。
// 恢复或解析失败都返回 EXTRACTION_FAILURE，调用方以空结构化结果继续。
func ParseObject(text string) (map[string]any, error) {
	candidate, ok := LastJSONObject(text)
	if !ok {
		return nil, xerrors.New(xerrors.CodeExtractionFailure, "模型输出中没有完整的 JSON 对象")
	}
	repaired := Repair(candidate)

	var parsed map[string]any
	if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeExtractionFailure, err, "候选 JSON 解析失败")
	}
	return parsed, nil
}
