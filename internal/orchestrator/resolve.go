package orchestrator

import (
	"regexp"
	"strings"
)

var (
	quotedPattern     = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)
	phraseTailPattern = regexp.MustCompile(`(?i)(?:meeting|for|about|of)\s+([\w\-]+)\s*$`)
	wordPattern       = regexp.MustCompile(`[\w\-]+`)
)

// ResolveEntity 把指令中提到的实体名解析到候选列表中的一项。
// 分三级：引号或句尾短语的精确匹配，词重叠打分，最后双向子串包含。
// 都不命中时返回 false。
func ResolveEntity(message string, candidates []string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}

	// 第一级：显式提到的名字。
	if mention := explicitMention(message); mention != "" {
		for _, candidate := range candidates {
			if strings.EqualFold(strings.TrimSpace(candidate), mention) {
				return candidate, true
			}
		}
	}

	// 第二级：词重叠最高的候选。
	queryWords := wordSet(message)
	best := ""
	bestScore := 0
	for _, candidate := range candidates {
		score := 0
		for word := range wordSet(candidate) {
			if _, ok := queryWords[word]; ok {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = candidate, score
		}
	}
	if bestScore > 0 {
		return best, true
	}

	// 第三级：双向子串包含。
	lowered := strings.ToLower(message)
	for _, candidate := range candidates {
		c := strings.ToLower(strings.TrimSpace(candidate))
		if c == "" {
			continue
		}
		if strings.Contains(lowered, c) || strings.Contains(c, lowered) {
			return candidate, true
		}
	}
	return "", false
}

func explicitMention(message string) string {
	if m := quotedPattern.FindStringSubmatch(message); m != nil {
		if m[1] != "" {
			return strings.TrimSpace(m[1])
		}
		return strings.TrimSpace(m[2])
	}
	if m := phraseTailPattern.FindStringSubmatch(message); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func wordSet(text string) map[string]struct{} {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	set := make(map[string]struct{}, len(words))
	for _, word := range words {
		set[word] = struct{}{}
	}
	return set
}
