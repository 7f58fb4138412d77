package extract

import (
	"math"
	"regexp"
	"strings"
)

// ActionItem 是从会议内容中提取出的结构化任务。创建后不再修改。
type ActionItem struct {
	Title      string  `json:"title"`
	Owner      string  `json:"owner,omitempty"`
	Due        string  `json:"due,omitempty"`
	Raw        string  `json:"raw"`
	Confidence float64 `json:"confidence"`
}

const (
	// DefaultMaxTasks 限制单次提取产出的任务数量。
	DefaultMaxTasks = 10
	// DefaultMinConfidence 是任务被采纳所需的最低得分。
	DefaultMinConfidence = 0.4
)

// conditionalMarkers 命中任意一个即判定句子为条件或假设，直接判零分。
var conditionalMarkers = []string{
	" if ", " might ", " could ", " maybe ", " may ", " if we ", "when we ", "when the ",
}

var strongVerbs = []string{
	"assign", "implement", "create", "prepare", "fix", "verify", "test",
	"review", "document", "schedule", "deliver", "investigate", "follow up", "follow-up",
}

var imperativeVerbs = map[string]struct{}{
	"prepare": {}, "create": {}, "assign": {}, "investigate": {}, "implement": {},
	"fix": {}, "verify": {}, "test": {}, "review": {}, "document": {}, "schedule": {},
}

var (
	ownerColonPattern  = regexp.MustCompile(`(?i)owner:\s*([A-Z][a-zA-Z\-]+)`)
	ownerAssignPattern = regexp.MustCompile(`(?i)assign(?:ed)?(?: to)?\s+([A-Z][a-zA-Z\-]+)`)
	ownerRolePattern   = regexp.MustCompile(`([A-Z][a-zA-Z\-]+)\s*\(`)
	ownerModalPattern  = regexp.MustCompile(`([A-Z][a-zA-Z\-]+)\s+(?:will|shall|should|can|must)\b`)
	ownerToVerbPattern = regexp.MustCompile(`(?i)([A-Za-z][a-zA-Z\-]+)\s*,?\s+to\s+\w+`)

	dueByPattern  = regexp.MustCompile(`(?i)by\s+([A-Z][a-z]+\b|\d{1,2}/\d{1,2}/\d{2,4}|\d{4}-\d{2}-\d{2})`)
	dueDuePattern = regexp.MustCompile(`(?i)due\s+(?:on\s+)?([A-Z][a-z]+\b|\d{1,2}/\d{1,2}/\d{2,4})`)

	speakerPrefixPattern = regexp.MustCompile(`^[A-Za-z]+\s*\([^)]*\):?\s*`)
	firstWordPattern     = regexp.MustCompile(`^([A-Za-z]+)\s`)
	whitespacePattern    = regexp.MustCompile(`\s+`)
)

// Owner 尝试从句子中识别任务负责人，无法识别时返回空串。
func Owner(sentence string) string {
	for _, pattern := range []*regexp.Regexp{
		ownerColonPattern,
		ownerAssignPattern,
		ownerRolePattern,
		ownerModalPattern,
		ownerToVerbPattern,
	} {
		if m := pattern.FindStringSubmatch(sentence); m != nil {
			return m[1]
		}
	}
	return ""
}

// Due 尝试从句子中识别截止时间，无法识别时返回空串。
func Due(sentence string) string {
	if m := dueByPattern.FindStringSubmatch(sentence); m != nil {
		return m[1]
	}
	if m := dueDuePattern.FindStringSubmatch(sentence); m != nil {
		return m[1]
	}
	return ""
}

// Score 计算句子是可执行任务的置信度，取值 [0,1]：
// 条件/假设句直接判 0；负责人 +0.4；截止时间 +0.2；强动词 +0.3；
// 祈使动词开头 +0.1；超过 400 字符 -0.2；最终截断到 [0,1]。
func Score(sentence string) float64 {
	s := strings.TrimSpace(sentence)
	if s == "" {
		return 0
	}
	low := strings.ToLower(s)

	if strings.HasPrefix(low, "if ") {
		return 0
	}
	for _, marker := range conditionalMarkers {
		if strings.Contains(low, marker) {
			return 0
		}
	}

	score := 0.0
	if Owner(s) != "" {
		score += 0.4
	}
	if Due(s) != "" {
		score += 0.2
	}
	for _, verb := range strongVerbs {
		if strings.Contains(low, verb) {
			score += 0.3
			break
		}
	}
	if m := firstWordPattern.FindStringSubmatch(s); m != nil {
		if _, ok := imperativeVerbs[strings.ToLower(m[1])]; ok {
			score += 0.1
		}
	}
	if len(s) > 400 {
		score -= 0.2
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// SplitSentences 压缩空白后按句末标点加空白切分。
func SplitSentences(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	normalized := whitespacePattern.ReplaceAllString(trimmed, " ")

	var sentences []string
	start := 0
	runes := []rune(normalized)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '?', '!':
			if i+1 < len(runes) && runes[i+1] == ' ' {
				sentence := strings.TrimSpace(string(runes[start : i+1]))
				if sentence != "" {
					sentences = append(sentences, sentence)
				}
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(string(runes[start:])); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

// CleanTitle 去掉 "Speaker (role):" 形式的前缀并截断到 200 字符。
func CleanTitle(sentence string) string {
	title := strings.TrimSpace(speakerPrefixPattern.ReplaceAllString(sentence, ""))
	if len(title) > 200 {
		title = strings.TrimRight(title[:197], " ") + "..."
	}
	return title
}

// Tasks 从自由文本中提取结构化任务：逐句打分，达到阈值的句子
// 产出一条 ActionItem，数量到达上限即停止。
func Tasks(text string, maxTasks int, minConfidence float64) []ActionItem {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if maxTasks <= 0 {
		maxTasks = DefaultMaxTasks
	}
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}

	var tasks []ActionItem
	for _, sentence := range SplitSentences(text) {
		score := Score(sentence)
		if score < minConfidence {
			continue
		}
		tasks = append(tasks, ActionItem{
			Title:      CleanTitle(sentence),
			Owner:      Owner(sentence),
			Due:        Due(sentence),
			Raw:        sentence,
			Confidence: math.Round(score*100) / 100,
		})
		if len(tasks) >= maxTasks {
			break
		}
	}
	return tasks
}
