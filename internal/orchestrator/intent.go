package orchestrator

import "strings"

// Intent 是从自然语言指令中识别出的操作意图。
type Intent string

const (
	IntentSummarize  Intent = "summarize"
	IntentRisk       Intent = "detect_risk"
	IntentJira       Intent = "create_jira"
	IntentNotify     Intent = "notify"
	IntentPreprocess Intent = "preprocess"
	IntentFull       Intent = "full_pipeline"
)

// intentRules 按声明顺序匹配，先命中者生效。
var intentRules = []struct {
	keywords []string
	intent   Intent
}{
	{[]string{"summarize"}, IntentSummarize},
	{[]string{"detect risk", "risk"}, IntentRisk},
	{[]string{"create jira", "createissue", "jira"}, IntentJira},
	{[]string{"notify team", "send notification", "notify"}, IntentNotify},
	{[]string{"preprocess"}, IntentPreprocess},
}

// DetectIntent 对指令做关键词意图识别，没有命中时走完整流水线。
func DetectIntent(message string) Intent {
	lowered := strings.ToLower(message)
	for _, rule := range intentRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lowered, keyword) {
				return rule.intent
			}
		}
	}
	return IntentFull
}
