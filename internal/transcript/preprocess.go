package transcript

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultChunkSize 是单个分片的词数上限，和下游模型的上下文窗口对齐。
const DefaultChunkSize = 1500

// contractionReplacer 展开常见英文缩写。长模式在前，
// 避免 "can't" 被 "n't" 规则截成 "ca not"。
var contractionReplacer = strings.NewReplacer(
	"can't", "cannot",
	"won't", "will not",
	"n't", " not",
	"'re", " are",
	"'s", " is",
	"'d", " would",
	"'ll", " will",
	"'t", " not",
	"'ve", " have",
	"'m", " am",
)

var (
	timestampPattern  = regexp.MustCompile(`\[\d{1,2}:\d{2}(:\d{2})?\]`)
	speakerTagPattern = regexp.MustCompile(`(?m)^\s*([a-z]+ ?\d*):`)
	fillerPattern     = regexp.MustCompile(`\b(um|uh|you know|like|okay|so|well)\b`)
	specialPattern    = regexp.MustCompile(`[^\w\s.,?!]`)
	spacePattern      = regexp.MustCompile(`\s+`)
)

// Clean 把原始转写规整为适合模型消费的纯文本：
// Unicode NFKC 归一、转小写、展开缩写、去时间戳与说话人标记、
// 去口头语与特殊符号，最后压缩空白。
func Clean(raw string) string {
	text := norm.NFKC.String(raw)
	text = strings.ToLower(text)
	text = contractionReplacer.Replace(text)
	text = timestampPattern.ReplaceAllString(text, "")
	text = speakerTagPattern.ReplaceAllString(text, "")
	text = fillerPattern.ReplaceAllString(text, "")
	text = specialPattern.ReplaceAllString(text, "")
	text = spacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Chunk 按词数切分文本，chunkSize 非正时使用默认值。
func Chunk(text string, chunkSize int) []string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var chunks []string
	for start := 0; start < len(words); start += chunkSize {
		end := start + chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

// Process 清洗并切分一批转写，返回分片与调试信息。
func Process(transcripts []string, chunkSize int) ([]string, map[string]any) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	var processed []string
	totalWords := 0
	for _, raw := range transcripts {
		cleaned := Clean(raw)
		if cleaned == "" {
			continue
		}
		totalWords += len(strings.Fields(cleaned))
		processed = append(processed, Chunk(cleaned, chunkSize)...)
	}

	sample := processed
	if len(sample) > 3 {
		sample = sample[:3]
	}
	debug := map[string]any{
		"input_transcripts": len(transcripts),
		"total_words":       totalWords,
		"chunk_size":        chunkSize,
		"chunks_produced":   len(processed),
		"sample_chunks":     sample,
	}
	return processed, debug
}
