package bart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"MeetingMCP/internal/summarizer"
)

// Bridge 通过调用外部 Python 脚本运行本地摘要模型。
// 模型加载很慢，脚本进程常驻与否由脚本自行决定，这里每次调用拉起一次。
type Bridge struct {
	pythonExec string
	scriptPath string
	workingDir string
}

var _ summarizer.Backend = (*Bridge)(nil)

// NewBridge 创建本地模型桥接。
func NewBridge(pythonExec, scriptPath, workingDir string) (*Bridge, error) {
	if scriptPath == "" {
		return nil, fmt.Errorf("未指定摘要脚本路径")
	}
	if pythonExec == "" {
		pythonExec = "python3"
	}
	return &Bridge{
		pythonExec: pythonExec,
		scriptPath: scriptPath,
		workingDir: workingDir,
	}, nil
}

// Summarize 将转写分片写入脚本 stdin，并解析 stdout 的 JSON 输出。
func (b *Bridge) Summarize(ctx context.Context, chunks []string) (*summarizer.Result, error) {
	payload := map[string]any{
		"chunks":    chunks,
		"timestamp": time.Now().Unix(),
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("序列化摘要请求失败: %w", err)
	}

	command := exec.CommandContext(ctx, b.pythonExec, b.scriptPath)
	if b.workingDir != "" {
		command.Dir = b.workingDir
	}
	command.Stdin = bytes.NewReader(encoded)

	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return nil, fmt.Errorf("执行摘要脚本失败: %v, stderr=%s", err, strings.TrimSpace(stderr.String()))
	}

	var resp struct {
		Summary     string `json:"summary"`
		ActionItems []any  `json:"action_items"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("解析摘要脚本输出失败: %w", err)
	}

	return &summarizer.Result{
		Summary:     strings.TrimSpace(resp.Summary),
		ActionItems: resp.ActionItems,
	}, nil
}

// ResolveScriptPath 根据工作目录推导脚本绝对路径。
func ResolveScriptPath(baseDir, script string) string {
	if script == "" {
		return ""
	}
	if filepath.IsAbs(script) {
		return script
	}
	if baseDir == "" {
		return script
	}
	return filepath.Join(baseDir, script)
}
