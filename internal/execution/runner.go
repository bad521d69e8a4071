package execution

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// FilledAmountPrefix 是腿执行器输出中机器可读的成交数量哨兵行前缀。
const FilledAmountPrefix = "FILLED_AMOUNT:"

// ProcessRunner 以外部进程方式调用交易腿执行器：
// <interpreter> <script_dir>/<venue>.py <symbol> <deposit> [fill]。
// 标准输出与标准错误全量捕获并在暴露前抹掉敏感字段。
type ProcessRunner struct {
	scriptDir   string
	interpreter string
	logger      *zap.Logger
}

// NewProcessRunner 创建进程边界适配器。
func NewProcessRunner(scriptDir, interpreter string, logger *zap.Logger) *ProcessRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessRunner{
		scriptDir:   scriptDir,
		interpreter: interpreter,
		logger:      logger,
	}
}

// Run 同步执行一条腿并返回结构化结果。进程非零退出不是错误，
// 体现在 LegResult.Succeeded 上；只有无法启动进程才返回 error。
func (r *ProcessRunner) Run(ctx context.Context, req LegRequest) (LegResult, error) {
	script := filepath.Join(r.scriptDir, req.Venue+".py")

	args := []string{script, req.Symbol, req.Deposit}
	if req.Fill != nil {
		args = append(args, strconv.FormatFloat(*req.Fill, 'f', -1, 64))
	}

	cmd := exec.CommandContext(ctx, r.interpreter, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Info("启动腿执行器",
		zap.String("venue", req.Venue),
		zap.String("script", script),
	)

	runErr := cmd.Run()
	exitOK := runErr == nil
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return LegResult{}, fmt.Errorf("execution: 启动 %s 腿执行器失败: %w", req.Venue, runErr)
		}
	}

	rawOutput := ScrubSecrets(strings.TrimRight(stdout.String()+stderr.String(), "\n"))
	result := LegResult{
		Succeeded:    exitOK,
		FilledAmount: ParseFilledAmount(stdout.String()),
		RawOutput:    rawOutput,
	}

	r.logger.Info("腿执行器退出",
		zap.String("venue", req.Venue),
		zap.Bool("exit_ok", exitOK),
		zap.Bool("fill_reported", result.FilledAmount != nil),
		zap.String("output", rawOutput),
	)

	return result, nil
}

// ParseFilledAmount 从输出中提取哨兵行携带的成交数量。
// 出现多条哨兵行时以最后一条为准（执行器内部重试时每次尝试
// 各打印一行，最后一行反映最终成交）；最后一条解析失败视为
// 未报告成交。
func ParseFilledAmount(output string) *float64 {
	var lastLine string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, FilledAmountPrefix) {
			lastLine = line
		}
	}
	if lastLine == "" {
		return nil
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(lastLine, FilledAmountPrefix)), 64)
	if err != nil || value < 0 {
		return nil
	}
	return &value
}
