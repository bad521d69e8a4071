package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"arb-signals/internal/config"
	"arb-signals/internal/store"
)

// App 聚合核心依赖并驱动系统生命周期。
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
	source io.Reader
}

// New 创建 App 实例。source 是逐行的入站信号文本流，
// 通常是标准输入上游聊天机器人转发的消息。
func New(cfg *config.Config, logger *zap.Logger, store *store.Store, source io.Reader) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
		source: source,
	}
}

// Run 逐行消费信号源并驱动信号生命周期，直到信号源耗尽或收到退出信号。
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("套利信号系统已初始化",
		zap.String("environment", a.cfg.App.Environment),
		zap.Strings("buyers", a.cfg.Venues.Buyers),
		zap.Strings("sellers", a.cfg.Venues.Sellers),
		zap.Int("deposit", a.cfg.Trade.Deposit),
	)

	orch, err := newOrchestrator(a.cfg, a.logger, a.store)
	if err != nil {
		return err
	}

	if a.cfg.Monitor.Enabled {
		if err := startMonitorServer(ctx, orch.Monitor(), a.cfg.Monitor.Port, a.logger); err != nil {
			return err
		}
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(a.source)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if scanErr := scanner.Err(); scanErr != nil {
			a.logger.Error("读取信号源失败", zap.Error(scanErr))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("系统异常退出: %w", err)
			}
			a.logger.Info("系统收到退出信号，正在停止")
			return nil
		case line, ok := <-lines:
			if !ok {
				a.logger.Info("信号源已结束")
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			orch.HandleMessage(ctx, line)
		}
	}
}
