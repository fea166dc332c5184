// Package cmd はサーバーを起動せずに同期を実行するCLIコマンドを提供します。
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"stock_dashboard/internal/app/di"
	"stock_dashboard/internal/platform/config"
	"stock_dashboard/internal/platform/logger"
)

// app はサブコマンドが共有する状態です。
type app struct {
	envFile string
	timeout time.Duration

	container *di.Container
}

// Execute はルートコマンドを実行します。SIGINT/SIGTERM で実行中の同期をキャンセルします。
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "sync",
		Short: "Stock dashboard market data sync",
		Long: `Runs the market data sync against the configured database without starting the HTTP server.

Examples:
  go run ./cmd/sync run            # 空なら初回同期、それ以外は通常同期
  go run ./cmd/sync initial        # 過去データの一括取得
  go run ./cmd/sync quote AAPL     # 1銘柄だけ当日分を更新
  go run ./cmd/sync status         # 件数と最終同期時刻`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	root.PersistentFlags().StringVar(&a.envFile, "env", ".env", "dotenv file to load before reading the environment")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 10*time.Minute, "maximum duration of the command")

	root.AddCommand(
		newRunCmd(a),
		newInitialCmd(a),
		newQuoteCmd(a),
		newStatusCmd(a),
	)
	return root
}

// setup は設定を読み込み、依存関係を組み立てます。
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	c, err := di.NewContainer(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	a.container = c
	return nil
}

func (a *app) teardown(cmd *cobra.Command, args []string) error {
	if a.container != nil {
		a.container.Close()
	}
	return nil
}

// context はコマンド全体のタイムアウト付きコンテキストを返します。
func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, a.timeout)
}
