package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tracker/cmd/client/cmd/types"
	"tracker/cmd/client/cmd/view"
)

const defaultWatchInterval = time.Minute

var (
	syncWatch    bool
	syncInterval time.Duration
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Синхронизировать позиции всех устройств",
	Long: `Запрашивает последнюю позицию каждого устройства пользователя
и добавляет ее в локальный журнал позиций.

С флагом --watch синхронизация повторяется с заданным интервалом
до получения сигнала завершения.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		if !syncWatch {
			return view.Render(cmd, app.Devices().SyncAllDevices(cmd.Context()), view.SyncReport)
		}

		cfg := app.Config()
		if syncInterval > 0 {
			cfg.Sync.Interval = syncInterval
		}
		if cfg.Sync.Interval <= 0 {
			cfg.Sync.Interval = defaultWatchInterval
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Автосинхронизация каждые %s, Ctrl+C для остановки\n", cfg.Sync.Interval)

		if err := app.Run(cmd.Context()); err != nil {
			return err
		}

		stats := app.Devices().GetSyncStats()
		view.Success(out, "Выполнено синхронизаций: %d, обновлено позиций: %d, ошибок: %d",
			stats.TotalSyncs, stats.TotalSynced, stats.TotalFailed)
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVarP(&syncWatch, "watch", "w", false, "синхронизировать периодически")
	syncCmd.Flags().DurationVar(&syncInterval, "interval", 0, "интервал автосинхронизации (по умолчанию из конфигурации)")
}
