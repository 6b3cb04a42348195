package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"tracker/cmd/client/cmd/auth"
	"tracker/cmd/client/cmd/device"
	"tracker/cmd/client/cmd/types"
	"tracker/internal/app/client"
	"tracker/internal/app/client/config"
	"tracker/internal/utils/logger"
)

// skipApp аннотация команд, которым нужна только конфигурация
const skipApp = "skip-app"

var (
	configDir  string
	debug      bool
	jsonOutput bool
	noColor    bool

	cfg *config.Config
	log *slog.Logger
	app *client.App
)

var rootCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Tracker - клиент для отслеживания GPS устройств",
	Long: `Tracker получает устройства и позиции с сервера трекинга Traccar
и хранит их в локальном кэше, чтобы последние известные данные были
доступны и без связи с сервером.`,
	PersistentPreRunE: setupApp,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func Execute() {
	err := rootCmd.Execute()

	if app != nil {
		if closeErr := app.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}

	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	if noColor {
		color.NoColor = true
	}

	// Флаг --config-dir приоритетнее переменной окружения
	if configDir != "" {
		if err := os.Setenv("CONFIG_DIR", configDir); err != nil {
			return fmt.Errorf("ошибка установки CONFIG_DIR: %w", err)
		}
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	log = logger.NewWithLevel(cfg.Env, level)

	if _, ok := cmd.Annotations[skipApp]; ok {
		return nil
	}

	if err := cfg.RequireTraccar(); err != nil {
		return err
	}

	app, err = client.New(cmd.Context(), cfg, log)
	if err != nil {
		return fmt.Errorf("ошибка инициализации приложения: %w", err)
	}

	cmd.SetContext(types.WithApp(cmd.Context(), app))
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "директория конфигурации (по умолчанию ~/.tracker)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "включить отладочный режим")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "вывод в формате JSON {success, data, error}")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "отключить цветной вывод")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(clearCmd)

	rootCmd.AddCommand(auth.AuthCmd)
	auth.AuthCmd.AddCommand(auth.LoginCmd)
	auth.AuthCmd.AddCommand(auth.LogoutCmd)
	auth.AuthCmd.AddCommand(auth.StatusCmd)

	rootCmd.AddCommand(device.DeviceCmd)
	device.DeviceCmd.AddCommand(device.AddCmd)
	device.DeviceCmd.AddCommand(device.ListCmd)
	device.DeviceCmd.AddCommand(device.RemoveCmd)
	device.DeviceCmd.AddCommand(device.SyncCmd)
	device.DeviceCmd.AddCommand(device.TrackCmd)
}
