package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tracker/cmd/client/cmd/view"
	"tracker/internal/infrastructure/traccar"
)

var (
	initURL      string
	initUser     string
	initFilter   bool
	initNoVerify bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Настроить подключение к серверу трекинга",
	Long: `Команда init выполняет первоначальную настройку клиента:
	1. Запрашивает адрес сервера Traccar и учетные данные
	2. Проверяет соединение с сервером
	3. Сохраняет параметры в config.yaml (права 0600)`,
	Annotations: map[string]string{skipApp: ""},
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		in := bufio.NewReader(cmd.InOrStdin())

		fmt.Fprintln(out, "=== Настройка Tracker ===")
		fmt.Fprintln(out)

		var err error
		if initURL == "" {
			if initURL, err = prompt(out, in, "Адрес сервера (https://demo.traccar.org): "); err != nil {
				return err
			}
		}
		if initUser == "" {
			if initUser, err = prompt(out, in, "Пользователь: "); err != nil {
				return err
			}
		}

		password, err := readPassword(out, in, "Пароль: ")
		if err != nil {
			return fmt.Errorf("ошибка чтения пароля: %w", err)
		}

		cfg.Traccar.URL = initURL
		cfg.Traccar.User = initUser
		cfg.Traccar.Password = password
		cfg.Traccar.ServerFilter = initFilter

		if err := cfg.RequireTraccar(); err != nil {
			return err
		}

		if !initNoVerify {
			fmt.Fprintln(out, "Проверка соединения с сервером...")
			remote := traccar.NewClient(traccar.Config{
				BaseURL:  cfg.Traccar.URL,
				Username: cfg.Traccar.User,
				Password: cfg.Traccar.Password,
				Timeout:  cfg.Traccar.Timeout,
			}, log)

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Traccar.Timeout)
			defer cancel()

			if err := remote.TestConnection(ctx); err != nil {
				view.Warn(out, "Не удалось подключиться к серверу: %v", err)
				fmt.Fprintln(out, "Параметры все равно будут сохранены, кэш доступен в офлайн-режиме.")
			} else {
				view.Success(out, "Соединение с сервером установлено")
			}
		}

		if err := cfg.Save(); err != nil {
			return err
		}

		fmt.Fprintln(out)
		view.Success(out, "Настройки сохранены в %s", cfg.ConfigPath())
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Что дальше:")
		fmt.Fprintln(out, "1. Войдите в систему: tracker auth login <имя>")
		fmt.Fprintln(out, "2. Добавьте устройство: tracker device add <IMEI>")
		return nil
	},
}

func prompt(out io.Writer, in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("ошибка чтения ввода: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// readPassword читает пароль без эха, если stdin терминал
func readPassword(out io.Writer, in *bufio.Reader, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return prompt(out, in, label)
	}

	fmt.Fprint(out, label)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	return string(password), nil
}

func init() {
	initCmd.Flags().StringVar(&initURL, "url", "", "адрес сервера Traccar")
	initCmd.Flags().StringVar(&initUser, "user", "", "пользователь сервера Traccar")
	initCmd.Flags().BoolVar(&initFilter, "server-filter", false, "фильтровать устройства и позиции на стороне сервера")
	initCmd.Flags().BoolVar(&initNoVerify, "no-verify", false, "не проверять соединение с сервером")
}
