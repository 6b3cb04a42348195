package auth

import (
	"fmt"

	"github.com/spf13/cobra"

	"tracker/cmd/client/cmd/types"
	"tracker/cmd/client/cmd/view"
)

var LoginCmd = &cobra.Command{
	Use:   "login <login>",
	Short: "Войти под именем пользователя",
	Long: `Открывает сессию пользователя на этом устройстве.

Выводит токен для локального HTTP API. Токен показывается один раз,
локально хранится только его хэш.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.AppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		token, err := app.Sessions().Login(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("ошибка входа: %w", err)
		}

		out := cmd.OutOrStdout()
		if view.JSON(cmd) {
			fmt.Fprintf(out, "{\"login\": %q, \"token\": %q}\n", args[0], token)
			return nil
		}

		view.Success(out, "Вход выполнен: %s", args[0])
		fmt.Fprintf(out, "Токен API: %s\n", token)
		return nil
	},
}
