package auth

import (
	"fmt"

	"github.com/spf13/cobra"

	"tracker/cmd/client/cmd/types"
	"tracker/cmd/client/cmd/view"
)

var LogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Закрыть сессию",
	Long:  `Закрывает сессию. Данные пользователя в кэше сохраняются, для удаления используйте tracker clear.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		if err := app.Sessions().Logout(cmd.Context()); err != nil {
			return fmt.Errorf("ошибка выхода: %w", err)
		}

		view.Success(cmd.OutOrStdout(), "Сессия закрыта")
		return nil
	},
}
