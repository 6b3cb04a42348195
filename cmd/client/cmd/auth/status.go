package auth

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tracker/cmd/client/cmd/types"
	"tracker/cmd/client/cmd/view"
	"tracker/internal/domain/session"
)

var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Текущая сессия",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		state, err := app.Sessions().Status(cmd.Context())
		if errors.Is(err, session.ErrNotAuthenticated) {
			view.Warn(out, "Вход не выполнен, используйте tracker auth login <имя>")
			return nil
		}
		if err != nil {
			return fmt.Errorf("ошибка чтения сессии: %w", err)
		}

		if view.JSON(cmd) {
			return json.NewEncoder(out).Encode(map[string]any{
				"login":      state.Login,
				"loggedInAt": state.LoggedInAt,
			})
		}

		fmt.Fprintf(out, "Пользователь: %s\n", state.Login)
		fmt.Fprintf(out, "Вход:         %s\n", state.LoggedInAt.Local().Format("2006-01-02 15:04:05"))
		return nil
	},
}
