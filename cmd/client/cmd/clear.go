package cmd

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"tracker/cmd/client/cmd/types"
	"tracker/cmd/client/cmd/view"
)

var errClearAborted = errors.New("очистка отменена")

var clearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Удалить все устройства и позиции пользователя из кэша",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		if !clearYes {
			answer, err := prompt(cmd.OutOrStdout(), bufio.NewReader(cmd.InOrStdin()), "Удалить все локальные данные? [y/N]: ")
			if err != nil {
				return err
			}
			if !strings.EqualFold(answer, "y") {
				return errClearAborted
			}
		}

		return view.Render(cmd, app.Devices().ClearUserData(cmd.Context()), func(w io.Writer, _ struct{}) {
			view.Success(w, "Локальные данные удалены")
		})
	},
}

func init() {
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "не запрашивать подтверждение")
}
