package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"tracker/cmd/client/cmd/types"
	"tracker/cmd/client/cmd/view"
	"tracker/internal/domain/device"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Проверить сервер и локальный кэш",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		res := app.Devices().Initialize(cmd.Context())
		return view.Render(cmd, res, func(w io.Writer, r *device.InitReport) {
			fmt.Fprintf(w, "Сервер: %s\n", app.Config().Traccar.URL)
			if r.Online {
				view.Success(w, "Сервер доступен")
			} else {
				view.Warn(w, "Сервер недоступен, работа с кэшем")
			}
			if r.Stats != nil {
				view.Stats(w, r.Stats)
			}
		})
	},
}
