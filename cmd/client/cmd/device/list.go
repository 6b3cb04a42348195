package device

import (
	"github.com/spf13/cobra"

	"tracker/cmd/client/cmd/types"
	"tracker/cmd/client/cmd/view"
)

var ListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Устройства с последними позициями",
	Long:    `Читает только локальный кэш и работает без связи с сервером.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		return view.Render(cmd, app.Devices().GetUserDevicesWithPositions(cmd.Context()), view.Devices)
	},
}
