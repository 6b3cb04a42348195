package device

import (
	"io"

	"github.com/spf13/cobra"

	"tracker/cmd/client/cmd/types"
	"tracker/cmd/client/cmd/view"
)

var RemoveCmd = &cobra.Command{
	Use:     "remove <entered-id>",
	Aliases: []string{"rm"},
	Short:   "Удалить устройство и его позиции из кэша",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.AppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		return view.Render(cmd, app.Devices().RemoveDevice(cmd.Context(), args[0]), func(w io.Writer, _ struct{}) {
			view.Success(w, "Устройство %s удалено", args[0])
		})
	},
}
