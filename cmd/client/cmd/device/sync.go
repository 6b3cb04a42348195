package device

import (
	"io"

	"github.com/spf13/cobra"

	"tracker/cmd/client/cmd/types"
	"tracker/cmd/client/cmd/view"
	"tracker/internal/domain/device"
)

var SyncCmd = &cobra.Command{
	Use:   "sync <entered-id>",
	Short: "Получить свежую позицию устройства",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.AppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		return view.Render(cmd, app.Devices().SyncDevicePosition(cmd.Context(), args[0]), func(w io.Writer, p *device.Position) {
			view.Position(w, args[0], p)
		})
	},
}
