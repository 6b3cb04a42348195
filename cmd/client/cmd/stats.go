package cmd

import (
	"github.com/spf13/cobra"

	"tracker/cmd/client/cmd/types"
	"tracker/cmd/client/cmd/view"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Количество устройств и позиций в кэше",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		return view.Render(cmd, app.Devices().GetStats(cmd.Context()), view.Stats)
	},
}
