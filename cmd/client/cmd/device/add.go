package device

import (
	"io"

	"github.com/spf13/cobra"

	"tracker/cmd/client/cmd/types"
	"tracker/cmd/client/cmd/view"
	"tracker/internal/domain/device"
)

var addName string

var AddCmd = &cobra.Command{
	Use:   "add <entered-id>",
	Short: "Добавить устройство по идентификатору (IMEI)",
	Long: `Ищет устройство на сервере трекинга по уникальному идентификатору,
сохраняет его в кэш и пробует получить первую позицию.

Повторное добавление обновляет существующую запись.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.AppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		res := app.Devices().AddDevice(cmd.Context(), args[0], addName)
		return view.Render(cmd, res, func(w io.Writer, d *device.DeviceWithPosition) {
			view.Success(w, "Устройство %s добавлено как %q", d.EnteredID, d.CustomName)
			if d.Position == nil {
				view.Warn(w, "Позиция пока недоступна, повторите tracker device sync %s", d.EnteredID)
				return
			}
			view.Devices(w, []*device.DeviceWithPosition{d})
		})
	},
}

func init() {
	AddCmd.Flags().StringVarP(&addName, "name", "n", "", "отображаемое имя (по умолчанию имя с сервера)")
}
