package device

import (
	"github.com/spf13/cobra"
)

// DeviceCmd родительская команда для операций с устройствами
var DeviceCmd = &cobra.Command{
	Use:     "device",
	Aliases: []string{"devices"},
	Short:   "Управление устройствами",
	Long:    `Добавление, просмотр, удаление и синхронизация устройств пользователя.`,
}
