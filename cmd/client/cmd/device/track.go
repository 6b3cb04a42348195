package device

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tracker/cmd/client/cmd/types"
	"tracker/cmd/client/cmd/view"
	"tracker/internal/domain/device"
)

var (
	trackLimit  int
	trackOutput string
)

var TrackCmd = &cobra.Command{
	Use:   "track <entered-id>",
	Short: "Маршрут устройства по сохраненным позициям",
	Long: `Строит маршрут из последних позиций в локальном журнале.

С флагом --output маршрут сохраняется в файл GeoJSON, который можно
открыть в geojson.io или QGIS.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.AppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		res := app.Devices().GetTrack(cmd.Context(), args[0], trackLimit)
		if res.Success && trackOutput != "" {
			if err := writeGeoJSON(trackOutput, res.Data); err != nil {
				return err
			}
		}

		return view.Render(cmd, res, func(w io.Writer, t *device.Track) {
			view.Track(w, t)
			if trackOutput != "" {
				view.Success(w, "GeoJSON сохранен в %s", trackOutput)
			}
		})
	},
}

func writeGeoJSON(path string, t *device.Track) error {
	data, err := json.MarshalIndent(t.GeoJSON, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации GeoJSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("ошибка записи %s: %w", path, err)
	}
	return nil
}

func init() {
	TrackCmd.Flags().IntVarP(&trackLimit, "limit", "l", 500, "количество последних позиций")
	TrackCmd.Flags().StringVarP(&trackOutput, "output", "o", "", "сохранить маршрут в файл GeoJSON")
}
