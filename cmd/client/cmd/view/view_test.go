package view

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker/internal/domain/device"
)

func newTestCmd(jsonOutput bool) (*cobra.Command, *bytes.Buffer) {
	color.NoColor = true

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Bool("json", false, "")
	if jsonOutput {
		_ = cmd.Flags().Set("json", "true")
	}

	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	return cmd, buf
}

func TestRender(t *testing.T) {
	t.Run("human", func(t *testing.T) {
		cmd, buf := newTestCmd(false)

		err := Render(cmd, device.Ok(&device.Stats{Devices: 2, Positions: 5}), Stats)

		require.NoError(t, err)
		assert.Contains(t, buf.String(), "Устройств: 2")
		assert.Contains(t, buf.String(), "Позиций:   5")
	})

	t.Run("json конверт", func(t *testing.T) {
		cmd, buf := newTestCmd(true)

		err := Render(cmd, device.Ok(&device.Stats{Devices: 2}), Stats)

		require.NoError(t, err)
		var got map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, true, got["success"])
		assert.NotContains(t, buf.String(), "Устройств:")
	})

	t.Run("ошибка", func(t *testing.T) {
		cmd, buf := newTestCmd(false)

		err := Render(cmd, device.Fail[*device.Stats](assert.AnError), Stats)

		require.EqualError(t, err, assert.AnError.Error())
		assert.Empty(t, buf.String())
	})

	t.Run("ошибка в json режиме печатает конверт", func(t *testing.T) {
		cmd, buf := newTestCmd(true)

		err := Render[*device.Stats](cmd, device.Fail[*device.Stats](assert.AnError), nil)

		require.Error(t, err)
		assert.Contains(t, buf.String(), `"success": false`)
	})
}

func TestDevices(t *testing.T) {
	color.NoColor = true
	battery := 87.0

	tests := []struct {
		name     string
		devices  []*device.DeviceWithPosition
		contains []string
	}{
		{
			name:     "пусто",
			devices:  nil,
			contains: []string{"Устройства не найдены"},
		},
		{
			name: "с позицией и без",
			devices: []*device.DeviceWithPosition{
				{
					Device: device.Device{EnteredID: "IMEI1", CustomName: "Car", Status: "online"},
					Position: &device.Position{
						Latitude:     55.75,
						Longitude:    37.61,
						BatteryLevel: &battery,
						FixTime:      time.Now(),
					},
				},
				{Device: device.Device{EnteredID: "IMEI2", CustomName: "Bike"}},
			},
			contains: []string{"IMEI1", "55.750000", "87%", "IMEI2", "Всего устройств: 2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Devices(&buf, tt.devices)

			for _, s := range tt.contains {
				assert.Contains(t, buf.String(), s)
			}
		})
	}
}

func TestPosition_Empty(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer

	Position(&buf, "IMEI1", nil)

	assert.Contains(t, buf.String(), "Сервер не вернул позицию для IMEI1")
}

func TestSyncReport(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	SyncReport(&buf, &device.SyncReport{Total: 3, Synced: 1, Empty: 1, Failed: 1})
	assert.Contains(t, buf.String(), "ошибками: 1 из 3")

	buf.Reset()
	SyncReport(&buf, &device.SyncReport{Total: 1, Synced: 1})
	assert.Contains(t, buf.String(), "✓ Синхронизация завершена")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Маши...", truncate("Машина папы", 7))
}
