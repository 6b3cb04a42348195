package view

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tracker/internal/domain/device"
)

const timeLayout = "2006-01-02 15:04:05"

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	dimColor  = color.New(color.Faint)
)

// JSON включен ли вывод конверта {success, data, error} как есть
func JSON(cmd *cobra.Command) bool {
	v, err := cmd.Flags().GetBool("json")
	return err == nil && v
}

// Render печатает результат операции. В JSON режиме печатается весь конверт,
// иначе данные через human. Неуспешный результат становится ошибкой команды.
func Render[T any](cmd *cobra.Command, res device.Result[T], human func(w io.Writer, data T)) error {
	out := cmd.OutOrStdout()

	if JSON(cmd) {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("ошибка вывода: %w", err)
		}
	}

	if !res.Success {
		return errors.New(res.Error)
	}

	if !JSON(cmd) && human != nil {
		human(out, res.Data)
	}
	return nil
}

func Success(w io.Writer, format string, a ...any) {
	okColor.Fprintf(w, "✓ "+format+"\n", a...)
}

func Warn(w io.Writer, format string, a ...any) {
	warnColor.Fprintf(w, "⚠️  "+format+"\n", a...)
}

// Devices таблица устройств с последними позициями
func Devices(w io.Writer, devices []*device.DeviceWithPosition) {
	if len(devices) == 0 {
		fmt.Fprintln(w, "Устройства не найдены")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tНазвание\tСтатус\tШирота\tДолгота\tСкорость\tБатарея\tФикс\t\n")
	fmt.Fprintf(tw, "---\t---\t---\t---\t---\t---\t---\t---\t\n")

	for _, d := range devices {
		lat, lon, speed, battery, fix := "-", "-", "-", "-", "-"
		if p := d.Position; p != nil {
			lat = strconv.FormatFloat(p.Latitude, 'f', 6, 64)
			lon = strconv.FormatFloat(p.Longitude, 'f', 6, 64)
			speed = strconv.FormatFloat(p.Speed, 'f', 1, 64)
			fix = p.FixTime.Local().Format(timeLayout)
			if p.BatteryLevel != nil {
				battery = strconv.FormatFloat(*p.BatteryLevel, 'f', 0, 64) + "%"
			}
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			d.EnteredID,
			truncate(d.CustomName, 30),
			d.Status,
			lat, lon, speed, battery, fix,
		)
	}

	tw.Flush()
	dimColor.Fprintf(w, "\nВсего устройств: %d\n", len(devices))
}

// Position одна позиция устройства
func Position(w io.Writer, enteredID string, p *device.Position) {
	if p == nil {
		Warn(w, "Сервер не вернул позицию для %s", enteredID)
		return
	}

	Success(w, "Позиция %s обновлена", enteredID)
	fmt.Fprintf(w, "  Координаты: %.6f, %.6f\n", p.Latitude, p.Longitude)
	fmt.Fprintf(w, "  Скорость:   %.1f\n", p.Speed)
	if p.Address != "" {
		fmt.Fprintf(w, "  Адрес:      %s\n", p.Address)
	}
	fmt.Fprintf(w, "  Фикс:       %s\n", p.FixTime.Local().Format(timeLayout))
}

// SyncReport итог синхронизации всех устройств
func SyncReport(w io.Writer, r *device.SyncReport) {
	if r.Failed > 0 {
		Warn(w, "Синхронизация завершена с ошибками: %d из %d", r.Failed, r.Total)
	} else {
		Success(w, "Синхронизация завершена")
	}
	fmt.Fprintf(w, "  Устройств:   %d\n", r.Total)
	fmt.Fprintf(w, "  Обновлено:   %d\n", r.Synced)
	fmt.Fprintf(w, "  Без позиции: %d\n", r.Empty)
	fmt.Fprintf(w, "  Время:       %s\n", r.Duration.Round(time.Millisecond))
}

func Stats(w io.Writer, s *device.Stats) {
	fmt.Fprintf(w, "Устройств: %d\n", s.Devices)
	fmt.Fprintf(w, "Позиций:   %d\n", s.Positions)
}

// Track сводка маршрута, GeoJSON печатается только в JSON режиме
func Track(w io.Writer, t *device.Track) {
	fmt.Fprintf(w, "Маршрут %s (%s)\n", t.EnteredID, t.Name)
	fmt.Fprintf(w, "  Точек:      %d\n", t.Points)
	fmt.Fprintf(w, "  Расстояние: %.2f км\n", t.DistanceMeters/1000)
	if t.From != nil && t.To != nil {
		fmt.Fprintf(w, "  Период:     %s - %s\n",
			t.From.Local().Format(timeLayout),
			t.To.Local().Format(timeLayout),
		)
	}
}

func truncate(s string, length int) string {
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	return string(r[:length-3]) + "..."
}
