package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	// значения флагов сохраняются между вызовами Execute
	jsonOutput, noColor, clearYes = false, false, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	if app != nil {
		require.NoError(t, app.Close())
		app = nil
	}
	return out.String(), err
}

func TestCLI_Flow(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_DIR", dir)
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("LOG_LEVEL", "error")

	t.Run("без настройки", func(t *testing.T) {
		_, err := execute(t, "", "--config-dir", dir, "stats")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tracker init")
	})

	t.Run("init", func(t *testing.T) {
		out, err := execute(t, "secret\n",
			"--config-dir", dir, "--no-color",
			"init", "--url", "http://127.0.0.1:1", "--user", "admin", "--no-verify",
		)
		require.NoError(t, err)
		assert.Contains(t, out, "Настройки сохранены")

		info, err := os.Stat(filepath.Join(dir, "config.yaml"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})

	t.Run("операции без сессии возвращают конверт с ошибкой", func(t *testing.T) {
		out, err := execute(t, "", "--config-dir", dir, "--json", "stats")
		require.Error(t, err)

		var res map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.Equal(t, false, res["success"])
	})

	t.Run("login и stats", func(t *testing.T) {
		out, err := execute(t, "", "--config-dir", dir, "--no-color", "auth", "login", "alice")
		require.NoError(t, err)
		assert.Contains(t, out, "Вход выполнен: alice")

		out, err = execute(t, "", "--config-dir", dir, "--json", "stats")
		require.NoError(t, err)

		var res map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.Equal(t, true, res["success"])
	})

	t.Run("список пустой", func(t *testing.T) {
		out, err := execute(t, "", "--config-dir", dir, "--no-color", "device", "list")
		require.NoError(t, err)
		assert.Contains(t, out, "Устройства не найдены")
	})

	t.Run("clear без подтверждения", func(t *testing.T) {
		_, err := execute(t, "n\n", "--config-dir", dir, "clear")
		assert.ErrorIs(t, err, errClearAborted)
	})
}
