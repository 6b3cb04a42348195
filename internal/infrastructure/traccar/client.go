package traccar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/exp/slog"

	"tracker/internal/domain/device"
)

const (
	DefaultTimeout = 15 * time.Second

	devicesPath   = "/api/devices"
	positionsPath = "/api/positions"
	userAgent     = "Tracker-Client/1.0"
	maxErrorBody  = 512
)

// Config параметры подключения к серверу Traccar
type Config struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
	// ServerFilter добавляет к запросам фильтр uniqueId/deviceId.
	// Поиск на стороне клиента выполняется в любом случае.
	ServerFilter bool
}

// StatusError ответ сервера с кодом вне диапазона 2xx
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("traccar: статус %d: %s", e.Code, e.Body)
}

// Client клиент REST API Traccar с Basic Auth
type Client struct {
	client   *http.Client
	log      *slog.Logger
	baseURL  string
	username string
	password string
	filter   bool
}

var _ device.Remote = (*Client)(nil)

func NewClient(cfg Config, log *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
		log:      log.With(slog.String("component", "traccar_client")),
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		filter:   cfg.ServerFilter,
	}
}

// ListDevices возвращает все устройства, доступные учетной записи
func (c *Client) ListDevices(ctx context.Context) ([]device.RemoteDevice, error) {
	var devices []device.RemoteDevice
	if err := c.get(ctx, devicesPath, nil, &devices); err != nil {
		return nil, fmt.Errorf("ошибка получения устройств: %w", err)
	}
	return devices, nil
}

// ListPositions возвращает последние позиции всех устройств
func (c *Client) ListPositions(ctx context.Context) ([]device.RemotePosition, error) {
	var positions []device.RemotePosition
	if err := c.get(ctx, positionsPath, nil, &positions); err != nil {
		return nil, fmt.Errorf("ошибка получения позиций: %w", err)
	}
	return positions, nil
}

// FindDeviceByUniqueID ищет устройство по идентификатору, введенному пользователем
func (c *Client) FindDeviceByUniqueID(ctx context.Context, uniqueID string) (*device.RemoteDevice, error) {
	var query url.Values
	if c.filter {
		query = url.Values{"uniqueId": {uniqueID}}
	}

	var devices []device.RemoteDevice
	if err := c.get(ctx, devicesPath, query, &devices); err != nil {
		return nil, fmt.Errorf("ошибка поиска устройства: %w", err)
	}

	for i := range devices {
		if devices[i].UniqueID == uniqueID {
			return &devices[i], nil
		}
	}

	return nil, nil
}

// GetDevicePosition возвращает самую свежую по fixTime позицию устройства
func (c *Client) GetDevicePosition(ctx context.Context, remoteID int64) (*device.RemotePosition, error) {
	var query url.Values
	if c.filter {
		query = url.Values{"deviceId": {strconv.FormatInt(remoteID, 10)}}
	}

	var positions []device.RemotePosition
	if err := c.get(ctx, positionsPath, query, &positions); err != nil {
		return nil, fmt.Errorf("ошибка получения позиции устройства: %w", err)
	}

	var latest *device.RemotePosition
	for i := range positions {
		p := &positions[i]
		if p.DeviceID != remoteID {
			continue
		}
		if latest == nil || p.FixTime.After(latest.FixTime) {
			latest = p
		}
	}

	return latest, nil
}

// TestConnection проверяет доступность сервера и учетные данные
func (c *Client) TestConnection(ctx context.Context) error {
	if _, err := c.ListDevices(ctx); err != nil {
		return fmt.Errorf("сервер трекинга недоступен: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, result interface{}) error {
	resp, err := c.doRequest(ctx, http.MethodGet, path, query)
	if err != nil {
		return err
	}
	return c.parseResponse(resp, result)
}

func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values) (*http.Response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.SetBasicAuth(c.username, c.password)

	c.log.Debug("Отправка запроса",
		"method", method,
		"url", req.URL.String(),
	)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}

	return resp, nil
}

// truncateBody обрезает текст до max байт, не разрезая символ UTF-8
func truncateBody(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func (c *Client) parseResponse(resp *http.Response, result interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	c.log.Debug("Получен ответ",
		"status", resp.StatusCode,
		"bytes", len(body),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, Body: truncateBody(strings.TrimSpace(string(body)), maxErrorBody)}
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("ошибка парсинга ответа: %w", err)
		}
	}

	return nil
}
