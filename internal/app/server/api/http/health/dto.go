package health

import "time"

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

type Input struct{}

type Output struct {
	Body Response
}

// Response состояние локального API и кэша
type Response struct {
	Status  string    `json:"status" enum:"ok,degraded" doc:"ok, если кэш доступен"`
	Storage string    `json:"storage" doc:"Ошибка хранилища или ok"`
	Time    time.Time `json:"time" doc:"Время сервера"`
}
