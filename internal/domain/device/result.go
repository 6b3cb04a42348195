package device

// Result единый ответ операций координатора: {success, data, error}.
// Ошибки не пробрасываются наружу, а попадают в поле Error.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
}

// Ok успешный результат
func Ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Fail неуспешный результат с сообщением ошибки
func Fail[T any](err error) Result[T] {
	return Result[T]{Error: err.Error()}
}
