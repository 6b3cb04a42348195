package device

import (
	"tracker/internal/domain/device"
)

type listOutput struct {
	Body device.Result[[]*device.DeviceWithPosition]
}

type addInput struct {
	Body struct {
		EnteredID  string `json:"enteredId" required:"false" doc:"Идентификатор устройства на сервере трекинга (IMEI)"`
		CustomName string `json:"customName,omitempty" doc:"Отображаемое имя, по умолчанию имя с сервера"`
	}
}

type addOutput struct {
	Body device.Result[*device.DeviceWithPosition]
}

type deviceInput struct {
	EnteredID string `path:"enteredId" doc:"Идентификатор устройства"`
}

type emptyOutput struct {
	Body device.Result[struct{}]
}

type syncOutput struct {
	Body device.Result[*device.Position]
}

type trackInput struct {
	EnteredID string `path:"enteredId" doc:"Идентификатор устройства"`
	Limit     int    `query:"limit" doc:"Количество последних позиций, по умолчанию 500"`
}

type trackOutput struct {
	Body device.Result[*device.Track]
}

type syncAllOutput struct {
	Body device.Result[*device.SyncReport]
}

type statsOutput struct {
	Body device.Result[*device.Stats]
}
