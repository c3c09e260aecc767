package notifier

import "errors"

var (
	// ErrUnknownEvent возвращается для типа события, которое notifier не умеет обрабатывать
	// Повторная доставка такого события бессмысленна
	ErrUnknownEvent = errors.New("notifier: unknown event type")

	// ErrAppointmentNotFound возвращается, когда запись из события уже удалена
	ErrAppointmentNotFound = errors.New("notifier: appointment not found")

	// ErrRender возвращается при ошибке рендеринга шаблона письма
	ErrRender = errors.New("notifier: render template")

	// ErrSend возвращается при ошибке отправки письма провайдером
	ErrSend = errors.New("notifier: send email")
)
