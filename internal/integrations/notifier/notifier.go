package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/kumelen-agenda/internal/domain"
	appointmentRepo "github.com/m04kA/kumelen-agenda/internal/infra/storage/appointment"
	"github.com/m04kA/kumelen-agenda/pkg/worktime"
)

// Config адреса и ссылки, подставляемые в письма
type Config struct {
	BusinessEmail string // получатель писем для центра
	ContactEmail  string // адрес для вопросов клиентов
	WebsiteURL    string // база ссылок подтверждения и отмены
}

// Notifier превращает события outbox в письма
type Notifier struct {
	appointmentRepo AppointmentRepository
	sender          EmailSender
	calendar        worktime.Calendar
	cfg             Config
	logger          Logger
}

// NewNotifier создает новый notifier
func NewNotifier(appointmentRepo AppointmentRepository, sender EmailSender, calendar worktime.Calendar, cfg Config, logger Logger) *Notifier {
	cfg.WebsiteURL = strings.TrimRight(cfg.WebsiteURL, "/")
	return &Notifier{
		appointmentRepo: appointmentRepo,
		sender:          sender,
		calendar:        calendar,
		cfg:             cfg,
		logger:          logger,
	}
}

// Handle отправляет письмо для события
// Письмо клиенту без email пропускается без ошибки: событие считается доставленным
func (n *Notifier) Handle(ctx context.Context, evt *domain.OutboxEvent) error {
	var (
		tmpl       string
		subject    string
		toCustomer bool
	)
	switch evt.EventType {
	case domain.EventAppointmentCreatedCustomer:
		tmpl, subject, toCustomer = tmplCustomerCreated, subjectCustomerCreated, true
	case domain.EventAppointmentCreatedBusiness:
		tmpl, subject = tmplBusinessCreated, subjectBusinessCreated
	case domain.EventAppointmentReminderCustomer:
		tmpl, subject, toCustomer = tmplCustomerReminder, subjectReminder, true
	case domain.EventAppointmentReminderBusiness:
		tmpl, subject = tmplBusinessReminder, subjectReminder
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, evt.EventType)
	}

	details, err := n.appointmentRepo.GetDetails(ctx, evt.AggregateID)
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
			return fmt.Errorf("%w: id=%s", ErrAppointmentNotFound, evt.AggregateID)
		}
		return fmt.Errorf("notifier: load appointment id=%s: %w", evt.AggregateID, err)
	}

	msg := EmailMessage{Subject: subject}
	if toCustomer {
		if details.CustomerEmail == nil || *details.CustomerEmail == "" {
			n.logger.Info("Notifier: customer of appointment id=%s has no email, skipping %s", evt.AggregateID, evt.EventType)
			return nil
		}
		msg.To = *details.CustomerEmail
		msg.ToName = details.CustomerName
	} else {
		msg.To = n.cfg.BusinessEmail
	}

	msg.HTML, msg.Text, err = render(tmpl, n.templateData(details))
	if err != nil {
		return err
	}

	if err := n.sender.Send(ctx, msg); err != nil {
		return err
	}

	n.logger.Info("Notifier: %s for appointment id=%s sent to %s", evt.EventType, evt.AggregateID, msg.To)
	return nil
}

// IsPermanent сообщает, что повторная попытка доставки не поможет
func IsPermanent(err error) bool {
	return errors.Is(err, ErrUnknownEvent) || errors.Is(err, ErrAppointmentNotFound) || errors.Is(err, ErrRender)
}

func (n *Notifier) templateData(d *domain.AppointmentDetails) templateData {
	local := d.Appointment.StartAt.In(n.calendar.Location())
	data := templateData{
		AppointmentID: d.Appointment.ID.String(),
		ClientName:    d.CustomerName,
		ServiceName:   d.ServiceName,
		Date:          local.Format("02-01-2006"),
		Time:          local.Format(domain.TimeFormat),
		Duration:      formatDuration(d.DurationMinutes),
		Price:         formatCLP(d.ServicePrice),
		WebsiteURL:    n.cfg.WebsiteURL,
		ContactEmail:  n.cfg.ContactEmail,
	}
	if d.CustomerEmail != nil {
		data.ClientEmail = *d.CustomerEmail
	}
	if d.CustomerPhone != nil {
		data.ClientPhone = *d.CustomerPhone
	}
	if d.TherapistName != nil {
		data.TherapistName = *d.TherapistName
	}
	if d.Appointment.ClientNotes != nil {
		data.Notes = *d.Appointment.ClientNotes
	}
	return data
}
