package notifier

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strconv"
	texttemplate "text/template"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

// Имена шаблонов без расширения
const (
	tmplCustomerCreated  = "customer_created"
	tmplBusinessCreated  = "business_created"
	tmplCustomerReminder = "customer_reminder"
	tmplBusinessReminder = "business_reminder"
)

// Темы писем
const (
	subjectCustomerCreated = "¡Has agendado una cita en Kümelen!"
	subjectBusinessCreated = "Nueva Cita Reservada"
	subjectReminder        = "Recordatorio de Cita"
)

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html"))
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt"))
)

// templateData данные для шаблонов писем
type templateData struct {
	AppointmentID string
	ClientName    string
	ClientEmail   string
	ClientPhone   string
	ServiceName   string
	TherapistName string
	Date          string // DD-MM-YYYY в часовом поясе центра
	Time          string // HH:MM в часовом поясе центра
	Duration      string
	Price         string
	Notes         string
	WebsiteURL    string
	ContactEmail  string
}

// render рендерит html и текстовую версию письма
func render(name string, data templateData) (string, string, error) {
	var htmlBuf, textBuf bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&htmlBuf, name+".html", data); err != nil {
		return "", "", fmt.Errorf("%w: %s.html: %v", ErrRender, name, err)
	}
	if err := textTemplates.ExecuteTemplate(&textBuf, name+".txt", data); err != nil {
		return "", "", fmt.Errorf("%w: %s.txt: %v", ErrRender, name, err)
	}
	return htmlBuf.String(), textBuf.String(), nil
}

// formatDuration форматирует минуты как "1h 30min", "1h" или "45min"
func formatDuration(minutes int) string {
	hours, mins := minutes/60, minutes%60
	switch {
	case hours > 0 && mins > 0:
		return fmt.Sprintf("%dh %dmin", hours, mins)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dmin", mins)
	}
}

// formatCLP форматирует цену в песо без дробной части: 35000 -> "$35.000"
func formatCLP(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var out []byte
	for i := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, digits[i])
	}
	return sign + "$" + string(out)
}
