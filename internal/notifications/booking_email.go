package notifications

import (
	"bytes"
	"html/template"

	"github.com/lucasccgomes/agendamentos-plataforma/internal/appointments"
)

const bookingConfirmationTemplate = `<!DOCTYPE html>
<html>
<body>
  <p>Olá {{.ClientName}},</p>
  <p>Recebemos o seu agendamento. Confira os detalhes:</p>
  <ul>
    <li>Profissional: {{.ProfessionalName}}{{if .Specialty}} ({{.Specialty}}){{end}}</li>
    <li>Data: {{.Date}}</li>
    <li>Horário: {{.Time}}</li>
    <li>Status: {{.StatusLabel}}</li>
    <li>Número do agendamento: {{.AppointmentID}}</li>
  </ul>
  <p>Você receberá uma atualização quando o profissional confirmar.</p>
  <p>Obrigado.</p>
</body>
</html>`

var bookingConfirmationTmpl = template.Must(template.New("booking_confirmation").Parse(bookingConfirmationTemplate))

type bookingConfirmationData struct {
	ClientName       string
	ProfessionalName string
	Specialty        string
	Date             string
	Time             string
	StatusLabel      string
	AppointmentID    string
}

func buildBookingConfirmationHTML(booking appointments.View) (string, error) {
	data := bookingConfirmationData{
		ClientName:       booking.Client.Name,
		ProfessionalName: booking.Schedule.Professional.Name,
		Specialty:        booking.Schedule.Professional.Specialty,
		Date:             booking.Schedule.Date,
		Time:             booking.Schedule.Time,
		StatusLabel:      statusLabel(booking.Status),
		AppointmentID:    booking.ID,
	}
	var buf bytes.Buffer
	if err := bookingConfirmationTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func statusLabel(status string) string {
	switch status {
	case appointments.StatusPending:
		return "Pendente"
	case appointments.StatusConfirmed:
		return "Confirmado"
	case appointments.StatusCancelled:
		return "Cancelado"
	default:
		return status
	}
}
