// Package template renders the human-readable title and body of notifications.
package template

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/saviser/automation/pkg/models"
)

const (
	fallbackTitle = "Notificación del Sistema"
	fallbackBody  = "Notificación del sistema"
)

// Message is the rendered text of a notification.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type entry struct {
	title string
	body  *template.Template
}

var catalog = map[string]entry{
	models.TemplateAppointmentReminder24h: {
		title: "Recordatorio de Cita",
		body: mustParse(models.TemplateAppointmentReminder24h,
			`Recordatorio: Tiene una cita programada para mañana{{ with .appointment }}{{ with .fechaHora }} a las {{ clock . }}{{ end }}{{ end }}`),
	},
	models.TemplateHighPriorityTriage: {
		title: "Triaje de Alta Prioridad",
		body: mustParse(models.TemplateHighPriorityTriage,
			`Nuevo paciente con triaje de prioridad ALTA{{ with .patientName }}: {{ . }}{{ end }} requiere atención inmediata`),
	},
	models.TemplatePatientAssigned: {
		title: "Paciente Asignado",
		body: mustParse(models.TemplatePatientAssigned,
			`Se le ha asignado un nuevo paciente{{ with .patientName }}: {{ . }}{{ end }}`),
	},
	models.TemplateFollowUpReminder: {
		title: "Recordatorio de Seguimiento",
		body: mustParse(models.TemplateFollowUpReminder,
			`Recordatorio de seguimiento para el paciente{{ with .patientName }} {{ . }}{{ end }}`),
	},
	models.TemplateAppointmentConfirmed: {
		title: "Cita Confirmada",
		body: mustParse(models.TemplateAppointmentConfirmed,
			`Su cita ha sido confirmada automáticamente{{ with .appointment }}{{ with .fechaHora }} para las {{ clock . }}{{ end }}{{ end }}`),
	},
	models.TemplateWorkloadBalanced: {
		title: "Carga de Trabajo Balanceada",
		body:  mustParse(models.TemplateWorkloadBalanced, `La carga de trabajo ha sido redistribuida automáticamente`),
	},
	models.TemplateTaskCreated: {
		title: "Nueva Tarea Asignada",
		body: mustParse(models.TemplateTaskCreated,
			`Nueva tarea asignada: {{ with .task }}{{ . }}{{ else }}Tarea del sistema{{ end }}`),
	},
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"clock": clock,
	}
}

func mustParse(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs()).Parse(text))
}

// Render executes templateStr against data.
func Render(templateStr string, data any) (string, error) {
	tmpl, err := template.New("notification").Funcs(funcs()).Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	return execute(tmpl, data)
}

// RenderNotification resolves the notification's template id against the catalog using its
// payload. Unknown ids and render failures fall back to a generic message.
func RenderNotification(n models.Notification) Message {
	e, ok := catalog[n.Template]
	if !ok {
		return Message{Title: fallbackTitle, Body: fallbackBody}
	}

	data := map[string]any(n.Payload)
	if data == nil {
		data = map[string]any{}
	}

	body, err := execute(e.body, data)
	if err != nil {
		return Message{Title: e.title, Body: fallbackBody}
	}

	return Message{Title: e.title, Body: body}
}

func execute(tmpl *template.Template, data any) (string, error) {
	var buf strings.Builder

	err := tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute template '%s': %w", tmpl.Name(), err)
	}

	return strings.TrimSpace(buf.String()), nil
}

// clock formats a time, or a timestamp string, as HH:MM.
func clock(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format("15:04")
	case *time.Time:
		if t == nil {
			return ""
		}

		return t.Format("15:04")
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
			parsed, err := time.Parse(layout, t)
			if err == nil {
				return parsed.Format("15:04")
			}
		}

		return t
	default:
		return fmt.Sprint(v)
	}
}
