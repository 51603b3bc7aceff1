package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/saviser/automation/pkg/payload"
)

const (
	reminderLead  = 24 * time.Hour
	followUpDelay = 7 * 24 * time.Hour
)

// Snapshot returns the records time rules look at on a tick:
//   - appointments starting between 24h and 24h+window from now
//   - appointments dated today, including ones already past, that are still "programada"
//   - consultations completed between 7 days and 7 days+window ago
//
// Windowed records are returned by exactly one tick when the window matches the tick period.
func (s *Store) Snapshot(ctx context.Context, now time.Time) ([]payload.Payload, error) {
	records := make([]payload.Payload, 0)

	upcoming, err := s.appointments(ctx, now, `
		WHERE fecha_hora >= $1 AND fecha_hora < $2
		ORDER BY fecha_hora, id
	`, now.Add(reminderLead), now.Add(reminderLead+s.window))
	if err != nil {
		return nil, err
	}

	records = append(records, upcoming...)

	y, m, d := now.Date()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)

	today, err := s.appointments(ctx, now, `
		WHERE fecha_hora >= $1 AND fecha_hora < $2 AND estado = 'programada'
		ORDER BY fecha_hora, id
	`, startOfDay, endOfDay)
	if err != nil {
		return nil, err
	}

	records = append(records, today...)

	completed, err := s.completedConsultations(ctx, now.Add(-followUpDelay-s.window), now.Add(-followUpDelay))
	if err != nil {
		return nil, err
	}

	records = append(records, completed...)

	return records, nil
}

func (s *Store) appointments(ctx context.Context, now time.Time, where string, from, to time.Time) ([]payload.Payload, error) {
	query := `SELECT id, paciente_id, COALESCE(medico_id, ''), fecha_hora, estado FROM appointments ` + where

	rows, err := s.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	records := make([]payload.Payload, 0)

	for rows.Next() {
		var (
			id, patientID, clinicianID, status string
			at                                 time.Time
		)

		if err := rows.Scan(&id, &patientID, &clinicianID, &at, &status); err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}

		records = append(records, payload.Payload{
			"appointment": map[string]any{
				"id":         id,
				"pacienteId": patientID,
				"medicoId":   clinicianID,
				"fechaHora":  at,
				"estado":     status,
				"dia":        payload.RelativeDay(at, now),
			},
		})
	}

	return records, rowsErr(rows, "appointments")
}

func (s *Store) completedConsultations(ctx context.Context, from, to time.Time) ([]payload.Payload, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, paciente_id, COALESCE(medico_id, ''), fecha_hora, estado
		FROM consultations
		WHERE estado = 'completada' AND fecha_hora >= $1 AND fecha_hora < $2
		ORDER BY fecha_hora, id
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query consultations: %w", err)
	}
	defer rows.Close()

	records := make([]payload.Payload, 0)

	for rows.Next() {
		var (
			id, patientID, clinicianID, status string
			at                                 time.Time
		)

		if err := rows.Scan(&id, &patientID, &clinicianID, &at, &status); err != nil {
			return nil, fmt.Errorf("failed to scan consultation: %w", err)
		}

		records = append(records, payload.Payload{
			"consultation": map[string]any{
				"id":         id,
				"pacienteId": patientID,
				"medicoId":   clinicianID,
				"fechaHora":  at,
				"estado":     status,
			},
		})
	}

	return records, rowsErr(rows, "consultations")
}

func rowsErr(rows *sql.Rows, what string) error {
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate %s: %w", what, err)
	}

	return nil
}
