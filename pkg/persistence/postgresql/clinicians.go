package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/saviser/automation/pkg/persistence"
	"github.com/saviser/automation/pkg/protocol"
)

// Assignments in these states count towards a clinician's workload and may be moved.
const (
	assignmentPending    = "pendiente"
	assignmentInProgress = "en_proceso"
)

const foreignKeyViolation = "23503"

// ListActiveClinicians returns active clinicians with their open assignment count, oldest first.
func (s *Store) ListActiveClinicians(ctx context.Context) ([]protocol.ClinicianSummary, error) {
	query := `
		SELECT c.id, COUNT(a.id)
		FROM clinicians c
		LEFT JOIN patient_assignments a
			ON a.medico_id = c.id AND a.estado IN ($1, $2)
		WHERE c.is_active
		GROUP BY c.id, c.created_at
		ORDER BY c.created_at, c.id
	`

	rows, err := s.db.QueryContext(ctx, query, assignmentPending, assignmentInProgress)
	if err != nil {
		return nil, fmt.Errorf("failed to query active clinicians: %w", err)
	}
	defer rows.Close()

	roster := make([]protocol.ClinicianSummary, 0)

	for rows.Next() {
		var c protocol.ClinicianSummary
		if err := rows.Scan(&c.ID, &c.ActiveAssignmentCount); err != nil {
			return nil, fmt.Errorf("failed to scan clinician: %w", err)
		}

		roster = append(roster, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clinicians: %w", err)
	}

	return roster, nil
}

// CreateAssignment inserts a pending assignment and returns its id.
func (s *Store) CreateAssignment(ctx context.Context, req protocol.AssignmentRequest) (string, error) {
	id := uuid.NewString()

	query := `
		INSERT INTO patient_assignments (id, paciente_id, medico_id, motivo_consulta, prioridad, observaciones, estado)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.ExecContext(ctx, query, id, req.PatientID, req.ClinicianID, req.Reason, req.Priority, req.Notes, assignmentPending)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return "", persistence.NewEntityError("CreateAssignment", "clinician", req.ClinicianID, persistence.ErrClinicianNotFound)
		}

		return "", fmt.Errorf("failed to insert assignment: %w", err)
	}

	s.logger.InfoContext(ctx, "Assignment created", "assignment_id", id, "patient_id", req.PatientID, "clinician_id", req.ClinicianID)

	return id, nil
}
