package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/saviser/automation/pkg/persistence"
	"github.com/saviser/automation/pkg/protocol"
)

// CriteriaLeastBusyDoctor moves pending assignments from the busiest to the least busy clinician.
const CriteriaLeastBusyDoctor = "least_busy_doctor"

// Rebalance moves pending assignments inside one transaction until the open workload of the
// roster differs by at most one, or the busiest clinician has nothing left that can move.
func (s *Store) Rebalance(ctx context.Context, criteria string, roster []protocol.ClinicianSummary) (protocol.RebalanceResult, error) {
	result := protocol.RebalanceResult{Criteria: criteria}

	if criteria != CriteriaLeastBusyDoctor {
		return result, fmt.Errorf("%w: %s", persistence.ErrUnknownCriteria, criteria)
	}

	if len(roster) < 2 {
		return result, nil
	}

	load := make([]protocol.ClinicianSummary, len(roster))
	copy(load, roster)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	for {
		busiest, idlest := extremes(load)
		if load[busiest].ActiveAssignmentCount-load[idlest].ActiveAssignmentCount <= 1 {
			break
		}

		from, to := load[busiest].ID, load[idlest].ID

		var assignmentID string

		err := tx.QueryRowContext(ctx, `
			SELECT id FROM patient_assignments
			WHERE medico_id = $1 AND estado = $2
			ORDER BY created_at DESC, id
			LIMIT 1
			FOR UPDATE
		`, from, assignmentPending).Scan(&assignmentID)
		if errors.Is(err, sql.ErrNoRows) {
			break
		}

		if err != nil {
			return result, fmt.Errorf("failed to select assignment to move: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE patient_assignments SET medico_id = $1, updated_at = NOW() WHERE id = $2",
			to, assignmentID)
		if err != nil {
			return result, fmt.Errorf("failed to move assignment %s: %w", assignmentID, err)
		}

		load[busiest].ActiveAssignmentCount--
		load[idlest].ActiveAssignmentCount++

		result.Moves = append(result.Moves, protocol.AssignmentMove{AssignmentID: assignmentID, From: from, To: to})
	}

	if err := tx.Commit(); err != nil {
		return protocol.RebalanceResult{Criteria: criteria}, fmt.Errorf("failed to commit rebalance: %w", err)
	}

	result.Moved = len(result.Moves)

	s.logger.InfoContext(ctx, "Workload rebalanced", "criteria", criteria, "moved", result.Moved)

	return result, nil
}

// extremes returns the indexes of the busiest and least busy clinicians. Ties go to the
// earliest roster entry.
func extremes(roster []protocol.ClinicianSummary) (int, int) {
	busiest, idlest := 0, 0

	for i, c := range roster {
		if c.ActiveAssignmentCount > roster[busiest].ActiveAssignmentCount {
			busiest = i
		}

		if c.ActiveAssignmentCount < roster[idlest].ActiveAssignmentCount {
			idlest = i
		}
	}

	return busiest, idlest
}
