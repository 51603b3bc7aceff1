package postgresql

import (
	"context"
	"fmt"

	"github.com/saviser/automation/pkg/persistence"
	"github.com/saviser/automation/pkg/protocol"
)

// writableFields maps entity kinds to their table and the columns rules may set.
var writableFields = map[string]struct {
	table   string
	columns map[string]string
}{
	"appointment": {
		table:   "appointments",
		columns: map[string]string{"estado": "estado"},
	},
	"consultation": {
		table:   "consultations",
		columns: map[string]string{"estado": "estado"},
	},
	"assignment": {
		table:   "patient_assignments",
		columns: map[string]string{"estado": "estado", "prioridad": "prioridad"},
	},
}

// SetField writes a single whitelisted column of an entity.
func (s *Store) SetField(ctx context.Context, ref protocol.EntityRef, field string, value any) error {
	entity, ok := writableFields[ref.Kind]
	if !ok {
		return persistence.NewEntityError("SetField", ref.Kind, ref.ID, persistence.ErrUnknownEntity)
	}

	column, ok := entity.columns[field]
	if !ok {
		return persistence.NewEntityError("SetField", ref.Kind, ref.ID, fmt.Errorf("%w: %s", persistence.ErrUnknownField, field))
	}

	query := fmt.Sprintf("UPDATE %s SET %s = $1, updated_at = NOW() WHERE id = $2", entity.table, column)

	result, err := s.db.ExecContext(ctx, query, fmt.Sprint(value), ref.ID)
	if err != nil {
		return persistence.NewEntityError("SetField", ref.Kind, ref.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewEntityError("SetField", ref.Kind, ref.ID, err)
	}

	if affected == 0 {
		return persistence.NewEntityError("SetField", ref.Kind, ref.ID, persistence.ErrEntityNotFound)
	}

	s.logger.InfoContext(ctx, "Entity updated", "kind", ref.Kind, "id", ref.ID, "field", field, "value", value)

	return nil
}
