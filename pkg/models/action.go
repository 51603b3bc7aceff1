package models

import (
	"encoding/json"
	"fmt"
)

// ActionKind tags an Action variant.
type ActionKind string

const (
	ActionNotification ActionKind = "notification"
	ActionAutoAssign   ActionKind = "auto_assign"
	ActionUpdateStatus ActionKind = "update_status"
	ActionCreateTask   ActionKind = "create_task"
	ActionRedistribute ActionKind = "redistribute_patients"
)

// Action is one typed side effect of a rule. The concrete types are NotificationAction,
// AutoAssignAction, UpdateStatusAction, CreateTaskAction and RedistributeAction.
type Action interface {
	Kind() ActionKind
	isAction()
}

// Selection criteria for AutoAssignAction.
const (
	CriteriaAvailable = "available"
	CriteriaLeastBusy = "least_busy"
)

type NotificationAction struct {
	Channel    string   `json:"channel"    validate:"required"`
	Template   string   `json:"template"   validate:"required"`
	Recipients []string `json:"recipients" validate:"required,min=1,dive,required"`
	Priority   Priority `json:"priority"   validate:"required,oneof=low medium high urgent"`
}

type AutoAssignAction struct {
	Role     string `json:"role"     validate:"required"`
	Criteria string `json:"criteria" validate:"required"`
}

type UpdateStatusAction struct {
	Entity string `json:"entity" validate:"required"`
	Field  string `json:"field"  validate:"required"`
	Value  any    `json:"value"  validate:"required"`
}

type CreateTaskAction struct {
	AssignTo string `json:"assignTo" validate:"required"`
	Task     string `json:"task"     validate:"required"`
}

type RedistributeAction struct {
	Criteria string `json:"criteria" validate:"required"`
}

func (NotificationAction) Kind() ActionKind { return ActionNotification }
func (AutoAssignAction) Kind() ActionKind   { return ActionAutoAssign }
func (UpdateStatusAction) Kind() ActionKind { return ActionUpdateStatus }
func (CreateTaskAction) Kind() ActionKind   { return ActionCreateTask }
func (RedistributeAction) Kind() ActionKind { return ActionRedistribute }

func (NotificationAction) isAction() {}
func (AutoAssignAction) isAction()   {}
func (UpdateStatusAction) isAction() {}
func (CreateTaskAction) isAction()   {}
func (RedistributeAction) isAction() {}

// ActionSpec is the serialised form of an Action: a type tag plus its configuration.
type ActionSpec struct {
	Type   ActionKind     `json:"type"   yaml:"type"`
	Config map[string]any `json:"config" yaml:"config"`
}

// DecodeAction builds the typed variant for spec.
func DecodeAction(spec ActionSpec) (Action, error) {
	var action Action

	switch spec.Type {
	case ActionNotification:
		action = &NotificationAction{}
	case ActionAutoAssign:
		action = &AutoAssignAction{}
	case ActionUpdateStatus:
		action = &UpdateStatusAction{}
	case ActionCreateTask:
		action = &CreateTaskAction{}
	case ActionRedistribute:
		action = &RedistributeAction{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownActionKind, spec.Type)
	}

	raw, err := json.Marshal(spec.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s config: %w", spec.Type, err)
	}

	if err := json.Unmarshal(raw, action); err != nil {
		return nil, fmt.Errorf("failed to decode %s config: %w", spec.Type, err)
	}

	return deref(action), nil
}

// EncodeAction is the inverse of DecodeAction.
func EncodeAction(action Action) (ActionSpec, error) {
	raw, err := json.Marshal(action)
	if err != nil {
		return ActionSpec{}, fmt.Errorf("failed to encode %s config: %w", action.Kind(), err)
	}

	config := map[string]any{}
	if err := json.Unmarshal(raw, &config); err != nil {
		return ActionSpec{}, fmt.Errorf("failed to encode %s config: %w", action.Kind(), err)
	}

	return ActionSpec{Type: action.Kind(), Config: config}, nil
}

func deref(action Action) Action {
	switch a := action.(type) {
	case *NotificationAction:
		return *a
	case *AutoAssignAction:
		return *a
	case *UpdateStatusAction:
		return *a
	case *CreateTaskAction:
		return *a
	case *RedistributeAction:
		return *a
	default:
		return action
	}
}

// Actions is an ordered action list that serialises as ActionSpec envelopes.
type Actions []Action

func (a Actions) MarshalJSON() ([]byte, error) {
	specs := make([]ActionSpec, 0, len(a))

	for _, action := range a {
		spec, err := EncodeAction(action)
		if err != nil {
			return nil, err
		}

		specs = append(specs, spec)
	}

	return json.Marshal(specs)
}

func (a *Actions) UnmarshalJSON(data []byte) error {
	var specs []ActionSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return err
	}

	out := make(Actions, 0, len(specs))

	for _, spec := range specs {
		action, err := DecodeAction(spec)
		if err != nil {
			return err
		}

		out = append(out, action)
	}

	*a = out

	return nil
}
