// Package registry holds the automation rules known to an engine.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/saviser/automation/pkg/models"
)

var ErrRuleNotFound = errors.New("rule not found")

// Registry keeps rules in registration order. Callers only ever see copies; the registry is the
// single writer of Active and LastExecuted.
type Registry struct {
	mu     sync.RWMutex
	rules  []*models.Rule
	logger *slog.Logger
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger: log.With("module", "registry"),
	}
}

// Register validates and appends rule. Identifier collisions are not checked.
func (r *Registry) Register(rule *models.Rule) error {
	if rule == nil {
		return fmt.Errorf("%w: nil rule", models.ErrInvalidRule)
	}

	if err := rule.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule.Clone())
	r.logger.Debug("Rule registered", "rule_id", rule.ID, "trigger", rule.Trigger, "active", rule.Active)

	return nil
}

// Toggle sets the active flag of the first rule with id. It reports whether such a rule exists.
func (r *Registry) Toggle(id string, active bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rule := r.find(id)
	if rule == nil {
		return false
	}

	rule.Active = active

	r.logger.Info("Rule toggled", "rule_id", id, "name", rule.Name, "active", active)

	return true
}

// MarkExecuted records a completed invocation of the first rule with id.
func (r *Registry) MarkExecuted(id string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rule := r.find(id); rule != nil {
		rule.LastExecuted = &at
	}
}

func (r *Registry) Rule(id string) (*models.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule := r.find(id)
	if rule == nil {
		return nil, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}

	return rule.Clone(), nil
}

// Rules returns every rule in registration order.
func (r *Registry) Rules() []*models.Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule.Clone())
	}

	return out
}

// Active returns the active rules with the given trigger, in registration order.
func (r *Registry) Active(trigger models.TriggerKind) []*models.Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Rule, 0)

	for _, rule := range r.rules {
		if rule.Active && rule.Trigger == trigger {
			out = append(out, rule.Clone())
		}
	}

	return out
}

// Stats counts rules; ExecutedToday uses the calendar day of now.
func (r *Registry) Stats(now time.Time) models.Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := models.Stats{TotalRules: len(r.rules)}

	for _, rule := range r.rules {
		if rule.Active {
			stats.ActiveRules++
		}

		if rule.ExecutedOn(now) {
			stats.ExecutedToday++
		}
	}

	return stats
}

func (r *Registry) find(id string) *models.Rule {
	for _, rule := range r.rules {
		if rule.ID == id {
			return rule
		}
	}

	return nil
}
