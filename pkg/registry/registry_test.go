package registry

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/saviser/automation/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()

	r := NewRegistry(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
	for _, rule := range DefaultRules() {
		require.NoError(t, r.Register(rule))
	}

	return r
}

func TestDefaultRules_AreValid(t *testing.T) {
	rules := DefaultRules()
	require.Len(t, rules, 5)

	ids := make([]string, 0, len(rules))
	for _, rule := range rules {
		require.NoError(t, rule.Validate(), rule.ID)
		assert.True(t, rule.Active, rule.ID)
		ids = append(ids, rule.ID)
	}

	assert.Equal(t, []string{
		RuleAppointmentReminder,
		RuleHighPriorityTriage,
		RulePatientFollowUp,
		RuleAppointmentConfirm,
		RuleWorkloadBalance,
	}, ids)
}

func TestRegistry_StatsAfterDefaults(t *testing.T) {
	r := newTestRegistry(t)

	assert.Equal(t, models.Stats{TotalRules: 5, ActiveRules: 5, ExecutedToday: 0}, r.Stats(time.Now()))
}

func TestRegistry_Toggle(t *testing.T) {
	r := newTestRegistry(t)

	assert.True(t, r.Toggle(RulePatientFollowUp, false))
	assert.Equal(t, 4, r.Stats(time.Now()).ActiveRules)

	rule, err := r.Rule(RulePatientFollowUp)
	require.NoError(t, err)
	assert.False(t, rule.Active)

	assert.True(t, r.Toggle(RulePatientFollowUp, true))
	assert.Equal(t, 5, r.Stats(time.Now()).ActiveRules)
}

func TestRegistry_ToggleUnknownIsNoop(t *testing.T) {
	r := newTestRegistry(t)
	before := r.Rules()

	assert.False(t, r.Toggle("no-such-rule", false))
	assert.Equal(t, before, r.Rules())
}

func TestRegistry_Active(t *testing.T) {
	r := newTestRegistry(t)

	timeRules := r.Active(models.TriggerTime)
	require.Len(t, timeRules, 3)
	assert.Equal(t, RuleAppointmentReminder, timeRules[0].ID)
	assert.Equal(t, RulePatientFollowUp, timeRules[1].ID)
	assert.Equal(t, RuleAppointmentConfirm, timeRules[2].ID)

	r.Toggle(RuleHighPriorityTriage, false)

	eventRules := r.Active(models.TriggerEvent)
	require.Len(t, eventRules, 1)
	assert.Equal(t, RuleWorkloadBalance, eventRules[0].ID)

	assert.Empty(t, r.Active(models.TriggerCondition))
}

func TestRegistry_SnapshotsAreCopies(t *testing.T) {
	r := newTestRegistry(t)

	rules := r.Rules()
	rules[0].Active = false
	rules[0].Conditions[0].Value = "yesterday"

	rule, err := r.Rule(rules[0].ID)
	require.NoError(t, err)
	assert.True(t, rule.Active)
	assert.Equal(t, "tomorrow", rule.Conditions[0].Value)
}

func TestRegistry_RegisterRejectsInvalidRules(t *testing.T) {
	r := newTestRegistry(t)

	err := r.Register(&models.Rule{ID: "broken", Name: "Broken", Trigger: models.TriggerEvent})
	require.ErrorIs(t, err, models.ErrInvalidRule)

	err = r.Register(nil)
	require.ErrorIs(t, err, models.ErrInvalidRule)

	assert.Len(t, r.Rules(), 5)
}

func TestRegistry_RegisterDoesNotCheckCollisions(t *testing.T) {
	r := newTestRegistry(t)

	duplicate := DefaultRules()[0]
	duplicate.Name = "Second reminder"
	require.NoError(t, r.Register(duplicate))

	assert.Len(t, r.Rules(), 6)
}

func TestRegistry_MarkExecuted(t *testing.T) {
	r := newTestRegistry(t)
	now := time.Date(2026, time.October, 15, 10, 0, 0, 0, time.UTC)

	r.MarkExecuted(RuleHighPriorityTriage, now.Add(-time.Hour))
	r.MarkExecuted(RuleWorkloadBalance, now.Add(-24*time.Hour))
	r.MarkExecuted("no-such-rule", now)

	rule, err := r.Rule(RuleHighPriorityTriage)
	require.NoError(t, err)
	require.NotNil(t, rule.LastExecuted)
	assert.Equal(t, now.Add(-time.Hour), *rule.LastExecuted)

	assert.Equal(t, 1, r.Stats(now).ExecutedToday)
}

func TestRegistry_RuleNotFound(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Rule("missing")
	assert.ErrorIs(t, err, ErrRuleNotFound)
}
