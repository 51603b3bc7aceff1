// Package rulefile loads custom automation rules from YAML documents.
package rulefile

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/saviser/automation/pkg/models"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schema string

var ErrInvalidDocument = errors.New("invalid rules document")

type document struct {
	Rules []ruleSpec `yaml:"rules"`
}

type ruleSpec struct {
	ID         string              `yaml:"id"`
	Name       string              `yaml:"name"`
	Trigger    models.TriggerKind  `yaml:"trigger"`
	On         string              `yaml:"on"`
	Active     *bool               `yaml:"active"`
	Conditions []models.Condition  `yaml:"conditions"`
	Actions    []models.ActionSpec `yaml:"actions"`
}

// Load reads and parses the rules file at path.
func Load(path string) ([]*models.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	rules, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return rules, nil
}

// Parse validates data against the rules schema and builds validated rules. Rules are active
// unless they say otherwise.
func Parse(data []byte) ([]*models.Rule, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	rules := make([]*models.Rule, 0, len(doc.Rules))

	for _, spec := range doc.Rules {
		rule, err := spec.build()
		if err != nil {
			return nil, err
		}

		rules = append(rules, rule)
	}

	return rules, nil
}

func (s ruleSpec) build() (*models.Rule, error) {
	rule := &models.Rule{
		ID:         s.ID,
		Name:       s.Name,
		Trigger:    s.Trigger,
		On:         s.On,
		Conditions: s.Conditions,
		Active:     s.Active == nil || *s.Active,
	}

	for _, spec := range s.Actions {
		action, err := models.DecodeAction(spec)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", s.ID, err)
		}

		rule.Actions = append(rule.Actions, action)
	}

	if err := rule.Validate(); err != nil {
		return nil, err
	}

	return rule, nil
}

func validateSchema(doc any) error {
	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(schema), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			messages = append(messages, e.String())
		}

		return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(messages, "; "))
	}

	return nil
}
