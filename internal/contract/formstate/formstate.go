// Package formstate maps case aggregates to and from the fully defaulted
// editing model, and decides when an edited form needs saving.
package formstate

import (
	"encoding/json"

	"casedesk/internal/contract/coerce"
	"casedesk/internal/contract/models"
	"casedesk/internal/contract/schema"
)

// DefaultFormState returns an empty form: scalars null or their declared
// default, collections empty.
func DefaultFormState() *models.FormState {
	f := &models.FormState{}
	for _, stage := range schema.Stages {
		section := models.Section{}
		for _, field := range schema.StageFields(stage) {
			section[field.Name] = field.DefaultValue()
		}
		f.SetSection(stage, section)
	}
	return f
}

// ToFormState merges an aggregate over defaults, stage by stage and field by
// field. Fields present in the aggregate win, even when null; absent fields
// take the default. Keys outside the schema are dropped. Nested records are
// defaulted element by element.
func ToFormState(agg *models.Aggregate, defaults *models.FormState) *models.FormState {
	if defaults == nil {
		defaults = DefaultFormState()
	}
	out := &models.FormState{}
	for _, stage := range schema.Stages {
		src := agg.Section(stage)
		base := defaults.Section(stage)
		section := make(models.Section, len(base))
		for _, f := range schema.StageFields(stage) {
			if v, ok := src[f.Name]; ok {
				section[f.Name] = coerce.Lenient(f, v)
				continue
			}
			if v, ok := base[f.Name]; ok {
				if f.Type.IsCollection() {
					v = coerce.Lenient(f, v)
				}
				section[f.Name] = v
				continue
			}
			section[f.Name] = f.DefaultValue()
		}
		out.SetSection(stage, section)
	}
	return out
}

// FromFormState turns a form back into a full aggregate for saving. Values are
// copied as they are, except that the creditor list is flattened to ids.
func FromFormState(f *models.FormState) *models.Aggregate {
	agg := &models.Aggregate{}
	if f == nil {
		return agg
	}
	for _, stage := range schema.Stages {
		src := f.Section(stage)
		section := make(models.Section, len(src))
		for _, field := range schema.StageFields(stage) {
			v, ok := src[field.Name]
			if !ok {
				continue
			}
			if field.Type == schema.TypeCreditorIDs {
				v = coerce.NormalizeCreditors(v)
			}
			section[field.Name] = v
		}
		agg.SetSection(stage, section)
	}
	return agg
}

// Reconciler tracks the last saved serialization of a form. The zero value
// treats every form as dirty.
type Reconciler struct {
	lastSerialized string
}

// Serialize renders a form canonically: object keys sorted, numbers in their
// shortest form, so equal forms always serialize identically.
func (r *Reconciler) Serialize(f *models.FormState) (string, error) {
	raw, err := json.Marshal(f)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// IsDirty reports whether f differs from the last saved form. A form that
// cannot be serialized is dirty.
func (r *Reconciler) IsDirty(f *models.FormState) bool {
	s, err := r.Serialize(f)
	if err != nil {
		return true
	}
	return s != r.lastSerialized
}

// MarkSaved records f as the last saved form.
func (r *Reconciler) MarkSaved(f *models.FormState) error {
	s, err := r.Serialize(f)
	if err != nil {
		return err
	}
	r.lastSerialized = s
	return nil
}
