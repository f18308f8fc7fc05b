package models

import "casedesk/internal/contract/schema"

// Section holds the fields of one stage keyed by wire name. Values are in
// canonical form: nil, string, int64, bool, []int64, []string or
// []map[string]any for nested records.
type Section map[string]any

// Aggregate is the denormalized view of one case. Stages that hold no data
// may be nil; on input, a nil stage means "leave untouched".
type Aggregate struct {
	PrimaryInfo         Section `json:"basic_info,omitempty"`
	PreTrial            Section `json:"pre_court,omitempty"`
	ProcedureInitiation Section `json:"procedure_initiation,omitempty"`
	Procedure           Section `json:"procedure,omitempty"`
}

// Section returns the section of a stage.
func (a *Aggregate) Section(stage schema.Stage) Section {
	if a == nil {
		return nil
	}
	switch stage {
	case schema.StagePrimaryInfo:
		return a.PrimaryInfo
	case schema.StagePreTrial:
		return a.PreTrial
	case schema.StageProcedureInitiation:
		return a.ProcedureInitiation
	case schema.StageProcedure:
		return a.Procedure
	}
	return nil
}

// SetSection replaces the section of a stage.
func (a *Aggregate) SetSection(stage schema.Stage, s Section) {
	switch stage {
	case schema.StagePrimaryInfo:
		a.PrimaryInfo = s
	case schema.StagePreTrial:
		a.PreTrial = s
	case schema.StageProcedureInitiation:
		a.ProcedureInitiation = s
	case schema.StageProcedure:
		a.Procedure = s
	}
}

// ID returns basic_info.id, 0 when absent.
func (a *Aggregate) ID() int64 {
	id, _ := a.Section(schema.StagePrimaryInfo)[schema.FieldID].(int64)
	return id
}

// FormState is the editing model of a case: every stage present and every
// field of every stage set, to its value or its default.
type FormState struct {
	PrimaryInfo         Section `json:"basic_info"`
	PreTrial            Section `json:"pre_court"`
	ProcedureInitiation Section `json:"procedure_initiation"`
	Procedure           Section `json:"procedure"`
}

// Section returns the section of a stage.
func (f *FormState) Section(stage schema.Stage) Section {
	switch stage {
	case schema.StagePrimaryInfo:
		return f.PrimaryInfo
	case schema.StagePreTrial:
		return f.PreTrial
	case schema.StageProcedureInitiation:
		return f.ProcedureInitiation
	case schema.StageProcedure:
		return f.Procedure
	}
	return nil
}

// SetSection replaces the section of a stage.
func (f *FormState) SetSection(stage schema.Stage, s Section) {
	switch stage {
	case schema.StagePrimaryInfo:
		f.PrimaryInfo = s
	case schema.StagePreTrial:
		f.PreTrial = s
	case schema.StageProcedureInitiation:
		f.ProcedureInitiation = s
	case schema.StageProcedure:
		f.Procedure = s
	}
}
