// Package schema describes every field of a case record once: which stage it
// belongs to, where it is persisted, its value type and its default. The
// normalizer, denormalizer and form-state reconciler all iterate this table
// instead of keeping their own field lists.
package schema

import (
	"slices"

	registrymodels "casedesk/internal/registry/models"
)

// Stage is a lifecycle phase of a case. The string values are wire keys.
type Stage string

const (
	StagePrimaryInfo         Stage = "basic_info"
	StagePreTrial            Stage = "pre_court"
	StageProcedureInitiation Stage = "procedure_initiation"
	StageProcedure           Stage = "procedure"
)

// Stages lists the stages in lifecycle order.
var Stages = []Stage{StagePrimaryInfo, StagePreTrial, StageProcedureInitiation, StageProcedure}

// Type is the value type of a field.
type Type int

const (
	TypeString Type = iota
	TypeDate
	TypeDateTime
	TypeMoney
	TypeInt
	TypeBool
	TypeSNILS
	TypeRef
	TypeCreditorIDs
	TypeStringList
	TypeRecords
)

var typeNames = map[Type]string{
	TypeString:      "string",
	TypeDate:        "date",
	TypeDateTime:    "datetime",
	TypeMoney:       "money",
	TypeInt:         "int",
	TypeBool:        "bool",
	TypeSNILS:       "snils",
	TypeRef:         "ref",
	TypeCreditorIDs: "creditor_ids",
	TypeStringList:  "string_list",
	TypeRecords:     "records",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// IsCollection reports whether values of the type are lists. Collection
// fields always default to an empty list, never to null.
func (t Type) IsCollection() bool {
	return t == TypeCreditorIDs || t == TypeStringList || t == TypeRecords
}

// Source tells where a field's value comes from.
type Source int

const (
	// SourceColumn fields are stored in a column of the case row, or of the
	// claim row for claim element fields.
	SourceColumn Source = iota
	// SourceName fields hold the display name resolved for a Ref field.
	SourceName
	// SourceTotal is the computed sum of a claim's money amounts.
	SourceTotal
	// SourceLedger fields are assembled from the claim ledger.
	SourceLedger
)

// Field describes one named value of a stage section or of a record element.
type Field struct {
	Name     string
	Column   string
	Stage    Stage
	Type     Type
	Source   Source
	Ref      registrymodels.Kind
	RefField string // for SourceName fields, the Ref field whose name is shown
	ReadOnly bool
	Required bool
	Unique   bool
	Default  any
	Elem     []Field
}

// Path is the dotted wire path used in validation errors.
func (f Field) Path() string {
	if f.Stage == "" {
		return f.Name
	}
	return string(f.Stage) + "." + f.Name
}

// Persisted reports whether the field is stored in a column.
func (f Field) Persisted() bool {
	return f.Source == SourceColumn && f.Column != ""
}

// Writable reports whether client payloads may set the field.
func (f Field) Writable() bool {
	return !f.ReadOnly && (f.Source == SourceColumn || f.Source == SourceLedger)
}

// DefaultValue returns a fresh default. Collections get a new empty slice on
// every call so callers can append without aliasing.
func (f Field) DefaultValue() any {
	switch f.Type {
	case TypeCreditorIDs:
		return []int64{}
	case TypeStringList:
		return []string{}
	case TypeRecords:
		return []map[string]any{}
	}
	return f.Default
}

// Case field names referenced directly by the service and the stores.
const (
	FieldID        = "id"
	FieldVersion   = "version"
	FieldAuthorID  = "author_id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
	FieldSNILS     = "snils"
	FieldCreditors = "creditors"
	FieldClaims    = "claims"
)

// Claim element field names.
const (
	ClaimCreditorID       = "creditor_id"
	ClaimCreditorName     = "creditor_name"
	ClaimPrincipal        = "principal"
	ClaimInterest         = "interest"
	ClaimPenalties        = "penalties"
	ClaimFines            = "fines"
	ClaimStateDuty        = "state_duty"
	ClaimLegalCosts       = "legal_costs"
	ClaimRegistryPriority = "registry_priority"
	ClaimLegalBasis       = "legal_basis"
	ClaimIncluded         = "included"
	ClaimTotal            = "total"
)

// ClaimAmountFields are the money columns summed into a claim total.
var ClaimAmountFields = []string{
	ClaimPrincipal, ClaimInterest, ClaimPenalties, ClaimFines, ClaimStateDuty, ClaimLegalCosts,
}

// ChildFields is the element schema of basic_info.children.
var ChildFields = []Field{
	{Name: "full_name", Type: TypeString},
	{Name: "birth_date", Type: TypeDate},
	{Name: "birth_certificate", Type: TypeString},
}

// ClaimFields is the element schema of procedure.claims.
var ClaimFields = buildClaimFields()

func buildClaimFields() []Field {
	fields := []Field{
		{Name: ClaimCreditorID, Column: ClaimCreditorID, Type: TypeRef, Ref: registrymodels.KindCreditor, Required: true},
		{Name: ClaimCreditorName, Type: TypeString, Source: SourceName, RefField: ClaimCreditorID, Ref: registrymodels.KindCreditor, ReadOnly: true},
	}
	for _, name := range ClaimAmountFields {
		fields = append(fields, Field{Name: name, Column: name, Type: TypeMoney})
	}
	return append(fields,
		Field{Name: ClaimRegistryPriority, Column: ClaimRegistryPriority, Type: TypeString},
		Field{Name: ClaimLegalBasis, Column: ClaimLegalBasis, Type: TypeStringList},
		Field{Name: ClaimIncluded, Column: ClaimIncluded, Type: TypeBool, Default: false},
		Field{Name: ClaimTotal, Type: TypeMoney, Source: SourceTotal, ReadOnly: true},
	)
}

var caseFields = buildCaseFields()

func buildCaseFields() []Field {
	var b builder

	b.stage = StagePrimaryInfo
	b.add(Field{Name: FieldID, Type: TypeInt, ReadOnly: true})
	b.add(Field{Name: FieldVersion, Column: FieldVersion, Type: TypeInt, ReadOnly: true})
	b.col("contract_number", TypeString)
	b.col("contract_date", TypeDate)
	b.add(Field{Name: "last_name", Column: "last_name", Type: TypeString, Required: true})
	b.add(Field{Name: "first_name", Column: "first_name", Type: TypeString, Required: true})
	b.col("middle_name", TypeString)
	b.col("previous_full_name", TypeString)
	b.col("birth_date", TypeDate)
	b.col("birth_place", TypeString)
	b.add(Field{Name: FieldSNILS, Column: FieldSNILS, Type: TypeSNILS, Unique: true})
	b.col("inn", TypeString)
	b.col("phone", TypeString)
	b.col("email", TypeString)
	b.col("passport_series", TypeString)
	b.col("passport_number", TypeString)
	b.col("passport_issued_by", TypeString)
	b.col("passport_issue_date", TypeDate)
	b.col("passport_department_code", TypeString)
	b.col("registration_region", TypeString)
	b.col("registration_address", TypeString)
	b.col("registration_date", TypeDate)
	b.col("actual_address", TypeString)
	b.col("marital_status", TypeString)
	b.col("employment", TypeString)
	b.add(Field{Name: "children", Column: "children", Type: TypeRecords, Elem: ChildFields})
	b.ref("manager", registrymodels.KindUser)
	b.add(Field{Name: FieldAuthorID, Column: FieldAuthorID, Type: TypeInt, ReadOnly: true})
	b.add(Field{Name: FieldCreatedAt, Column: FieldCreatedAt, Type: TypeDateTime, ReadOnly: true})
	b.add(Field{Name: FieldUpdatedAt, Column: FieldUpdatedAt, Type: TypeDateTime, ReadOnly: true})

	b.stage = StagePreTrial
	b.add(Field{Name: FieldCreditors, Type: TypeCreditorIDs, Source: SourceLedger, Ref: registrymodels.KindCreditor})
	b.ref("court", registrymodels.KindCourt)
	b.col("hearing_at", TypeDateTime)
	b.col("total_debt", TypeMoney)
	b.col("monthly_income", TypeMoney)
	b.col("application_sent_at", TypeDate)
	b.col("pre_court_notes", TypeString)

	b.stage = StageProcedureInitiation
	b.col("procedure_initiation_filed_at", TypeDate)
	b.col("procedure_initiation_accepted_at", TypeDate)
	b.col("procedure_initiation_hearing_at", TypeDateTime)
	b.col("procedure_initiation_case_number", TypeString)
	b.col("procedure_initiation_judge", TypeString)
	b.col("procedure_initiation_deposit", TypeMoney)
	b.ref("bailiff", registrymodels.KindBailiff)
	b.ref("tax_branch", registrymodels.KindTaxBranch)
	b.ref("rosreestr_branch", registrymodels.KindRosreestrBranch)
	b.ref("gibdd_branch", registrymodels.KindGibddBranch)
	b.ref("gostekhnadzor_branch", registrymodels.KindGostekhnadzorBranch)
	b.ref("gims_branch", registrymodels.KindGimsBranch)

	b.stage = StageProcedure
	b.col("procedure_type", TypeString)
	b.col("procedure_started_at", TypeDate)
	b.col("procedure_finished_at", TypeDate)
	b.col("efrsb_published_at", TypeDate)
	b.col("kommersant_published_at", TypeDate)
	b.col("property_inventory_at", TypeDate)
	b.col("registry_closed_at", TypeDate)
	b.col("report_submitted_at", TypeDate)
	b.col("procedure_notes", TypeString)
	b.add(Field{Name: FieldClaims, Type: TypeRecords, Source: SourceLedger, Elem: ClaimFields})

	return b.fields
}

type builder struct {
	stage  Stage
	fields []Field
}

func (b *builder) add(f Field) {
	f.Stage = b.stage
	b.fields = append(b.fields, f)
}

func (b *builder) col(name string, t Type) {
	b.add(Field{Name: name, Column: name, Type: t})
}

// ref adds <prefix>_id and its derived <prefix>_name.
func (b *builder) ref(prefix string, kind registrymodels.Kind) {
	id := prefix + "_id"
	b.add(Field{Name: id, Column: id, Type: TypeRef, Ref: kind})
	b.add(Field{Name: prefix + "_name", Type: TypeString, Source: SourceName, RefField: id, Ref: kind, ReadOnly: true})
}

var (
	byStage  = map[Stage][]Field{}
	byName   = map[Stage]map[string]Field{}
	byColumn = map[string]Field{}
	columns  []string
)

func init() {
	for _, f := range caseFields {
		byStage[f.Stage] = append(byStage[f.Stage], f)
		if byName[f.Stage] == nil {
			byName[f.Stage] = map[string]Field{}
		}
		byName[f.Stage][f.Name] = f
		if f.Persisted() {
			byColumn[f.Column] = f
			columns = append(columns, f.Column)
		}
	}
	slices.Sort(columns)
}

// Fields returns every case field in stage order.
func Fields() []Field {
	return slices.Clone(caseFields)
}

// StageFields returns the fields of one stage in declaration order.
func StageFields(stage Stage) []Field {
	return slices.Clone(byStage[stage])
}

// Lookup finds a field by stage and wire name.
func Lookup(stage Stage, name string) (Field, bool) {
	f, ok := byName[stage][name]
	return f, ok
}

// ByColumn finds the case field persisted in column.
func ByColumn(column string) (Field, bool) {
	f, ok := byColumn[column]
	return f, ok
}

// Columns returns the persisted case columns, sorted, excluding id.
func Columns() []string {
	return slices.Clone(columns)
}

// RefFields returns every case field that points into a registry.
func RefFields() []Field {
	var out []Field
	for _, f := range caseFields {
		if f.Type == TypeRef {
			out = append(out, f)
		}
	}
	return out
}

// ElemField finds a field in a record element schema.
func ElemField(elem []Field, name string) (Field, bool) {
	for _, f := range elem {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
