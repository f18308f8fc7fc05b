package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// Metrics provides observability for the contract module.
// Tracks case reads and edits, claim-ledger writes and read-path anomalies.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	CasesCreated           prometheus.Counter
	CaseEdits              *prometheus.CounterVec
	ClaimWrites            *prometheus.CounterVec
	DanglingClaimsDropped  prometheus.Counter
	UnreadableValues       *prometheus.CounterVec
	GetCaseDuration        prometheus.Histogram
	ApplyCaseEditDuration  prometheus.Histogram
	ReferenceLookupBatches *prometheus.CounterVec
}

// New creates a Metrics instance registered with the default registerer.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the contract metrics with reg.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CasesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "casedesk_cases_created_total",
			Help: "Total number of cases created",
		}),
		CaseEdits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casedesk_case_edits_total",
			Help: "Case edits by outcome (changed, touched, rejected, conflict)",
		}, []string{"outcome"}),
		ClaimWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casedesk_claim_writes_total",
			Help: "Claim-ledger row writes by operation (create, update, delete)",
		}, []string{"op"}),
		DanglingClaimsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "casedesk_dangling_claims_dropped_total",
			Help: "Claims omitted from aggregates because their creditor no longer exists",
		}),
		UnreadableValues: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casedesk_unreadable_values_total",
			Help: "Stored values that could not be read as their field type and were shown as null",
		}, []string{"column"}),
		GetCaseDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "casedesk_get_case_duration_seconds",
			Help:    "Duration of GetCaseAggregate operations",
			Buckets: durationBuckets,
		}),
		ApplyCaseEditDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "casedesk_apply_case_edit_duration_seconds",
			Help:    "Duration of ApplyCaseEdit operations, including the reload",
			Buckets: durationBuckets,
		}),
		ReferenceLookupBatches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casedesk_reference_lookup_batches_total",
			Help: "Batched registry lookups issued while assembling or validating cases, by kind",
		}, []string{"kind"}),
	}
}

// IncrementCasesCreated records a successful case creation.
func (m *Metrics) IncrementCasesCreated() {
	if m == nil {
		return
	}
	m.CasesCreated.Inc()
}

// IncrementCaseEdit records the outcome of one ApplyCaseEdit call.
func (m *Metrics) IncrementCaseEdit(outcome string) {
	if m == nil {
		return
	}
	m.CaseEdits.WithLabelValues(outcome).Inc()
}

// AddClaimWrites records n claim-ledger writes of one kind.
func (m *Metrics) AddClaimWrites(op string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ClaimWrites.WithLabelValues(op).Add(float64(n))
}

// IncrementDanglingClaims records a claim dropped from an aggregate.
func (m *Metrics) IncrementDanglingClaims() {
	if m == nil {
		return
	}
	m.DanglingClaimsDropped.Inc()
}

// IncrementUnreadableValue records a stored value read back as null.
func (m *Metrics) IncrementUnreadableValue(column string) {
	if m == nil {
		return
	}
	m.UnreadableValues.WithLabelValues(column).Inc()
}

// IncrementReferenceLookup records one batched registry lookup.
func (m *Metrics) IncrementReferenceLookup(kind string) {
	if m == nil {
		return
	}
	m.ReferenceLookupBatches.WithLabelValues(kind).Inc()
}

// ObserveGetCase records the duration of a GetCaseAggregate operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveGetCase(start time.Time) {
	if m == nil {
		return
	}
	m.GetCaseDuration.Observe(time.Since(start).Seconds())
}

// ObserveApplyCaseEdit records the duration of an ApplyCaseEdit operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveApplyCaseEdit(start time.Time) {
	if m == nil {
		return
	}
	m.ApplyCaseEditDuration.Observe(time.Since(start).Seconds())
}
