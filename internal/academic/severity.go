package academic

// Severity bands days-overdue for display. Every view consumes this one
// function so the thresholds cannot drift between screens.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// SeverityFor bands a signed days-overdue count: up to 15 days is low,
// 16-30 medium, beyond 30 high.
func SeverityFor(daysOverdue int) Severity {
	switch {
	case daysOverdue <= 15:
		return SeverityLow
	case daysOverdue <= 30:
		return SeverityMedium
	default:
		return SeverityHigh
	}
}
