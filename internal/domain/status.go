package domain

// Severity classifies how overdue a client is, based on whole calendar
// months elapsed since the latest payment's covered period.
type Severity string

const (
	SeverityCurrent    Severity = "current"
	SeverityOverdue    Severity = "overdue"
	SeverityDelinquent Severity = "delinquent"
)

// Classify maps the latest paid period against the current period.
// Zero months behind (or a future-dated period) is current, exactly one
// month behind is overdue, anything older is delinquent. Callers with no
// paid period at all report delinquent without consulting this function.
func Classify(last, current Period) Severity {
	monthsAgo := current.MonthsSince(last)
	switch {
	case monthsAgo <= 0:
		return SeverityCurrent
	case monthsAgo == 1:
		return SeverityOverdue
	default:
		return SeverityDelinquent
	}
}
