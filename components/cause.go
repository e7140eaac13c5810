package components

// Cause identifies a mortality cause.
type Cause uint8

const (
	CauseNatural Cause = iota
	CausePredation
	CauseStarvation
	CauseFishing
	CauseOutOfDomain
	NumCauses
)

// String returns the display name for a Cause.
func (c Cause) String() string {
	names := CauseNames()
	if int(c) < len(names) {
		return names[c]
	}
	return "unknown"
}

// CauseNames returns the names of all causes, in Cause order.
func CauseNames() []string {
	return []string{"natural", "predation", "starvation", "fishing", "out_of_domain"}
}
