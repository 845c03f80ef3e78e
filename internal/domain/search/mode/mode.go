package mode

// Deprecation selects which resources a listing returns by their deprecation state.
// The zero value excludes deprecated resources.
type Deprecation int

// Deprecation constants.
const (
	// Active lists only resources that are not deprecated (deprecated=false).
	Active Deprecation = iota
	// DeprecatedOnly lists only deprecated resources (deprecated=true).
	DeprecatedOnly
	// All omits the deprecated clause.
	All
)

// IsValid checks if the value is one of the supported constants.
func (d Deprecation) IsValid() bool {
	return d == Active || d == DeprecatedOnly || d == All
}

// QueryValue returns the deprecated= clause value; false means the clause is omitted.
func (d Deprecation) QueryValue() (string, bool) {
	switch d {
	case Active:
		return "false", true
	case DeprecatedOnly:
		return "true", true
	default:
		return "", false
	}
}
