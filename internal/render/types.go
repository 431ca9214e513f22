package render

const (
	// Display values
	MissingValue = "<none>"
	NAValue      = "n/a"
	UnknownValue = "<unknown>"
	LoadingValue = "…"
	ErrorValue   = "<error>"
	Blank        = ""
)
