package report

type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
	StatusSkip Status = "SKIP"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPass, StatusFail, StatusSkip:
		return true
	}
	return false
}

// Record is the immutable outcome of one check for one run. Re-running a
// check replaces the record wholesale; there is no partial field update.
type Record struct {
	Name    string  `json:"name"`
	Status  Status  `json:"status"`
	Message string  `json:"message"`
	Details *string `json:"details"`
}

func Pass(name, message string) Record {
	return Record{Name: name, Status: StatusPass, Message: message}
}

func Fail(name, message, details string) Record {
	r := Record{Name: name, Status: StatusFail, Message: message}
	if details != "" {
		r.Details = &details
	}
	return r
}

func Skip(name, message string) Record {
	return Record{Name: name, Status: StatusSkip, Message: message}
}

func SkipWithDetails(name, message, details string) Record {
	r := Skip(name, message)
	if details != "" {
		r.Details = &details
	}
	return r
}
