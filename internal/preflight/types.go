package preflight

// Status values used across Report and CheckResult.
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// Category groups checks by the diagnostic they produce on failure.
type Category string

const (
	CategoryEnvironment Category = "environment"
	CategoryConfig      Category = "config"
	CategoryPath        Category = "path"
	CategoryDatastore   Category = "datastore"
	CategoryCache       Category = "cache"
)

// Process exit codes, one per failure category.
const (
	ExitOK          = 0
	ExitGeneric     = 1
	ExitEnvironment = 2
	ExitConfig      = 3
	ExitDatastore   = 4
	ExitCache       = 5
	ExitLaunch      = 6
)

// ExitCode returns the process exit status used when a check in this
// category fails.
func (c Category) ExitCode() int {
	switch c {
	case CategoryEnvironment:
		return ExitEnvironment
	case CategoryConfig:
		return ExitConfig
	case CategoryDatastore:
		return ExitDatastore
	case CategoryCache:
		return ExitCache
	default:
		return ExitGeneric
	}
}

// Remote reports whether checks in this category talk to an external service.
func (c Category) Remote() bool {
	return c == CategoryDatastore || c == CategoryCache
}

// ProbeResult is what a datastore or cache prober reports for one attempt.
type ProbeResult struct {
	Name          string `json:"name"`
	OK            bool   `json:"ok"`
	LatencyMs     int64  `json:"latencyMs"`
	Error         string `json:"error,omitempty"`
	ClientMissing bool   `json:"clientMissing,omitempty"`
}

// CheckResult is the outcome of a single check within a Report.
type CheckResult struct {
	Name          string   `json:"name"`
	Category      Category `json:"category"`
	Status        string   `json:"status"` // "ok", "error", "skipped"
	Error         string   `json:"error,omitempty"`
	Hint          string   `json:"hint,omitempty"`
	ClientMissing bool     `json:"clientMissing,omitempty"`
	LatencyMs     int64    `json:"latencyMs"`
}

// Report is the aggregate result of a preflight run or a diagnosis.
// Checks appear in declaration order.
type Report struct {
	Status string        `json:"status"` // "ok", "error"
	Checks []CheckResult `json:"checks"`
}

// FirstFailure returns the first failed check in order, or nil.
func (r *Report) FirstFailure() *CheckResult {
	for i := range r.Checks {
		if r.Checks[i].Status == StatusError {
			return &r.Checks[i]
		}
	}
	return nil
}

// ExitCode returns the exit status for the report: ExitOK when every check
// passed, otherwise the code of the first failing check's category.
func (r *Report) ExitCode() int {
	if f := r.FirstFailure(); f != nil {
		return f.Category.ExitCode()
	}
	return ExitOK
}
