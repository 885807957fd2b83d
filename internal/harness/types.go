package harness

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Name string `json:"name"`

	// Repr is the object's representation; empty when the step failed.
	Repr string `json:"repr,omitempty"`

	// ErrorCode and Error describe a failed step.
	ErrorCode string `json:"error_code,omitempty"`
	Error     string `json:"error,omitempty"`

	// ObjectID and Seq are set for stored objects.
	ObjectID string `json:"object_id,omitempty"`
	Seq      int64  `json:"seq,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion matched.
	Pass bool `json:"pass"`

	ModelHash string   `json:"model_hash"`
	RunID     string   `json:"run_id"`
	Warnings  []string `json:"warnings,omitempty"`

	Steps []StepResult `json:"steps"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
