package orchestrator

// Failure is the terminal error of an orchestration call. Debug holds the
// rendered exchange of every HTTP call made, joined in order.
type Failure struct {
	Reason string
	Debug  string
	Err    error
}

func (f *Failure) Error() string {
	return f.Reason
}

func (f *Failure) Unwrap() error {
	return f.Err
}
