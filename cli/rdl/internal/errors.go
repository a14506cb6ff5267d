package internal

// ErrorWithSuggestion is a custom error type that includes a suggestion for the user
type ErrorWithSuggestion struct {
	Suggestion string
	Err        error
}

// Error returns the error message
func (es *ErrorWithSuggestion) Error() string {
	return es.Err.Error()
}

// Unwrap returns the wrapped error
func (es *ErrorWithSuggestion) Unwrap() error {
	return es.Err
}

// ReportedError is an error that was already shown to the user, in a message box. It fails the command without being
// printed again.
type ReportedError struct {
	Err error
}

func (e *ReportedError) Error() string {
	return e.Err.Error()
}

func (e *ReportedError) Unwrap() error {
	return e.Err
}
