package main

// validationCode identifies which check rejected an input. Clients switch on the
// code; the message is the Spanish text shown under the field.
type validationCode string

const (
	codeRequired     validationCode = "required"
	codeFormat       validationCode = "format"
	codeParse        validationCode = "parse"
	codeRange        validationCode = "range"
	codeInvalidValue validationCode = "invalid_value"
	codeNotNumeric   validationCode = "not_numeric"
	codeNoSelection  validationCode = "no_selection"
	codeTooOld       validationCode = "too_old"
	codeFuture       validationCode = "future"
	codeInvalidData  validationCode = "invalid_data"
)

// validationResult is the uniform outcome of every validator. Failures are values,
// not errors: callers check Valid before proceeding.
type validationResult struct {
	Valid        bool           `json:"is_valid"`
	Code         validationCode `json:"code,omitempty"`
	ErrorMessage *string        `json:"error_message,omitempty"`
}

func valid() validationResult {
	return validationResult{Valid: true}
}

func invalid(code validationCode, message string) validationResult {
	return validationResult{Code: code, ErrorMessage: &message}
}

// Message returns the error text, or "" for a successful result.
func (r validationResult) Message() string {
	if r.ErrorMessage == nil {
		return ""
	}
	return *r.ErrorMessage
}
