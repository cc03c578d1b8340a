package util

type SacctCmdError = int

// general
const (
	ErrorSuccess SacctCmdError = 0
	ErrorGeneric SacctCmdError = 1
	ErrorCmdArg  SacctCmdError = 2
	ErrorExec    SacctCmdError = 3
	ErrorParse   SacctCmdError = 4
	ErrorConfig  SacctCmdError = 5
	ErrorIO      SacctCmdError = 6
)

// SacctError carries the process exit code for a failed command.
type SacctError struct {
	Code    SacctCmdError
	Message string
}

func (e *SacctError) Error() string {
	return e.Message
}

func NewSacctErr(code SacctCmdError, message string) *SacctError {
	return &SacctError{Code: code, Message: message}
}
