package discovery

import "encoding/json"

const (
	// SeverityWarning indicates a recoverable discovery warning.
	SeverityWarning Severity = "warning"
)

// Diagnostic codes.
const (
	CodeRuleInvalid       = "rule_invalid"
	CodeScanPathMissing   = "scan_path_missing"
	CodeScanPathInvalid   = "scan_path_invalid"
	CodeScanDirUnreadable = "scan_dir_unreadable"
	CodeFileStatFailed    = "file_stat_failed"
)

type (
	// Severity represents discovery diagnostic severity.
	Severity string

	// Diagnostic is a non-fatal problem found while scanning. Discovery keeps
	// going after every diagnostic; callers decide how to surface them.
	Diagnostic struct {
		Severity Severity
		// Code is a machine-readable identifier such as "scan_path_missing".
		Code    string
		Message string
		Path    string
		Cause   error
	}
)

// MarshalJSON encodes the diagnostic without its Cause, which is not
// serializable in general.
func (d Diagnostic) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Severity Severity `json:"severity"`
		Code     string   `json:"code"`
		Message  string   `json:"message"`
		Path     string   `json:"path,omitempty"`
	}{d.Severity, d.Code, d.Message, d.Path})
}

func warning(code, path, msg string, cause error) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Code: code, Message: msg, Path: path, Cause: cause}
}
