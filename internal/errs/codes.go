// Package errs provides structured error handling for the docidx index core.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Argument/lifecycle errors
//   - 2XX: Analyzer construction errors
//   - 3XX: Write-path errors (action, extension, per-item transform)
//   - 4XX: Directory/storage errors
package errs

// Category classifies an error by the part of the write/query path that raised it.
type Category string

const (
	// CategoryArgument indicates a caller supplied an invalid query or sort field.
	CategoryArgument Category = "ARGUMENT"
	// CategoryLifecycle names operations against a disposed Index. No code
	// maps to it: categoryFromCode assigns every 1XX code, including
	// ErrCodeAlreadyDisposed, to CategoryArgument.
	CategoryLifecycle Category = "LIFECYCLE"
	// CategoryAnalyzer indicates analyzer construction failed.
	CategoryAnalyzer Category = "ANALYZER"
	// CategoryWrite indicates the write action, an extension, or a per-item transform failed.
	CategoryWrite Category = "WRITE"
	// CategoryDirectory indicates the backing Directory failed to open, close, or promote.
	CategoryDirectory Category = "DIRECTORY"
)

// Severity mirrors the spec's error-handling policy: fatal errors abort the
// calling operation, warnings are recorded and then swallowed.
type Severity string

const (
	SeverityFatal   Severity = "FATAL"
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
)

// Error codes, one per spec §7 error kind plus the directory failures the
// write and dispose paths can raise.
const (
	// ErrCodeInvalidArgument: a query or sort descriptor references an
	// undeclared field. Propagates to the caller.
	ErrCodeInvalidArgument = "ERR_101_INVALID_ARGUMENT"

	// ErrCodeAlreadyDisposed: a write or query was attempted after Dispose.
	// Propagates to the caller.
	ErrCodeAlreadyDisposed = "ERR_102_ALREADY_DISPOSED"

	// ErrCodeAnalyzerConstruction: the Analyzer Factory failed to build a
	// composite analyzer. Recorded on the Work Context then propagated.
	ErrCodeAnalyzerConstruction = "ERR_201_ANALYZER_CONSTRUCTION"

	// ErrCodeWriteActionFailed: the caller-supplied write action returned
	// an error. Recorded on the Work Context then propagated.
	ErrCodeWriteActionFailed = "ERR_301_WRITE_ACTION_FAILED"

	// ErrCodeExtensionFailed: an Index Extension's OnDocumentsIndexed
	// callback returned an error. Propagates during indexing; logged and
	// swallowed during dispose.
	ErrCodeExtensionFailed = "ERR_302_EXTENSION_FAILED"

	// ErrCodePerItemTransformFailed: a single source document's transform
	// raised an error. Captured by the Robust Enumerator, never propagated.
	ErrCodePerItemTransformFailed = "ERR_303_PER_ITEM_TRANSFORM_FAILED"

	// ErrCodeDirectoryCloseFailed: the Directory failed to close during
	// dispose. Logged and swallowed.
	ErrCodeDirectoryCloseFailed = "ERR_401_DIRECTORY_CLOSE_FAILED"

	// ErrCodeDirectoryOpenFailed: the Directory failed to open, or the RAM
	// to filesystem promotion failed. Propagates.
	ErrCodeDirectoryOpenFailed = "ERR_402_DIRECTORY_OPEN_FAILED"
)

// categoryFromCode extracts the category from an error code's numeric prefix.
func categoryFromCode(code string) Category {
	if len(code) < 5 {
		return CategoryWrite
	}
	switch code[4] {
	case '1':
		return CategoryArgument
	case '2':
		return CategoryAnalyzer
	case '3':
		return CategoryWrite
	case '4':
		return CategoryDirectory
	default:
		return CategoryWrite
	}
}

// severityFromCode assigns the severity the error-handling policy in spec §7 implies.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeInvalidArgument, ErrCodeAlreadyDisposed:
		return SeverityFatal
	case ErrCodeDirectoryCloseFailed, ErrCodePerItemTransformFailed:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// swallowedByPolicy reports whether spec §7 says this error kind is logged
// and swallowed, rather than propagated, when raised during dispose or
// per-item transform.
func swallowedByPolicy(code string) bool {
	switch code {
	case ErrCodeDirectoryCloseFailed, ErrCodePerItemTransformFailed:
		return true
	default:
		return false
	}
}
