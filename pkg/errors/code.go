package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 11000-11999: Session & Authentication errors
// 12000-12999: Workspace resource errors
// 13000-13999: Sample execution errors
// 14000-14999: Submission errors
// 15000-15999: Exam & Pool errors
// 16000-16999: Storage errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalError ErrorCode = 10001
	InvalidParams ErrorCode = 10002
	NotFound      ErrorCode = 10003
	Timeout       ErrorCode = 10004
	Canceled      ErrorCode = 10005

	// Configuration errors (10100-10199)
	ConfigInvalid  ErrorCode = 10100
	ConfigNotFound ErrorCode = 10101

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	RequiredFieldEmpty ErrorCode = 10301

	// ========== Session & Authentication Errors (11000-11999) ==========

	AuthenticationFailed ErrorCode = 11000
	InvalidCredentials   ErrorCode = 11001
	SessionExpired       ErrorCode = 11002
	TokenInvalid         ErrorCode = 11003
	LoginAborted         ErrorCode = 11004
	SessionStoreFailed   ErrorCode = 11005

	// ========== Workspace Resource Errors (12000-12999) ==========

	MissingResource  ErrorCode = 12000
	MissingSolution  ErrorCode = 12001
	MissingTestcases ErrorCode = 12002
	UnknownFiletype  ErrorCode = 12003
	DuplicateCase    ErrorCode = 12004

	// ========== Sample Execution Errors (13000-13999) ==========

	ExecutionFailed    ErrorCode = 13000
	CompilationError   ErrorCode = 13001
	ExecutableNotFound ErrorCode = 13002

	// ========== Submission Errors (14000-14999) ==========

	SubmissionFailed    ErrorCode = 14000
	SubmitTooFrequently ErrorCode = 14001
	DuplicateSubmission ErrorCode = 14002
	SubmissionRejected  ErrorCode = 14003
	SamplesNotPassed    ErrorCode = 14004
	SubmissionDeclined  ErrorCode = 14005
	LanguageUnsupported ErrorCode = 14006

	// ========== Exam & Pool Errors (15000-15999) ==========

	InvalidTierRange ErrorCode = 15000
	InvalidBucket    ErrorCode = 15001
	PoolNotFound     ErrorCode = 15002
	SearchFailed     ErrorCode = 15003

	// ========== Storage Errors (16000-16999) ==========

	StorageError ErrorCode = 16000
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:       "Success",
	InternalError: "Internal error",
	InvalidParams: "Invalid parameters",
	NotFound:      "Resource not found",
	Timeout:       "Operation timed out",
	Canceled:      "Operation canceled",

	// Configuration
	ConfigInvalid:  "Invalid configuration",
	ConfigNotFound: "Configuration file not found",

	// Validation
	ValidationFailed:   "Validation failed",
	RequiredFieldEmpty: "Required field is empty",

	// Session
	AuthenticationFailed: "Authentication failed",
	InvalidCredentials:   "Invalid username or password",
	SessionExpired:       "Session has expired",
	TokenInvalid:         "Invalid session token",
	LoginAborted:         "Login aborted",
	SessionStoreFailed:   "Failed to persist session state",

	// Workspace
	MissingResource:  "Workspace resource is missing",
	MissingSolution:  "Solution file is missing or empty",
	MissingTestcases: "Test case directory is missing or has no complete case",
	UnknownFiletype:  "Unknown solution filetype",
	DuplicateCase:    "Test case is defined more than once",

	// Execution
	ExecutionFailed:    "Solution could not be executed",
	CompilationError:   "Compilation error",
	ExecutableNotFound: "Executable not found",

	// Submission
	SubmissionFailed:    "Submission failed",
	SubmitTooFrequently: "Submitting too frequently, please wait",
	DuplicateSubmission: "Duplicate submission",
	SubmissionRejected:  "Submission rejected by judge",
	SamplesNotPassed:    "Sample tests did not pass, submission blocked",
	SubmissionDeclined:  "Submission declined",
	LanguageUnsupported: "Language is not supported by the judge",

	// Exam
	InvalidTierRange: "Invalid tier range",
	InvalidBucket:    "Invalid bucket",
	PoolNotFound:     "Pool snapshot not found",
	SearchFailed:     "Problem search failed",

	// Storage
	StorageError: "Storage operation failed",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// Category names the error class the code belongs to.
func (c ErrorCode) Category() string {
	switch {
	case c == Success:
		return "ok"
	case c == Canceled:
		return "canceled"
	case c >= 11000 && c < 12000:
		return "authentication"
	case c >= 12000 && c < 13000:
		return "missing_resource"
	case c >= 13000 && c < 14000:
		return "execution"
	case c >= 14000 && c < 15000:
		return "submission"
	case c >= 15000 && c < 16000:
		return "exam"
	case c >= 16000 && c < 17000:
		return "storage"
	default:
		return "internal"
	}
}

// ExitCode returns the recommended process exit status for the error code
func (c ErrorCode) ExitCode() int {
	switch c.Category() {
	case "ok":
		return 0
	case "authentication":
		return 2
	case "missing_resource":
		return 3
	case "execution":
		return 4
	case "submission":
		return 5
	case "canceled":
		return 130
	default:
		return 1
	}
}
