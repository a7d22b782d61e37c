package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden       ErrCode = "FORBIDDEN"
	ErrUserAccessOnly  ErrCode = "USER_ACCESS_ONLY"
	ErrAdminAccessOnly ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrConflict        ErrCode = "CONFLICT"
	ErrActionForbidden ErrCode = "ACTION_FORBIDDEN"

	// ─── Contest-specific ──────────────────────────────────────────────
	ErrContestNotAvailable ErrCode = "CONTEST_NOT_AVAILABLE"
	ErrContestNotStarted   ErrCode = "CONTEST_NOT_STARTED"
	ErrContestEnded        ErrCode = "CONTEST_ENDED"
	ErrContestNotPublished ErrCode = "CONTEST_NOT_PUBLISHED"
	ErrNotRegistered       ErrCode = "NOT_REGISTERED"
	ErrAlreadyRegistered   ErrCode = "ALREADY_REGISTERED"
	ErrInsufficientCoins   ErrCode = "INSUFFICIENT_CODECOINS"
	ErrNoProblems          ErrCode = "NO_PROBLEMS"
	ErrContestNotDraft     ErrCode = "CONTEST_NOT_DRAFT"
	ErrInvalidPhase        ErrCode = "INVALID_PHASE_TRANSITION"

	// ─── Submissions ───────────────────────────────────────────────────
	ErrJudgeUnavailable ErrCode = "JUDGE_UNAVAILABLE"
	ErrEvaluationBusy   ErrCode = "EVALUATION_IN_PROGRESS"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Uploads ───────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Incorrect email or password."
	case ErrSessionActive:
		return "You are already signed in on another device."
	case ErrSessionInvalidated:
		return "Your session has ended. Please sign in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrUserAccessOnly:
		return "This resource is restricted to contestants."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrActionForbidden:
		return "This action is not allowed."

	// ─── Contest-specific ──────────────────────────────────────────────
	case ErrContestNotAvailable:
		return "This contest is not currently available."
	case ErrContestNotStarted:
		return "This contest has not started yet."
	case ErrContestEnded:
		return "This contest has already ended."
	case ErrContestNotPublished:
		return "This contest has not been published."
	case ErrNotRegistered:
		return "You are not registered for this contest."
	case ErrAlreadyRegistered:
		return "You are already registered for this contest."
	case ErrInsufficientCoins:
		return "You do not have enough codecoins for the entry fee."
	case ErrNoProblems:
		return "This contest has no problems attached."
	case ErrContestNotDraft:
		return "This contest is not in DRAFT status."
	case ErrInvalidPhase:
		return "The requested phase transition is not allowed."

	// ─── Submissions ───────────────────────────────────────────────────
	case ErrJudgeUnavailable:
		return "The evaluation service is temporarily unavailable."
	case ErrEvaluationBusy:
		return "Another evaluation is already in progress."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Uploads ───────────────────────────────────────────────────────
	case ErrFileRequired:
		return "A file is required."
	case ErrUnsupportedFile:
		return "This file type is not supported."
	case ErrFileTooLarge:
		return "The file exceeds the maximum allowed size."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
