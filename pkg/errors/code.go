package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 11000-11999: User & Auth errors
// 12000-12999: Challenge errors
// 13000-13999: Submission & Scoring errors
// 14000-14999: Leaderboard errors

const (
	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	Unauthorized        ErrorCode = 10004
	Forbidden           ErrorCode = 10005
	TooManyRequests     ErrorCode = 10006
	ServiceUnavailable  ErrorCode = 10007

	// Database errors (10100-10199)
	DatabaseError     ErrorCode = 10100
	RecordNotFound    ErrorCode = 10101
	TransactionFailed ErrorCode = 10102

	// Cache errors (10200-10299)
	CacheError ErrorCode = 10200

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	RequiredFieldEmpty ErrorCode = 10301

	// ========== User & Auth Errors (11000-11999) ==========

	// Authentication (11000-11099)
	InvalidCredentials    ErrorCode = 11000
	UserNotFound          ErrorCode = 11001
	TokenExpired          ErrorCode = 11002
	TokenInvalid          ErrorCode = 11003
	TokenGenerationFailed ErrorCode = 11004
	LoginTooFrequently    ErrorCode = 11005

	// Registration (11100-11199)
	UsernameAlreadyExists ErrorCode = 11100
	EmailAlreadyExists    ErrorCode = 11101
	InvalidUsername       ErrorCode = 11102
	InvalidEmail          ErrorCode = 11103
	InvalidPassword       ErrorCode = 11104

	// ========== Challenge Errors (12000-12999) ==========

	ChallengeNotFound    ErrorCode = 12000
	ChallengeTitleExists ErrorCode = 12001
	ChallengeInvalid     ErrorCode = 12002

	// ========== Submission & Scoring Errors (13000-13999) ==========

	SubmissionNotFound  ErrorCode = 13000
	AlreadySolved       ErrorCode = 13001
	SubmitTooFrequently ErrorCode = 13002

	// ========== Leaderboard Errors (14000-14999) ==========

	RankNotFound ErrorCode = 14000
)

var codeMessages = map[ErrorCode]string{
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid request parameters",
	NotFound:            "Resource not found",
	Unauthorized:        "Unauthorized",
	Forbidden:           "Forbidden",
	TooManyRequests:     "Too many requests",
	ServiceUnavailable:  "Service unavailable",

	DatabaseError:     "Database error",
	RecordNotFound:    "Record not found",
	TransactionFailed: "Transaction failed",

	CacheError: "Cache error",

	ValidationFailed:   "Validation failed",
	RequiredFieldEmpty: "Required field is empty",

	InvalidCredentials:    "Invalid username or password",
	UserNotFound:          "User not found",
	TokenExpired:          "Token has expired",
	TokenInvalid:          "Token is invalid",
	TokenGenerationFailed: "Failed to generate token",
	LoginTooFrequently:    "Too many login attempts, please slow down",

	UsernameAlreadyExists: "Username is already taken",
	EmailAlreadyExists:    "Email is already in use",
	InvalidUsername:       "Invalid username",
	InvalidEmail:          "Invalid email",
	InvalidPassword:       "Invalid password",

	ChallengeNotFound:    "Challenge not found",
	ChallengeTitleExists: "Challenge title already exists",
	ChallengeInvalid:     "Invalid challenge definition",

	SubmissionNotFound:  "Submission not found",
	AlreadySolved:       "You have already solved this challenge",
	SubmitTooFrequently: "Too many flag submissions, please slow down",

	RankNotFound: "User not found in leaderboard",
}

// Message returns the default human-readable message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == InvalidCredentials, c == Unauthorized, c == TokenExpired, c == TokenInvalid:
		return 401
	case c == Forbidden:
		return 403
	case c == NotFound, c == RecordNotFound, c == UserNotFound,
		c == ChallengeNotFound, c == SubmissionNotFound, c == RankNotFound:
		return 404
	case c == UsernameAlreadyExists, c == EmailAlreadyExists, c == ChallengeTitleExists:
		return 409
	case c == TooManyRequests, c == SubmitTooFrequently, c == LoginTooFrequently:
		return 429
	case c == ServiceUnavailable:
		return 503
	case c >= 10300 && c < 10400:
		return 400
	case c == InvalidParams, c == AlreadySolved, c == ChallengeInvalid,
		c >= 11100 && c < 11200:
		return 400
	default:
		return 500
	}
}
