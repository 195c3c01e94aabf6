package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeFeatureDisabled    ErrorCode = "COMMON_015"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
)

// Aliases used by call sites that predate the module prefixes.
const (
	CodeInternal       = ErrCodeInternal
	CodeInvalidParam   = ErrCodeBadRequest
	CodeUnauthorized   = ErrCodeUnauthorized
	CodeForbidden      = ErrCodeForbidden
	CodeNotFound       = ErrCodeNotFound
	CodeConflict       = ErrCodeConflict
	CodeRateLimit      = ErrCodeTooManyRequests
	CodeNotImplemented = ErrCodeNotImplemented
	CodeValidation     = ErrCodeValidation
	CodeOK             = ErrorCode("OK")
	CodeUnknown        = ErrorCode("UNKNOWN")

	// Domain specific aliases
	CodeTaskNotFound    = ErrCodeTaskNotFound
	CodeAssetNotFound   = ErrCodeAssetNotFound
	CodeAccrualNotFound = ErrCodeAccrualNotFound
	CodeSuitNotFound    = ErrCodeSuitNotFound
)

// Task Module Error Codes
const (
	ErrCodeTaskNotFound         ErrorCode = "TASK_001"
	ErrCodeTaskTypeRequired     ErrorCode = "TASK_002"
	ErrCodeTaskTypeUnknown      ErrorCode = "TASK_003"
	ErrCodeRelatedPartyRequired ErrorCode = "TASK_004"
	ErrCodeInvalidStatus        ErrorCode = "TASK_005"
	ErrCodeInvalidTransition    ErrorCode = "TASK_006"
	ErrCodeTaskPersistFailed    ErrorCode = "TASK_007"
	ErrCodeAssignmentNotAllowed ErrorCode = "TASK_008"
	ErrCodeDocumentNotFound     ErrorCode = "TASK_009"
	ErrCodeSubmissionInProgress ErrorCode = "TASK_010"
)

// Asset Module Error Codes
const (
	ErrCodeAssetNotFound         ErrorCode = "AST_001"
	ErrCodeAssetAlreadyExists    ErrorCode = "AST_002"
	ErrCodeInvalidNiceClass      ErrorCode = "AST_003"
	ErrCodeBulletinPromoteFailed ErrorCode = "AST_004"
	ErrCodeAssetSearchFailed     ErrorCode = "AST_005"
)

// Accrual Module Error Codes
const (
	ErrCodeAccrualNotFound      ErrorCode = "ACR_001"
	ErrCodeInvalidFee           ErrorCode = "ACR_002"
	ErrCodeAccrualCreateFailed  ErrorCode = "ACR_003"
	ErrCodeAccrualExportFailed  ErrorCode = "ACR_004"
	ErrCodeInvalidAccrualStatus ErrorCode = "ACR_005"
)

// Sequencer Error Codes
const (
	ErrCodeSequenceAllocFailed ErrorCode = "SEQ_001"
	ErrCodeSequenceContention  ErrorCode = "SEQ_002"
	ErrCodeSequenceDuplicateID ErrorCode = "SEQ_003"
)

// Calendar Error Codes
const (
	ErrCodeInvalidDate       ErrorCode = "CAL_001"
	ErrCodeHolidayFeedFailed ErrorCode = "CAL_002"
)

// File Storage Error Codes
const (
	ErrCodeFileUploadFailed ErrorCode = "FIL_001"
	ErrCodeFileTooLarge     ErrorCode = "FIL_002"
	ErrCodeFileNotFound     ErrorCode = "FIL_003"
)

// Suit Module Error Codes
const (
	ErrCodeSuitNotFound     ErrorCode = "SUIT_001"
	ErrCodeSuitCreateFailed ErrorCode = "SUIT_002"
)

// Bulletin Source Error Codes
const (
	ErrCodeBulletinNotFound    ErrorCode = "BUL_001"
	ErrCodeBulletinUnavailable ErrorCode = "BUL_002"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusBadRequest,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeFeatureDisabled:    http.StatusForbidden,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeTaskNotFound:         http.StatusNotFound,
	ErrCodeTaskTypeRequired:     http.StatusUnprocessableEntity,
	ErrCodeTaskTypeUnknown:      http.StatusUnprocessableEntity,
	ErrCodeRelatedPartyRequired: http.StatusUnprocessableEntity,
	ErrCodeInvalidStatus:        http.StatusBadRequest,
	ErrCodeInvalidTransition:    http.StatusConflict,
	ErrCodeTaskPersistFailed:    http.StatusInternalServerError,
	ErrCodeAssignmentNotAllowed: http.StatusForbidden,
	ErrCodeDocumentNotFound:     http.StatusNotFound,
	ErrCodeSubmissionInProgress: http.StatusConflict,

	ErrCodeAssetNotFound:         http.StatusNotFound,
	ErrCodeAssetAlreadyExists:    http.StatusConflict,
	ErrCodeInvalidNiceClass:      http.StatusUnprocessableEntity,
	ErrCodeBulletinPromoteFailed: http.StatusInternalServerError,
	ErrCodeAssetSearchFailed:     http.StatusInternalServerError,

	ErrCodeAccrualNotFound:      http.StatusNotFound,
	ErrCodeInvalidFee:           http.StatusUnprocessableEntity,
	ErrCodeAccrualCreateFailed:  http.StatusInternalServerError,
	ErrCodeAccrualExportFailed:  http.StatusInternalServerError,
	ErrCodeInvalidAccrualStatus: http.StatusBadRequest,

	ErrCodeSequenceAllocFailed: http.StatusInternalServerError,
	ErrCodeSequenceContention:  http.StatusServiceUnavailable,
	ErrCodeSequenceDuplicateID: http.StatusConflict,

	ErrCodeInvalidDate:       http.StatusBadRequest,
	ErrCodeHolidayFeedFailed: http.StatusBadGateway,

	ErrCodeFileUploadFailed: http.StatusBadGateway,
	ErrCodeFileTooLarge:     http.StatusRequestEntityTooLarge,
	ErrCodeFileNotFound:     http.StatusNotFound,

	ErrCodeSuitNotFound:     http.StatusNotFound,
	ErrCodeSuitCreateFailed: http.StatusInternalServerError,

	ErrCodeBulletinNotFound:    http.StatusNotFound,
	ErrCodeBulletinUnavailable: http.StatusBadGateway,
}

// ErrorCodeMessage maps ErrorCodes to default user-facing messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization error",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeFeatureDisabled:    "feature disabled",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeTaskNotFound:         "task not found",
	ErrCodeTaskTypeRequired:     "task type is required",
	ErrCodeTaskTypeUnknown:      "unknown task type",
	ErrCodeRelatedPartyRequired: "related party is required for this task type",
	ErrCodeInvalidStatus:        "invalid task status",
	ErrCodeInvalidTransition:    "status transition not allowed",
	ErrCodeTaskPersistFailed:    "failed to persist task",
	ErrCodeAssignmentNotAllowed: "manual reassignment not allowed for this task type",
	ErrCodeDocumentNotFound:     "document not found",
	ErrCodeSubmissionInProgress: "an identical submission is already in progress",

	ErrCodeAssetNotFound:         "asset not found",
	ErrCodeAssetAlreadyExists:    "asset already exists",
	ErrCodeInvalidNiceClass:      "invalid nice classification line",
	ErrCodeBulletinPromoteFailed: "failed to promote bulletin record",
	ErrCodeAssetSearchFailed:     "asset search failed",

	ErrCodeAccrualNotFound:      "accrual not found",
	ErrCodeInvalidFee:           "invalid fee",
	ErrCodeAccrualCreateFailed:  "failed to create accrual",
	ErrCodeAccrualExportFailed:  "failed to export accruals",
	ErrCodeInvalidAccrualStatus: "invalid accrual status",

	ErrCodeSequenceAllocFailed: "failed to allocate sequence number",
	ErrCodeSequenceContention:  "sequence counter contention, retries exhausted",
	ErrCodeSequenceDuplicateID: "sequence identifier already in use",

	ErrCodeInvalidDate:       "invalid date",
	ErrCodeHolidayFeedFailed: "holiday feed unavailable",

	ErrCodeFileUploadFailed: "file upload failed",
	ErrCodeFileTooLarge:     "file too large",
	ErrCodeFileNotFound:     "file not found",

	ErrCodeSuitNotFound:     "suit not found",
	ErrCodeSuitCreateFailed: "failed to create suit",

	ErrCodeBulletinNotFound:    "bulletin record not found",
	ErrCodeBulletinUnavailable: "bulletin source unavailable",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
