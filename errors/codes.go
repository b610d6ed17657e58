package errors

// ErrorCode identifies a class of application error for clients and logs.
type ErrorCode int32

const (
	ErrorCode_HTTP_OK ErrorCode = 0

	// General
	ErrorCode_INTERNAL          ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT  ErrorCode = 1001
	ErrorCode_NOT_FOUND         ErrorCode = 1002
	ErrorCode_ALREADY_EXISTS    ErrorCode = 1003
	ErrorCode_PERMISSION_DENIED ErrorCode = 1004
	ErrorCode_UNAUTHENTICATED   ErrorCode = 1005
	ErrorCode_FORBIDDEN         ErrorCode = 1006
	ErrorCode_INVALID_PAYLOAD   ErrorCode = 1007

	// Auth
	ErrorCode_AUTH_INVALID_TOKEN ErrorCode = 1100
	ErrorCode_AUTH_TOKEN_EXPIRED ErrorCode = 1101

	// Meeting lifecycle
	ErrorCode_MEETING_NOT_FOUND     ErrorCode = 1200
	ErrorCode_MEETING_INVALID_STATE ErrorCode = 1201
	ErrorCode_MEETING_FAILED        ErrorCode = 1202

	// Extraction pipeline
	ErrorCode_PROVIDER_FAILED    ErrorCode = 1300
	ErrorCode_SCHEMA_VIOLATION   ErrorCode = 1301
	ErrorCode_REPAIR_FAILED      ErrorCode = 1302
	ErrorCode_EMBEDDING_FAILED   ErrorCode = 1303
	ErrorCode_PROCESSING_FAILED  ErrorCode = 1304
	ErrorCode_TRANSCRIPT_MISSING ErrorCode = 1305

	// Review & publish
	ErrorCode_CHANGESET_NOT_FOUND ErrorCode = 1400
	ErrorCode_LOCK_HELD           ErrorCode = 1401
	ErrorCode_LOCK_VERSION_STALE  ErrorCode = 1402
	ErrorCode_LOCK_NOT_HELD       ErrorCode = 1403
	ErrorCode_PUBLISH_BLOCKED     ErrorCode = 1404

	// Infrastructure
	ErrorCode_DB_QUERY_FAILED              ErrorCode = 1500
	ErrorCode_DB_TRANSACTION_FAILED        ErrorCode = 1501
	ErrorCode_INTEGRATION_STORAGE_FAILED   ErrorCode = 1502
	ErrorCode_INTEGRATION_CACHE_FAILED     ErrorCode = 1503
	ErrorCode_INTEGRATION_EXTERNAL_FAILED  ErrorCode = 1504
	ErrorCode_DB_CONNECTION_FAILED         ErrorCode = 1505
	ErrorCode_INTEGRATION_SIMILARITY_QUERY ErrorCode = 1506
)

var codeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                      "OK",
	ErrorCode_INTERNAL:                     "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:             "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                    "NOT_FOUND",
	ErrorCode_ALREADY_EXISTS:               "ALREADY_EXISTS",
	ErrorCode_PERMISSION_DENIED:            "PERMISSION_DENIED",
	ErrorCode_UNAUTHENTICATED:              "UNAUTHENTICATED",
	ErrorCode_FORBIDDEN:                    "FORBIDDEN",
	ErrorCode_INVALID_PAYLOAD:              "INVALID_PAYLOAD",
	ErrorCode_AUTH_INVALID_TOKEN:           "AUTH_INVALID_TOKEN",
	ErrorCode_AUTH_TOKEN_EXPIRED:           "AUTH_TOKEN_EXPIRED",
	ErrorCode_MEETING_NOT_FOUND:            "MEETING_NOT_FOUND",
	ErrorCode_MEETING_INVALID_STATE:        "MEETING_INVALID_STATE",
	ErrorCode_MEETING_FAILED:               "MEETING_FAILED",
	ErrorCode_PROVIDER_FAILED:              "PROVIDER_FAILED",
	ErrorCode_SCHEMA_VIOLATION:             "SCHEMA_VIOLATION",
	ErrorCode_REPAIR_FAILED:                "REPAIR_FAILED",
	ErrorCode_EMBEDDING_FAILED:             "EMBEDDING_FAILED",
	ErrorCode_PROCESSING_FAILED:            "PROCESSING_FAILED",
	ErrorCode_TRANSCRIPT_MISSING:           "TRANSCRIPT_MISSING",
	ErrorCode_CHANGESET_NOT_FOUND:          "CHANGESET_NOT_FOUND",
	ErrorCode_LOCK_HELD:                    "LOCK_HELD",
	ErrorCode_LOCK_VERSION_STALE:           "LOCK_VERSION_STALE",
	ErrorCode_LOCK_NOT_HELD:                "LOCK_NOT_HELD",
	ErrorCode_PUBLISH_BLOCKED:              "PUBLISH_BLOCKED",
	ErrorCode_DB_QUERY_FAILED:              "DB_QUERY_FAILED",
	ErrorCode_DB_TRANSACTION_FAILED:        "DB_TRANSACTION_FAILED",
	ErrorCode_INTEGRATION_STORAGE_FAILED:   "INTEGRATION_STORAGE_FAILED",
	ErrorCode_INTEGRATION_CACHE_FAILED:     "INTEGRATION_CACHE_FAILED",
	ErrorCode_INTEGRATION_EXTERNAL_FAILED:  "INTEGRATION_EXTERNAL_FAILED",
	ErrorCode_DB_CONNECTION_FAILED:         "DB_CONNECTION_FAILED",
	ErrorCode_INTEGRATION_SIMILARITY_QUERY: "INTEGRATION_SIMILARITY_QUERY",
}

// String returns the symbolic name of the code.
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
