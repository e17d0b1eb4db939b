package telemetry

import "github.com/h3platform/pciemon/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrorCode("telemetry_invalid_config")
	ErrInvalidDBPath = errors.ErrorCode("telemetry_invalid_db_path")

	// Registration Errors
	ErrUnknownDomain  = errors.ErrorCode("telemetry_unknown_domain")
	ErrUnknownSchema  = errors.ErrorCode("telemetry_unknown_schema")
	ErrInvalidSample  = errors.ErrorCode("telemetry_invalid_sample")
	ErrRegisterFailed = errors.ErrorCode("telemetry_register_failed")

	// Storage Errors
	ErrStorageInit       = errors.ErrorCode("telemetry_storage_init_failed")
	ErrStorageAccess     = errors.ErrorCode("telemetry_storage_access_failed")
	ErrStorageClose      = errors.ErrorCode("telemetry_storage_close_failed")
	ErrSchemaInitFailed  = errors.ErrorCode("telemetry_schema_init_failed")
	ErrTransactionFailed = errors.ErrorCode("telemetry_transaction_failed")
)
