package logging

// Standardized field names for structured logging.
const (
	FieldFile          = "file_path"
	FieldGUID          = "guid"
	FieldPendingID     = "pending_id"
	FieldTransactionID = "transaction_id"
	FieldAccountID     = "account_id"
	FieldCategory      = "category"
	FieldSource        = "source"
	FieldReason        = "reason"
	FieldOperation     = "operation"
	FieldStep          = "step"
	FieldStatus        = "status"
	FieldError         = "error"
	FieldDuration      = "duration_ms"
	FieldCount         = "count"
	FieldSucceeded     = "succeeded"
	FieldFailed        = "failed"
	FieldLine          = "line"
	FieldModel         = "model"
	FieldDatabase      = "database"
	FieldOutputFile    = "output_file"
)
