package errors

// ErrorCode identifies a class of failure.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidPeriod        ErrorCode = 102
	ErrCodeInvalidTimeframe     ErrorCode = 103

	// Indicator errors (200-299)
	ErrCodeIndicatorCalculation ErrorCode = 200
	ErrCodeInsufficientData     ErrorCode = 201

	// Cache errors (300-399)
	ErrCodeSnapshotReadFailed   ErrorCode = 300
	ErrCodeSnapshotWriteFailed  ErrorCode = 301
	ErrCodeSnapshotIncompatible ErrorCode = 302

	// Trading errors (400-499)
	ErrCodeVenueCallFailed  ErrorCode = 400
	ErrCodePositionNotFound ErrorCode = 401
	ErrCodeSettleTimeout    ErrorCode = 402
	ErrCodeStepSizeNotFound ErrorCode = 403

	// Market data errors (500-599)
	ErrCodeMarketDataFetchFailed ErrorCode = 500
	ErrCodeMarketDataParseFailed ErrorCode = 501
	ErrCodeInvalidProvider       ErrorCode = 502

	// Backtest errors (600-699)
	ErrCodeJournalFailed ErrorCode = 600
	ErrCodeReportFailed  ErrorCode = 601
)
