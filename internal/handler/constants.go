package handler

import "time"

const (
	// TimeFormat is the standard time format for API responses (RFC3339)
	TimeFormat = time.RFC3339

	// MonthFormat is the layout of the period query parameter.
	MonthFormat = "2006-01"

	// XLSXContentType is the media type of exported workbooks.
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)
