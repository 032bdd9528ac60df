package service

import "errors"

var (
	ErrDuplicateInvocation = errors.New("campaign day already processed")
	ErrUnknownCity         = errors.New("unknown city")
	ErrScheduleUnavailable = errors.New("schedule unavailable")
	ErrUploadFailed        = errors.New("upload failed")

	ErrCaptureFailed  = errors.New("capture failed")
	ErrAnalysisFailed = errors.New("analysis failed")

	ErrProcessorRunning    = errors.New("job dispatcher is already running")
	ErrProcessorNotRunning = errors.New("job dispatcher is not running")
)
