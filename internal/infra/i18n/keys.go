package i18n

// Catalog keys shared by every component that reports user-facing text.
const (
	MsgJobPending             = "job_pending"
	MsgJobExtracting          = "job_extracting"
	MsgJobExtractionCompleted = "job_extraction_completed"
	MsgJobSummarizingPartial  = "job_summarizing_partial"
	MsgJobSummarizingFinal    = "job_summarizing_final"

	MsgErrNoSubtitles  = "error_no_subtitles"
	MsgErrTransient    = "error_transient"
	MsgErrServerBusy   = "error_server_busy"
	MsgErrSummaryEmpty = "error_summary_empty"
	MsgErrSummary      = "error_summary_failed"
	MsgErrInternal     = "error_internal"
	MsgErrInvalidURL   = "error_invalid_url"
	MsgErrJobNotFound  = "error_job_not_found"
	MsgErrRateLimited  = "error_rate_limited"
)
