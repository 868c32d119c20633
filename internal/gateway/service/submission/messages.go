package submission

const (
	msgMissingDescription   = "Report description is missing. Please edit your report before submitting."
	msgRejected             = "Your report could not be verified as a legitimate scam or appears to be a false report. Submission has been cancelled."
	msgVerified             = "Report verified. Now processing your report..."
	msgUploading            = "Uploading photo evidence..."
	msgUploaded             = "Photo evidence uploaded successfully."
	msgUploadFailed         = "Could not upload photo evidence: %s. Proceeding without it."
	msgNoEmbedding          = "Could not generate a signature for the report. Proceeding without similarity check."
	msgSearchFailed         = "Could not check for similar reports due to an unexpected error. Will proceed to save as a new report."
	msgNoSimilar            = "No similar reports found. This will be saved as a new entry."
	msgSimilarFound         = "Similar report found (ID: %s...). Merging information."
	msgMergeSummaryFallback = "Could not re-summarize with AI for merging. Using existing/combined data for title, summary, type."
	msgMerged               = "Report successfully merged and updated."
	msgMergeFailed          = "Failed to update existing report. The system will attempt to save this as a new report."
	msgSummaryUnparseable   = "Could not parse AI summary for new report. Using defaults."
	msgSummaryUnavailable   = "Could not generate AI summary for new report. Using defaults."
	msgInserted             = "New report submitted successfully!"
	msgInsertFailed         = "Failed to save new report. Please try again later."
)
