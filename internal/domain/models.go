package domain

// VisualNotesPlaceholder is returned until visual analysis exists.
const VisualNotesPlaceholder = "Visual analysis is not implemented yet. This text is a placeholder. " +
	"Real visual product detection will be added with GPT-4o vision later."

type AnalysisRequest struct {
	VideoURL string `json:"videoUrl"`
}

// AnalysisResult is the body of every /media-analysis response, including
// failures, so callers always see the same shape.
type AnalysisResult struct {
	Transcript  string  `json:"transcript"`
	VisualNotes string  `json:"visualNotes"`
	Caption     *string `json:"caption"`
}

type FailureResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	AnalysisResult
}

// NewFailureResponse carries an empty result alongside the error.
func NewFailureResponse(code, message string) FailureResponse {
	return FailureResponse{
		Error:   code,
		Message: message,
	}
}
