package domain

import (
	"encoding/json"
	"testing"
)

func TestAnalysisResultCaptionIsNull(t *testing.T) {
	data, err := json.Marshal(AnalysisResult{Transcript: "hi", VisualNotes: VisualNotesPlaceholder})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"transcript":"hi","visualNotes":"` + VisualNotesPlaceholder + `","caption":null}`
	if string(data) != want {
		t.Errorf("got %s\nwant %s", data, want)
	}
}

func TestFailureResponseShape(t *testing.T) {
	data, err := json.Marshal(NewFailureResponse("media-analysis-failed", "failed to download media: 404 Not Found"))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"error":"media-analysis-failed","message":"failed to download media: 404 Not Found","transcript":"","visualNotes":"","caption":null}`
	if string(data) != want {
		t.Errorf("got %s\nwant %s", data, want)
	}
}
