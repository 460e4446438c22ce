package export

import (
	"testing"
	"time"

	"github.com/livepoll/livepoll/internal/store"
)

func TestWorkbook(t *testing.T) {
	results := []store.Result{
		{CandidateID: 2, CandidateName: "Beta", Description: "second", VoteCount: 3},
		{CandidateID: 1, CandidateName: "Alpha", VoteCount: 0},
	}
	ts := time.Date(2025, 3, 1, 14, 30, 0, 0, time.UTC)
	votes := []store.VoteDetail{
		{VoteID: 7, CandidateName: "Beta", ClientID: "10.0.0.1", Timestamp: ts},
	}

	f, err := Workbook(results, votes)
	if err != nil {
		t.Fatalf("Workbook failed: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != SummarySheet || sheets[1] != VotesSheet {
		t.Fatalf("Expected [%s %s], got %v", SummarySheet, VotesSheet, sheets)
	}

	summary, err := f.GetRows(SummarySheet)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(summary) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d", len(summary))
	}
	if summary[1][0] != "Beta" || summary[1][2] != "3" {
		t.Errorf("Unexpected summary row %v", summary[1])
	}

	log, err := f.GetRows(VotesSheet)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(log) != 2 {
		t.Fatalf("Expected header plus 1 row, got %d", len(log))
	}
	want := []string{"7", "Beta", "10.0.0.1", "2025-03-01 14:30:00"}
	for i, w := range want {
		if log[1][i] != w {
			t.Errorf("Column %d: expected %q, got %q", i, w, log[1][i])
		}
	}
}

func TestFileName(t *testing.T) {
	got := FileName(time.Date(2025, 3, 1, 14, 30, 5, 0, time.UTC))
	if got != "poll_results_20250301_143005.xlsx" {
		t.Errorf("Unexpected file name %s", got)
	}
}
