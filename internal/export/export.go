package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/livepoll/livepoll/internal/store"
)

const (
	SummarySheet = "Summary"
	VotesSheet   = "Votes"

	// ContentType is the MIME type of an xlsx workbook.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	timestampLayout = "2006-01-02 15:04:05"
)

// FileName names an export taken at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("poll_results_%s.xlsx", t.Format("20060102_150405"))
}

// Workbook renders the results table and the vote log into a new workbook.
// The caller must Close the returned file.
func Workbook(results []store.Result, votes []store.VoteDetail) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}
	if err := writeRow(f, SummarySheet, 1, "Candidate", "Description", "Votes"); err != nil {
		f.Close()
		return nil, err
	}
	for i, r := range results {
		if err := writeRow(f, SummarySheet, i+2, r.CandidateName, r.Description, r.VoteCount); err != nil {
			f.Close()
			return nil, err
		}
	}

	if _, err := f.NewSheet(VotesSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("create votes sheet: %w", err)
	}
	if err := writeRow(f, VotesSheet, 1, "Vote ID", "Candidate", "Client ID", "Timestamp"); err != nil {
		f.Close()
		return nil, err
	}
	for i, v := range votes {
		ts := v.Timestamp.Format(timestampLayout)
		if err := writeRow(f, VotesSheet, i+2, v.VoteID, v.CandidateName, v.ClientID, ts); err != nil {
			f.Close()
			return nil, err
		}
	}

	f.SetColWidth(SummarySheet, "A", "B", 30)
	f.SetColWidth(VotesSheet, "B", "D", 24)
	return f, nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
