package web

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-lessons/internal/quiz"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const quizSheet = "Quiz"

// quizWorkbook lays questions out one per row: prompt, each choice, the
// answer letter and the explanation.
func quizWorkbook(title string, questions []quiz.Question) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", quizSheet); err != nil {
		return nil, fmt.Errorf("failed to name Excel sheet: %w", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{Title: title}); err != nil {
		return nil, fmt.Errorf("failed to set workbook title: %w", err)
	}

	maxChoices := 0
	for _, q := range questions {
		maxChoices = max(maxChoices, len(q.Choices))
	}

	header := []any{"#", "Question"}
	for i := range maxChoices {
		header = append(header, "Option "+choiceLetter(i))
	}
	header = append(header, "Correct Answer", "Explanation")
	if err := f.SetSheetRow(quizSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write Excel header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel style: %w", err)
	}
	if err := f.SetRowStyle(quizSheet, 1, 1, bold); err != nil {
		return nil, fmt.Errorf("failed to style Excel header: %w", err)
	}

	for i, q := range questions {
		row := []any{i + 1, q.Prompt}
		for c := range maxChoices {
			if c < len(q.Choices) {
				row = append(row, q.Choices[c])
			} else {
				row = append(row, "")
			}
		}
		row = append(row, choiceLetter(q.CorrectChoice), q.Explanation)

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(quizSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write Excel row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func choiceLetter(i int) string {
	return string(rune('A' + i))
}
