package service

import (
	"fmt"
	"io"
	"social_events_backend/internal/model"
	"social_events_backend/internal/util"

	"github.com/xuri/excelize/v2"
)

const assistancesSheet = "Assistances"

var assistanceHeader = []interface{}{"ID", "Name", "Last name", "Email", "Punctuation", "Comment"}

// ExportService 导出活动参与者表格
type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

// WriteEventAssistancesXLSX 第一行为活动信息，第三行起为表头和参与者
func (s *ExportService) WriteEventAssistancesXLSX(w io.Writer, event *model.Event, assistants []model.Assistant) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", assistancesSheet); err != nil {
		return err
	}

	title := []interface{}{
		event.Name,
		event.Location,
		event.EventStartDate.Format(util.TimeFormat),
		event.EventEndDate.Format(util.TimeFormat),
	}
	if err := f.SetSheetRow(assistancesSheet, "A1", &title); err != nil {
		return err
	}
	if err := f.SetSheetRow(assistancesSheet, "A3", &assistanceHeader); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(assistancesSheet, 3, 3, bold); err != nil {
		return err
	}

	for i, a := range assistants {
		row := []interface{}{a.ID, a.Name, a.LastName, a.Email, "", ""}
		if a.Punctuation != nil {
			row[4] = *a.Punctuation
		}
		if a.Comment != nil {
			row[5] = *a.Comment
		}

		cell, err := excelize.CoordinatesToCellName(1, i+4)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(assistancesSheet, cell, &row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(assistancesSheet, "B", "D", 22); err != nil {
		return err
	}
	if err := f.SetColWidth(assistancesSheet, "F", "F", 48); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
