// Package reporting renders office documents from docket records.
package reporting

import (
	"context"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/turtacn/KeyIP-Docket/internal/domain/accrual"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

// AccrualSheet is the worksheet name of the export.
const AccrualSheet = "Accruals"

// XLSXContentType is the media type of the generated workbook.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var accrualColumns = []string{
	"Accrual ID",
	"Task ID",
	"Task Title",
	"Status",
	"Official Fee",
	"Service Fee",
	"VAT Rate",
	"VAT On Official",
	"Total",
	"Remaining",
	"Created At",
}

// AccrualLister is the read side of the billing store used by the export.
type AccrualLister interface {
	List(ctx context.Context, filter accrual.Filter) ([]*accrual.Accrual, error)
}

// AccrualExporter writes billing records to a workbook.
type AccrualExporter interface {
	ExportAccruals(ctx context.Context, filter accrual.Filter) ([]byte, error)
}

type accrualExporterImpl struct {
	accruals AccrualLister
	logger   logging.Logger
	loc      *time.Location
}

// NewAccrualExporter constructs an AccrualExporter. Dates are rendered in
// loc, or UTC when loc is nil.
func NewAccrualExporter(accruals AccrualLister, loc *time.Location, logger logging.Logger) AccrualExporter {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &accrualExporterImpl{accruals: accruals, logger: logger.Named("accrual_export"), loc: loc}
}

func (e *accrualExporterImpl) ExportAccruals(ctx context.Context, filter accrual.Filter) ([]byte, error) {
	records, err := e.accruals.List(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list accruals")
	}

	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil {
			e.logger.Warn("failed to close workbook", logging.Err(cerr))
		}
	}()

	if err := f.SetSheetName("Sheet1", AccrualSheet); err != nil {
		return nil, exportErr(err)
	}
	header := make([]interface{}, len(accrualColumns))
	for i, c := range accrualColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(AccrualSheet, "A1", &header); err != nil {
		return nil, exportErr(err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, exportErr(err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(accrualColumns))
	if err := f.SetCellStyle(AccrualSheet, "A1", lastCol+"1", bold); err != nil {
		return nil, exportErr(err)
	}
	if err := f.SetColWidth(AccrualSheet, "A", lastCol, 20); err != nil {
		return nil, exportErr(err)
	}
	if err := f.SetPanes(AccrualSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, exportErr(err)
	}

	for i, a := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, exportErr(err)
		}
		row := e.row(a)
		if err := f.SetSheetRow(AccrualSheet, cell, &row); err != nil {
			return nil, exportErr(err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, exportErr(err)
	}
	e.logger.Info("accruals exported", logging.Int("rows", len(records)))
	return buf.Bytes(), nil
}

func (e *accrualExporterImpl) row(a *accrual.Accrual) []interface{} {
	return []interface{}{
		a.ID,
		a.TaskID,
		a.TaskTitle,
		string(a.Status),
		moneyCell(a.OfficialFee),
		moneyCell(a.ServiceFee),
		strconv.FormatFloat(a.VATRate, 'f', -1, 64),
		strconv.FormatBool(a.ApplyVATToOfficial),
		accrual.FormatList(a.TotalAmount),
		accrual.FormatList(a.RemainingAmount),
		a.CreatedAt.In(e.loc).Format("2006-01-02 15:04"),
	}
}

func moneyCell(m accrual.Money) string {
	if !m.IsPositive() {
		return ""
	}
	return m.String()
}

func exportErr(err error) error {
	return errors.Wrap(err, errors.ErrCodeAccrualExportFailed, "failed to build accrual workbook")
}

//Personal.AI order the ending
