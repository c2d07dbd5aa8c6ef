package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/creditosbo/creditos-api/internal/models"
	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

// ExportService renders a loan's amortization schedule as CSV, XLSX or PDF.
// It only formats data already computed by the schedule generator.
type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

func scheduleHeader() []string {
	return []string{"N° Cuota", "Fecha Venc.", "Cuota", "Capital", "Interés", "Saldo", "Estado", "Fecha Pago"}
}

func scheduleRow(inst *models.Installment) []string {
	paidDate := ""
	if inst.PaidDate != nil {
		paidDate = inst.PaidDate.Format("2006-01-02")
	}
	return []string{
		fmt.Sprintf("%d", inst.Number),
		inst.DueDate.Format("2006-01-02"),
		inst.Amount.StringFixed(2),
		inst.Capital.StringFixed(2),
		inst.Interest.StringFixed(2),
		inst.Balance.StringFixed(2),
		inst.Status(),
		paidDate,
	}
}

func (s *ExportService) ScheduleCSV(ctx context.Context, loan *models.Loan, installments []models.Installment) ([]byte, string, error) {
	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	_ = writer.Write([]string{"Tabla de Amortización", time.Now().Format("2006-01-02 15:04")})
	_ = writer.Write([]string{"Cliente", loan.FullName})
	_ = writer.Write([]string{"CI", loan.Identity})
	_ = writer.Write([]string{"Monto", loan.Amount.StringFixed(2)})
	_ = writer.Write([]string{"Tasa Anual", loan.AnnualInterestRate.StringFixed(2) + "%"})
	_ = writer.Write([]string{"Cuota Mensual", loan.MonthlyPayment().StringFixed(2)})
	_ = writer.Write([]string{""})

	_ = writer.Write(scheduleHeader())
	for i := range installments {
		_ = writer.Write(scheduleRow(&installments[i]))
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("amortizacion_%s_%s.csv", loan.Identity, time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

func (s *ExportService) ScheduleXLSX(ctx context.Context, loan *models.Loan, installments []models.Installment) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Amortización"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	_ = f.SetCellValue(sheet, "A1", "Tabla de Amortización")
	_ = f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	_ = f.SetCellValue(sheet, "A3", "Cliente")
	_ = f.SetCellValue(sheet, "B3", loan.FullName)
	_ = f.SetCellValue(sheet, "A4", "CI")
	_ = f.SetCellValue(sheet, "B4", loan.Identity)
	_ = f.SetCellValue(sheet, "A5", "Monto")
	_ = f.SetCellValue(sheet, "B5", loan.Amount.StringFixed(2))
	_ = f.SetCellValue(sheet, "A6", "Tasa Anual (%)")
	_ = f.SetCellValue(sheet, "B6", loan.AnnualInterestRate.StringFixed(2))
	_ = f.SetCellValue(sheet, "A7", "Cuota Mensual")
	_ = f.SetCellValue(sheet, "B7", loan.MonthlyPayment().StringFixed(2))

	for col, title := range scheduleHeader() {
		cell, _ := excelize.CoordinatesToCellName(col+1, 9)
		_ = f.SetCellValue(sheet, cell, title)
	}

	for i := range installments {
		for col, value := range scheduleRow(&installments[i]) {
			cell, _ := excelize.CoordinatesToCellName(col+1, 10+i)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("amortizacion_%s_%s.xlsx", loan.Identity, time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

func (s *ExportService) SchedulePDF(ctx context.Context, loan *models.Loan, installments []models.Installment) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, tr("Tabla de Amortización"))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(40, 6, "Cliente:")
	pdf.Cell(100, 6, tr(loan.FullName))
	pdf.Ln(6)
	pdf.Cell(40, 6, "CI:")
	pdf.Cell(100, 6, tr(loan.Identity))
	pdf.Ln(6)
	pdf.Cell(40, 6, "Monto:")
	pdf.Cell(100, 6, fmt.Sprintf("Bs. %s", loan.Amount.StringFixed(2)))
	pdf.Ln(6)
	pdf.Cell(40, 6, "Son:")
	pdf.Cell(150, 6, tr(NumberToWords(loan.Amount)))
	pdf.Ln(6)
	pdf.Cell(40, 6, "Tasa Anual:")
	pdf.Cell(100, 6, loan.AnnualInterestRate.StringFixed(2)+"%")
	pdf.Ln(6)
	pdf.Cell(40, 6, "Cuota Mensual:")
	pdf.Cell(100, 6, fmt.Sprintf("Bs. %s", loan.MonthlyPayment().StringFixed(2)))
	pdf.Ln(10)

	widths := []float64{15, 25, 25, 25, 25, 28, 25, 25}

	pdf.SetFont("Arial", "B", 9)
	for col, title := range scheduleHeader() {
		pdf.CellFormat(widths[col], 7, tr(title), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for i := range installments {
		for col, value := range scheduleRow(&installments[i]) {
			align := "R"
			if col == 0 || col == 1 || col == 6 || col == 7 {
				align = "C"
			}
			pdf.CellFormat(widths[col], 6, tr(value), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("amortizacion_%s_%s.pdf", loan.Identity, time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}
