package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"vendapos/internal/config"
	"vendapos/internal/dto"
	"vendapos/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ReportService renders spreadsheet exports for back-office accounting.
// Files land under the configured storage path; handlers stream them back.
type ReportService interface {
	ExportDailySales(ctx context.Context, date string) (string, error)
	ExportExpenses(ctx context.Context, from, to string) (string, error)
	ExportClosures(ctx context.Context, limit int) (string, error)
}

type reportService struct {
	sales    repository.SaleRepository
	expenses repository.ExpenseRepository
	closures repository.ClosureRepository
	cfg      *config.Config
}

func NewReportService(
	sales repository.SaleRepository,
	expenses repository.ExpenseRepository,
	closures repository.ClosureRepository,
	cfg *config.Config,
) ReportService {
	return &reportService{sales: sales, expenses: expenses, closures: closures, cfg: cfg}
}

func (s *reportService) ExportDailySales(ctx context.Context, date string) (string, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return "", err
	}
	sales, _, err := s.sales.List(ctx, dto.SaleFilter{Date: date, Status: "all", Page: 1, Limit: 10000})
	if err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Sales"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Ticket", "Time", "Operator", "Method", "Subtotal", "Discount", "Total", "Status"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	total := decimal.Zero
	for row, sale := range sales {
		operator := ""
		if sale.User != nil {
			operator = sale.User.Name
		}
		values := []interface{}{
			sale.TicketNumber,
			sale.CreatedAt.Format("15:04:05"),
			operator,
			sale.PaymentMethod,
			sale.Subtotal.InexactFloat64(),
			sale.DiscountTotal.InexactFloat64(),
			sale.Total.InexactFloat64(),
			sale.Status,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
		if sale.Status != "cancelled" {
			total = total.Add(sale.Total)
		}
	}
	sumCell, _ := excelize.CoordinatesToCellName(7, len(sales)+3)
	f.SetCellValue(sheet, sumCell, total.InexactFloat64())

	return s.save(f, fmt.Sprintf("sales_%s.xlsx", date))
}

func (s *reportService) ExportExpenses(ctx context.Context, from, to string) (string, error) {
	fromT, err := time.Parse("2006-01-02", from)
	if err != nil {
		return "", err
	}
	toT, err := time.Parse("2006-01-02", to)
	if err != nil {
		return "", err
	}
	expenses, err := s.expenses.ListByDateRange(ctx, fromT, toT.Add(24*time.Hour-time.Second))
	if err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Expenses"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Date", "Category", "Description", "Amount"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for row, e := range expenses {
		values := []interface{}{
			e.Date.Format("2006-01-02"),
			e.Category,
			e.Description,
			e.Amount.InexactFloat64(),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	return s.save(f, fmt.Sprintf("expenses_%s_%s.xlsx", from, to))
}

func (s *reportService) ExportClosures(ctx context.Context, limit int) (string, error) {
	if limit < 1 || limit > 1000 {
		limit = 100
	}
	closures, _, err := s.closures.List(ctx, 1, limit)
	if err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Closures"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Day", "Opening", "Sales", "Costs", "Discounts", "Expenses", "Gross Profit", "Net Profit", "Final Cash"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for row, c := range closures {
		values := []interface{}{
			c.Day.Format("2006-01-02"),
			c.OpeningAmount.InexactFloat64(),
			c.TotalSales.InexactFloat64(),
			c.TotalCosts.InexactFloat64(),
			c.TotalDiscounts.InexactFloat64(),
			c.TotalExpenses.InexactFloat64(),
			c.GrossProfit.InexactFloat64(),
			c.NetProfit.InexactFloat64(),
			c.FinalCashAmount.InexactFloat64(),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	return s.save(f, fmt.Sprintf("closures_%s.xlsx", time.Now().Format("20060102_150405")))
}

func (s *reportService) save(f *excelize.File, name string) (string, error) {
	if err := os.MkdirAll(s.cfg.PDFStoragePath, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(s.cfg.PDFStoragePath, name)
	if err := f.SaveAs(path); err != nil {
		return "", err
	}
	return path, nil
}
