package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"
)

// HTMLTableSource reads <table> elements. Every table counts as page 1.
type HTMLTableSource struct{}

func (HTMLTableSource) Name() string            { return "html_tables" }
func (HTMLTableSource) Supports(kind Kind) bool { return kind == KindHTML }
func (HTMLTableSource) Available() error        { return nil }

func (HTMLTableSource) Tables(ctx context.Context, doc Document) ([]Table, error) {
	f, err := os.Open(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open html: %w", err)
	}
	defer f.Close()

	dom, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	var tables []Table
	dom.Find("table").Each(func(_ int, tbl *goquery.Selection) {
		t := Table{Page: 1}
		tbl.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			var cells []string
			tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, strings.Join(strings.Fields(cell.Text()), " "))
			})
			if len(cells) > 0 {
				t.Rows = append(t.Rows, cells)
			}
		})
		if len(t.Rows) > 0 {
			tables = append(tables, t)
		}
	})
	return tables, nil
}

// XLSXSource reads every sheet of a workbook as one table; the sheet's
// 1-based position is used as the page number.
type XLSXSource struct{}

func (XLSXSource) Name() string            { return "xlsx_sheets" }
func (XLSXSource) Supports(kind Kind) bool { return kind == KindXLSX }
func (XLSXSource) Available() error        { return nil }

func (XLSXSource) Tables(ctx context.Context, doc Document) ([]Table, error) {
	wb, err := excelize.OpenFile(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer wb.Close()

	var tables []Table
	for i, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return tables, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		if len(rows) > 0 {
			tables = append(tables, Table{Page: i + 1, Rows: rows})
		}
	}
	return tables, nil
}
