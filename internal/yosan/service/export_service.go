package service

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/yoheiono2424/kouji-yosan/internal/yosan/entity"
	"github.com/yoheiono2424/kouji-yosan/internal/yosan/money"
)

// ExportService 予実対比表のExcel出力
type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

const exportSheet = "予実対比"

// BuildWorkbook 予算と実績の対比表をワークブックとして組み立てる
func (s *ExportService) BuildWorkbook(detail *BudgetDetail) (*excelize.File, error) {
	b := detail.Budget
	cmp := detail.Totals

	f := excelize.NewFile()
	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("シートの作成に失敗しました: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	set := func(cell string, value interface{}) {
		f.SetCellValue(exportSheet, cell, value)
	}

	set("A1", "実行予算 予実対比表")
	set("A2", "予算番号")
	set("B2", b.Code)
	set("D2", "工事名")
	set("E2", b.ProjectName)
	set("A3", "ステータス")
	set("B3", entity.StatusLabel(b.Status))
	set("D3", "請負金額")
	set("E3", b.ContractAmount)

	headers := []string{"費目", "品名", "規格", "単位", "予算数量", "予算単価", "予算金額", "実績数量", "実績単価", "実績金額", "業者"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 5)
		set(cell, h)
	}

	row := 6
	for _, section := range entity.Sections {
		items := b.ItemsBySection(section)
		for i := range items {
			item := &items[i]
			planned, _ := money.LineSubtotal(item, money.ModePlanned)

			set(fmt.Sprintf("A%d", row), entity.SectionLabel(section))
			set(fmt.Sprintf("B%d", row), item.Name)
			set(fmt.Sprintf("C%d", row), item.Specification)
			set(fmt.Sprintf("D%d", row), item.Unit)
			set(fmt.Sprintf("E%d", row), item.Quantity.String())
			set(fmt.Sprintf("F%d", row), item.UnitPrice)
			set(fmt.Sprintf("G%d", row), planned)

			if actual, recorded := money.LineSubtotal(item, money.ModeActual); recorded {
				set(fmt.Sprintf("H%d", row), item.ActualQuantity.String())
				set(fmt.Sprintf("I%d", row), *item.ActualUnitPrice)
				set(fmt.Sprintf("J%d", row), actual)
			} else {
				set(fmt.Sprintf("H%d", row), "未記録")
			}

			supplier := item.Supplier
			if item.ActualSupplier != "" {
				supplier = item.ActualSupplier
			}
			set(fmt.Sprintf("K%d", row), supplier)
			row++
		}

		set(fmt.Sprintf("A%d", row), entity.SectionLabel(section)+" 計")
		set(fmt.Sprintf("G%d", row), cmp.Planned.SectionTotals[section])
		set(fmt.Sprintf("J%d", row), cmp.Actual.SectionTotals[section])
		row++
	}

	row++
	totals := []struct {
		label   string
		planned interface{}
		actual  interface{}
	}{
		{"小計", cmp.Planned.Subtotal, cmp.Actual.Subtotal},
		{"消費税", cmp.Planned.Tax, cmp.Actual.Tax},
		{"合計", cmp.Planned.GrandTotal, cmp.Actual.GrandTotal},
		{"粗利", cmp.Planned.Profit, cmp.Actual.Profit},
		{"粗利率(%)", cmp.Planned.ProfitRate, cmp.Actual.ProfitRate},
	}
	for _, t := range totals {
		set(fmt.Sprintf("A%d", row), t.label)
		set(fmt.Sprintf("G%d", row), t.planned)
		set(fmt.Sprintf("J%d", row), t.actual)
		row++
	}
	set(fmt.Sprintf("A%d", row), "予実差異")
	set(fmt.Sprintf("J%d", row), cmp.Variance)
	row++
	set(fmt.Sprintf("A%d", row), "差異率(%)")
	set(fmt.Sprintf("J%d", row), cmp.VarianceRate)

	return f, nil
}
