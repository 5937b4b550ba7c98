package money

import (
	"github.com/shopspring/decimal"

	"github.com/yoheiono2424/kouji-yosan/internal/yosan/entity"
)

// 金額はすべて円の整数で扱う。数量のみ小数（0.5人日など）を decimal で保持し、
// 金額化する時点で円未満を切り捨てる

// Mode 集計モード
type Mode string

const (
	ModePlanned Mode = "planned" // 予算
	ModeActual  Mode = "actual"  // 実績
)

// TaxRatePercent 消費税率（%）
const TaxRatePercent = 10

// LineSubtotal 明細小計（数量×単価、円未満切り捨て）。
// 実績モードで数量か単価が未記録の場合は 0 円・recorded=false を返す。
// 「未記録」と「実績ゼロ確定」は呼び出し側で区別して表示する
func LineSubtotal(item *entity.LineItem, mode Mode) (amount int64, recorded bool) {
	if mode == ModeActual {
		if !item.HasActual() {
			return 0, false
		}
		return item.ActualQuantity.Mul(decimal.NewFromInt(*item.ActualUnitPrice)).IntPart(), true
	}
	return item.Quantity.Mul(decimal.NewFromInt(item.UnitPrice)).IntPart(), true
}

// SectionTotal 費目区分ごとの合計
func SectionTotal(items []entity.LineItem, section string, mode Mode) int64 {
	var total int64
	for i := range items {
		if items[i].Section != section {
			continue
		}
		amount, _ := LineSubtotal(&items[i], mode)
		total += amount
	}
	return total
}

// DocumentSubtotal 4費目の合計（税抜）
func DocumentSubtotal(b *entity.Budget, mode Mode) int64 {
	var total int64
	for _, section := range entity.Sections {
		total += SectionTotal(b.Items, section, mode)
	}
	return total
}

// Tax 消費税額。端数は切り捨て（四捨五入しない）
func Tax(subtotal int64) int64 {
	return subtotal * TaxRatePercent / 100
}

// GrandTotal 税込合計
func GrandTotal(subtotal int64) int64 {
	return subtotal + Tax(subtotal)
}

// Profit 粗利（請負金額 − 税込合計）
func Profit(contractAmount, grandTotal int64) int64 {
	return contractAmount - grandTotal
}

// ProfitRate 粗利率（%）。請負金額が 0 のときはエラーにせず 0 を返す
func ProfitRate(contractAmount, profit int64) float64 {
	if contractAmount == 0 {
		return 0
	}
	return float64(profit) / float64(contractAmount) * 100
}

// Variance 予実差異（実績 − 予算）。正の値は予算超過
func Variance(plannedGrandTotal, actualGrandTotal int64) int64 {
	return actualGrandTotal - plannedGrandTotal
}

// VarianceRate 予実差異率（%）。予算合計が 0 のときは 0 を返す
func VarianceRate(plannedGrandTotal, variance int64) float64 {
	if plannedGrandTotal == 0 {
		return 0
	}
	return float64(variance) / float64(plannedGrandTotal) * 100
}

// Totals 片モード分の集計値
type Totals struct {
	SectionTotals map[string]int64 `json:"section_totals"`
	Subtotal      int64            `json:"subtotal"`
	Tax           int64            `json:"tax"`
	GrandTotal    int64            `json:"grand_total"`
	Profit        int64            `json:"profit"`
	ProfitRate    float64          `json:"profit_rate"`
}

// Comparison 予算・実績の対比集計
type Comparison struct {
	Planned         Totals  `json:"planned"`
	Actual          Totals  `json:"actual"`
	Variance        int64   `json:"variance"`
	VarianceRate    float64 `json:"variance_rate"`
	UnrecordedCount int     `json:"unrecorded_count"` // 実績未記録の明細数
}

// computeTotals 片モード分の集計
func computeTotals(b *entity.Budget, mode Mode) Totals {
	sections := make(map[string]int64, len(entity.Sections))
	for _, section := range entity.Sections {
		sections[section] = SectionTotal(b.Items, section, mode)
	}
	subtotal := DocumentSubtotal(b, mode)
	grand := GrandTotal(subtotal)
	profit := Profit(b.ContractAmount, grand)
	return Totals{
		SectionTotals: sections,
		Subtotal:      subtotal,
		Tax:           Tax(subtotal),
		GrandTotal:    grand,
		Profit:        profit,
		ProfitRate:    ProfitRate(b.ContractAmount, profit),
	}
}

// Compute 予算・実績の全集計値を明細から計算する。
// 集計値は保存しないため、読み出し時に必ずこの関数を通す
func Compute(b *entity.Budget) Comparison {
	planned := computeTotals(b, ModePlanned)
	actual := computeTotals(b, ModeActual)

	unrecorded := 0
	for i := range b.Items {
		if !b.Items[i].HasActual() {
			unrecorded++
		}
	}

	variance := Variance(planned.GrandTotal, actual.GrandTotal)
	return Comparison{
		Planned:         planned,
		Actual:          actual,
		Variance:        variance,
		VarianceRate:    VarianceRate(planned.GrandTotal, variance),
		UnrecordedCount: unrecorded,
	}
}
