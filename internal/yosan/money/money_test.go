package money

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/yoheiono2424/kouji-yosan/internal/yosan/entity"
)

func item(section, name string, qty string, unitPrice int64) entity.LineItem {
	q, _ := decimal.NewFromString(qty)
	return entity.LineItem{
		Section:   section,
		Name:      name,
		Quantity:  q,
		UnitPrice: unitPrice,
	}
}

func withActual(it entity.LineItem, qty string, unitPrice int64) entity.LineItem {
	q, _ := decimal.NewFromString(qty)
	it.ActualQuantity = &q
	it.ActualUnitPrice = &unitPrice
	return it
}

func TestComputePlannedTotals(t *testing.T) {
	// 材料費 100×15,000 + 労務費 50×25,000
	b := &entity.Budget{
		ContractAmount: 3_500_000,
		Items: []entity.LineItem{
			item(entity.SectionMaterials, "コンクリート", "100", 15000),
			item(entity.SectionLabor, "鳶工", "50", 25000),
		},
	}

	cmp := Compute(b)
	p := cmp.Planned

	if p.SectionTotals[entity.SectionMaterials] != 1_500_000 {
		t.Fatalf("materials: expected 1500000, got %d", p.SectionTotals[entity.SectionMaterials])
	}
	if p.SectionTotals[entity.SectionLabor] != 1_250_000 {
		t.Fatalf("labor: expected 1250000, got %d", p.SectionTotals[entity.SectionLabor])
	}
	if p.SectionTotals[entity.SectionOutsourcing] != 0 || p.SectionTotals[entity.SectionExpenses] != 0 {
		t.Fatal("empty sections should total zero")
	}
	if p.Subtotal != 2_750_000 {
		t.Fatalf("subtotal: expected 2750000, got %d", p.Subtotal)
	}
	if p.Tax != 275_000 {
		t.Fatalf("tax: expected 275000, got %d", p.Tax)
	}
	if p.GrandTotal != 3_025_000 {
		t.Fatalf("grand total: expected 3025000, got %d", p.GrandTotal)
	}
	if p.Profit != 475_000 {
		t.Fatalf("profit: expected 475000, got %d", p.Profit)
	}
}

func TestTaxTruncation(t *testing.T) {
	// 端数は常に切り捨て。四捨五入や銀行丸めはしない
	cases := []struct {
		subtotal int64
		want     int64
	}{
		{0, 0},
		{1, 0},
		{9, 0},
		{10, 1},
		{15, 1},
		{99, 9},
		{101, 10},
		{12345, 1234},
		{2_750_000, 275_000},
	}
	for _, c := range cases {
		if got := Tax(c.subtotal); got != c.want {
			t.Fatalf("Tax(%d): expected %d, got %d", c.subtotal, c.want, got)
		}
	}
}

func TestLineSubtotalFractionalQuantity(t *testing.T) {
	// 0.5人日×25,000円 = 12,500円
	it := item(entity.SectionLabor, "半日作業", "0.5", 25000)
	got, recorded := LineSubtotal(&it, ModePlanned)
	if !recorded || got != 12500 {
		t.Fatalf("expected 12500 recorded, got %d %v", got, recorded)
	}

	// 金額化時点で円未満切り捨て
	it = item(entity.SectionMaterials, "端数", "0.333", 1000)
	got, _ = LineSubtotal(&it, ModePlanned)
	if got != 333 {
		t.Fatalf("expected 333, got %d", got)
	}
}

func TestLineSubtotalUnrecordedActual(t *testing.T) {
	it := item(entity.SectionMaterials, "未記録", "10", 1000)
	got, recorded := LineSubtotal(&it, ModeActual)
	if recorded {
		t.Fatal("actual should be unrecorded")
	}
	if got != 0 {
		t.Fatalf("unrecorded actual should be 0, got %d", got)
	}

	// 数量だけ入っていても未記録扱い
	q := decimal.NewFromInt(5)
	it.ActualQuantity = &q
	if _, recorded := LineSubtotal(&it, ModeActual); recorded {
		t.Fatal("partial actual should be unrecorded")
	}
}

func TestComputeActualAndVariance(t *testing.T) {
	b := &entity.Budget{
		ContractAmount: 3_500_000,
		Items: []entity.LineItem{
			withActual(item(entity.SectionMaterials, "コンクリート", "100", 15000), "110", 15000),
			item(entity.SectionLabor, "鳶工", "50", 25000),
		},
	}

	cmp := Compute(b)

	// 実績: 110×15,000 = 1,650,000。労務費は未記録で 0
	if cmp.Actual.Subtotal != 1_650_000 {
		t.Fatalf("actual subtotal: expected 1650000, got %d", cmp.Actual.Subtotal)
	}
	if cmp.UnrecordedCount != 1 {
		t.Fatalf("expected 1 unrecorded item, got %d", cmp.UnrecordedCount)
	}

	// 差異 = 実績税込 − 予算税込
	plannedGrand := int64(3_025_000)
	actualGrand := int64(1_650_000 + 165_000)
	if cmp.Variance != actualGrand-plannedGrand {
		t.Fatalf("variance: expected %d, got %d", actualGrand-plannedGrand, cmp.Variance)
	}
	wantRate := float64(cmp.Variance) / float64(plannedGrand) * 100
	if cmp.VarianceRate != wantRate {
		t.Fatalf("variance rate: expected %f, got %f", wantRate, cmp.VarianceRate)
	}
}

func TestZeroDenominators(t *testing.T) {
	// 請負金額 0 の粗利率、予算 0 の差異率はエラーにせず 0
	if got := ProfitRate(0, 12345); got != 0 {
		t.Fatalf("ProfitRate with zero contract: expected 0, got %f", got)
	}
	if got := VarianceRate(0, 9999); got != 0 {
		t.Fatalf("VarianceRate with zero planned: expected 0, got %f", got)
	}

	b := &entity.Budget{ContractAmount: 0}
	cmp := Compute(b)
	if cmp.Planned.ProfitRate != 0 || cmp.VarianceRate != 0 {
		t.Fatal("empty budget rates should be 0")
	}
}

func TestRecomputeReflectsItemChange(t *testing.T) {
	// 集計値は保存しないため、明細を変えれば次の計算に必ず反映される
	b := &entity.Budget{
		ContractAmount: 1_000_000,
		Items: []entity.LineItem{
			item(entity.SectionMaterials, "資材", "10", 10000),
		},
	}
	before := Compute(b)
	if before.Planned.Subtotal != 100_000 {
		t.Fatalf("expected 100000, got %d", before.Planned.Subtotal)
	}

	b.Items[0].UnitPrice = 20000
	after := Compute(b)
	if after.Planned.Subtotal != 200_000 {
		t.Fatalf("expected 200000 after change, got %d", after.Planned.Subtotal)
	}
}

func TestNegativeProfit(t *testing.T) {
	b := &entity.Budget{
		ContractAmount: 1_000_000,
		Items: []entity.LineItem{
			item(entity.SectionOutsourcing, "外注", "1", 2_000_000),
		},
	}
	cmp := Compute(b)
	if cmp.Planned.Profit >= 0 {
		t.Fatalf("expected negative profit, got %d", cmp.Planned.Profit)
	}
	if cmp.Planned.ProfitRate >= 0 {
		t.Fatalf("expected negative profit rate, got %f", cmp.Planned.ProfitRate)
	}
}
