package entity

// ステータス表示マッピング。画面側で個別に持たせず、ここだけで定義する

var statusLabels = map[string]string{
	BudgetStatusDraft:                 "下書き",
	BudgetStatusPendingManager:        "管理部長承認待ち",
	BudgetStatusPendingDirector:       "常務承認待ち",
	BudgetStatusPendingPresident:      "社長承認待ち",
	BudgetStatusRejected:              "差戻し",
	BudgetStatusInProgress:            "施工中",
	BudgetStatusFinalPendingManager:   "精算 管理部長承認待ち",
	BudgetStatusFinalPendingDirector:  "精算 常務承認待ち",
	BudgetStatusFinalPendingPresident: "精算 社長承認待ち",
	BudgetStatusFinalRejected:         "精算差戻し",
	BudgetStatusCompleted:             "完了",
	BudgetStatusChangeRequest:         "変更申請中",
}

var statusColors = map[string]string{
	BudgetStatusDraft:                 "gray",
	BudgetStatusPendingManager:        "orange",
	BudgetStatusPendingDirector:       "orange",
	BudgetStatusPendingPresident:      "orange",
	BudgetStatusRejected:              "red",
	BudgetStatusInProgress:            "blue",
	BudgetStatusFinalPendingManager:   "orange",
	BudgetStatusFinalPendingDirector:  "orange",
	BudgetStatusFinalPendingPresident: "orange",
	BudgetStatusFinalRejected:         "red",
	BudgetStatusCompleted:             "green",
	BudgetStatusChangeRequest:         "purple",
}

var sectionLabels = map[string]string{
	SectionMaterials:   "材料費",
	SectionLabor:       "労務費",
	SectionOutsourcing: "外注費",
	SectionExpenses:    "経費",
}

// StatusLabel ステータスの表示名
func StatusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}

// StatusColor ステータスの表示色
func StatusColor(status string) string {
	if color, ok := statusColors[status]; ok {
		return color
	}
	return "gray"
}

// SectionLabel 費目区分の表示名
func SectionLabel(section string) string {
	if label, ok := sectionLabels[section]; ok {
		return label
	}
	return section
}
