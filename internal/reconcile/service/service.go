package service

import (
	"fmt"
	"math"

	"material-recon/internal/reconcile/model"
)

// Run — основная сверка: матчинг → классификация → отчёт.
// Вход считается проверенным (см. Validate); состояния между вызовами нет.
func Run(pdf, excel []model.LineItem, opt model.Options) model.Report {
	pairs := Match(pdf, excel, opt)
	rows := make([]model.ReconciledRow, len(pairs))
	for k, p := range pairs {
		rows[k] = Classify(p, pdf, excel)
	}
	return Build(pairs, rows)
}

// Reconcile проверяет вход и запускает сверку.
func Reconcile(pdf, excel []model.LineItem, opt model.Options) (model.Report, error) {
	if err := Validate(pdf, excel, opt); err != nil {
		return model.Report{}, err
	}
	return Run(pdf, excel, opt), nil
}

// Validate собирает все проблемы входа в *model.ValidationError.
func Validate(pdf, excel []model.LineItem, opt model.Options) error {
	verr := &model.ValidationError{}
	t := opt.MatchThreshold
	if math.IsNaN(t) || t < 0 || t > 1 {
		verr.Add(model.Issue{Index: -1, Field: "matchThreshold", Reason: fmt.Sprintf("must be within [0,1], got %v", t)})
	}
	check := func(side model.Side, items []model.LineItem) {
		for i, it := range items {
			for _, is := range it.Validate() {
				is.Side, is.Index = side, i
				verr.Add(is)
			}
		}
	}
	check(model.SidePDF, pdf)
	check(model.SideExcel, excel)
	if verr.Empty() {
		return nil
	}
	return verr
}
