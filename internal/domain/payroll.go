package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee is a person payroll records are kept for.
type Employee struct {
	ID           string `json:"id"`
	Code         string `json:"employee_code"`
	FullName     string `json:"full_name"`
	IDNumber     string `json:"id_number,omitempty"`
	DepartmentID string `json:"department_id,omitempty"`
	PositionID   string `json:"position_id,omitempty"`
	CategoryID   string `json:"personnel_category_id,omitempty"`
	Active       bool   `json:"is_active"`
}

// Department is an organisational unit.
type Department struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Position is a job title.
type Position struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// JobRank is a job level.
type JobRank struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PersonnelCategory is an employee category (identity class).
type PersonnelCategory struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// InsuranceType is a social insurance or fund with a contribution base.
type InsuranceType struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	EnglishName string `json:"english_name,omitempty"`
	Active      bool   `json:"is_active"`
}

// ComponentType groups salary components.
type ComponentType string

const (
	ComponentEarning        ComponentType = "earning"
	ComponentBenefit        ComponentType = "benefit"
	ComponentPersonalTax    ComponentType = "personal_tax"
	ComponentDeduction      ComponentType = "personal_deduction"
	ComponentOtherDeduction ComponentType = "other_deduction"
	ComponentEmployerCost   ComponentType = "employer_deduction"
	ComponentStatistical    ComponentType = "statistical"
)

// ComponentTypeOrder is the fixed order components are laid out in exports.
var ComponentTypeOrder = []ComponentType{
	ComponentEarning,
	ComponentBenefit,
	ComponentDeduction,
	ComponentPersonalTax,
	ComponentOtherDeduction,
	ComponentEmployerCost,
	ComponentStatistical,
}

// IsDeduction reports whether amounts of this type reduce net pay.
func (t ComponentType) IsDeduction() bool {
	switch t {
	case ComponentPersonalTax, ComponentDeduction, ComponentOtherDeduction:
		return true
	}
	return false
}

// IsEarning reports whether amounts of this type count towards gross pay.
func (t ComponentType) IsEarning() bool {
	return t == ComponentEarning || t == ComponentBenefit
}

// SalaryComponent is a configurable payroll line.
type SalaryComponent struct {
	ID     string        `json:"id"`
	Code   string        `json:"code"`
	Name   string        `json:"name"`
	Type   ComponentType `json:"type"`
	Active bool          `json:"is_active"`
}

// PayrollPeriod is a pay month.
type PayrollPeriod struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	PayDate   time.Time `json:"pay_date"`
}

// PayrollEntry is the per-employee, per-period aggregate. Unique on
// (EmployeeID, PeriodID).
type PayrollEntry struct {
	ID              string          `json:"id"`
	EmployeeID      string          `json:"employee_id"`
	PeriodID        string          `json:"period_id"`
	GrossPay        decimal.Decimal `json:"gross_pay"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	NetPay          decimal.Decimal `json:"net_pay"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// PayrollItem is one line item of an entry. Unique on (EntryID, ComponentID).
type PayrollItem struct {
	EntryID     string          `json:"entry_id"`
	ComponentID string          `json:"component_id"`
	Amount      decimal.Decimal `json:"amount"`
}

// ContributionBase is an insurance base of an entry. Unique on
// (EntryID, InsuranceTypeID).
type ContributionBase struct {
	EntryID         string          `json:"entry_id"`
	InsuranceTypeID string          `json:"insurance_type_id"`
	Base            decimal.Decimal `json:"base"`
}

// JobAssignment records department, position and rank for an entry. Unique on EntryID.
type JobAssignment struct {
	EntryID      string     `json:"entry_id"`
	DepartmentID string     `json:"department_id,omitempty"`
	PositionID   string     `json:"position_id,omitempty"`
	RankID       string     `json:"rank_id,omitempty"`
	HireDate     *time.Time `json:"hire_date,omitempty"`
	Status       string     `json:"employment_status,omitempty"`
}

// CategoryAssignment records the personnel category of an entry. Unique on EntryID.
type CategoryAssignment struct {
	EntryID    string `json:"entry_id"`
	CategoryID string `json:"personnel_category_id"`
}

// ComputeTotals sums items into gross pay, deductions and net pay.
// Components of unknown type are ignored.
func ComputeTotals(items []PayrollItem, types map[string]ComponentType) (gross, deductions, net decimal.Decimal) {
	gross, deductions = decimal.Zero, decimal.Zero
	for _, it := range items {
		t, ok := types[it.ComponentID]
		if !ok {
			continue
		}
		switch {
		case t.IsEarning():
			gross = gross.Add(it.Amount)
		case t.IsDeduction():
			deductions = deductions.Add(it.Amount)
		}
	}
	return gross, deductions, gross.Sub(deductions)
}

// ItemAmount is a line item resolved to its component for exports.
type ItemAmount struct {
	ComponentID string          `json:"component_id"`
	Name        string          `json:"name"`
	Type        ComponentType   `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
}

// BaseAmount is a contribution base resolved to its insurance type for exports.
type BaseAmount struct {
	InsuranceTypeID string          `json:"insurance_type_id"`
	Name            string          `json:"name"`
	Base            decimal.Decimal `json:"base"`
}

// PeriodRecord flattens everything stored for one employee in one period.
type PeriodRecord struct {
	EntryID         string          `json:"entry_id"`
	EmployeeID      string          `json:"employee_id"`
	EmployeeCode    string          `json:"employee_code"`
	EmployeeName    string          `json:"employee_name"`
	IDNumber        string          `json:"id_number"`
	Department      string          `json:"department"`
	Position        string          `json:"position"`
	Rank            string          `json:"rank"`
	Category        string          `json:"personnel_category"`
	CategoryCode    string          `json:"personnel_category_code"`
	Active          bool            `json:"is_active"`
	Items           []ItemAmount    `json:"items,omitempty"`
	Bases           []BaseAmount    `json:"bases,omitempty"`
	GrossPay        decimal.Decimal `json:"gross_pay"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	NetPay          decimal.Decimal `json:"net_pay"`
}
