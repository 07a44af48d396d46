package reports

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ClassTypeFilter restricts which bucket columns an engine generates at all,
// not merely which are displayed
type ClassTypeFilter string

const (
	FilterPrivate ClassTypeFilter = "private"
	FilterGroup   ClassTypeFilter = "group"
	FilterBoth    ClassTypeFilter = "both"
)

// FilterMode selects how the student engine narrows its input
type FilterMode string

const (
	FilterModeAll     FilterMode = "all"
	FilterModeCompany FilterMode = "company"
	FilterModeCustom  FilterMode = "custom"
)

// CompanyWildcard means "no company filter" in the student engine settings
const CompanyWildcard = "*"

var validate = validator.New()

// CompensationSettings configures the pay/attendance report
type CompensationSettings struct {
	TardinessLimitMinutes     float64         `validate:"min=0"`
	CancellationWindowHours   float64         `validate:"min=0"`
	PenaliseTardiness         bool
	PayLastMinuteCancellation bool
	PayStudentNoShow          bool
	StudentNoShowRatePercent  float64         `validate:"min=0,max=100"`
	ClassTypeFilter           ClassTypeFilter `validate:"oneof=private group both"`
	Detailed                  bool
}

// DefaultCompensationSettings returns the documented defaults
func DefaultCompensationSettings() CompensationSettings {
	return CompensationSettings{
		TardinessLimitMinutes:    5,
		CancellationWindowHours:  24,
		StudentNoShowRatePercent: 50,
		ClassTypeFilter:          FilterBoth,
	}
}

// Validate checks the settings; engines assume validated settings
func (s CompensationSettings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("compensation settings: %w", err)
	}
	return nil
}

// StudentSettings configures the student/company report
type StudentSettings struct {
	CancellationWindowHours float64    `validate:"min=0"`
	CompanyID               string
	FilterMode              FilterMode `validate:"oneof=all company custom"`
	CustomAllowlist         map[string]struct{}
}

// DefaultStudentSettings returns the documented defaults
func DefaultStudentSettings() StudentSettings {
	return StudentSettings{
		CancellationWindowHours: 24,
		CompanyID:               CompanyWildcard,
		FilterMode:              FilterModeAll,
	}
}

// Validate checks the settings
func (s StudentSettings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("student settings: %w", err)
	}
	if s.FilterMode == FilterModeCustom && len(s.CustomAllowlist) == 0 {
		return fmt.Errorf("student settings: custom filter mode requires an allowlist")
	}
	return nil
}

// OverviewSettings configures the overview tallies and averages comparison
type OverviewSettings struct {
	CancellationWindowHours float64 `validate:"min=0"`
}

// DefaultOverviewSettings returns the documented defaults
func DefaultOverviewSettings() OverviewSettings {
	return OverviewSettings{CancellationWindowHours: 24}
}

// Validate checks the settings
func (s OverviewSettings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("overview settings: %w", err)
	}
	return nil
}
