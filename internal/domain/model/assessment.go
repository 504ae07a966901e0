package model

// Severity ranks a gap.
type Severity string

// Gap severities.
const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// Framework categories.
const (
	CategoryIdentify = "Identify"
	CategoryProtect  = "Protect"
	CategoryDetect   = "Detect"
	CategoryRespond  = "Respond"
	CategoryRecover  = "Recover"
)

// Scores is the framework score vector. Every value is in [0, 1].
type Scores struct {
	Identify float64 `json:"Identify"`
	Protect  float64 `json:"Protect"`
	Detect   float64 `json:"Detect"`
	Respond  float64 `json:"Respond"`
	Recover  float64 `json:"Recover"`
	Overall  float64 `json:"Overall"`
}

// Gap is one compliance shortfall.
type Gap struct {
	Category     string   `json:"category"`
	Signal       SignalID `json:"signal"`
	CurrentValue float64  `json:"current_value"`
	Threshold    float64  `json:"threshold"`
	Severity     Severity `json:"severity"`
	Issue        string   `json:"issue"`
	Impact       string   `json:"impact"`
}

// Recommendation is the remediation advice attached to a gap.
type Recommendation struct {
	Category       string   `json:"category"`
	Priority       Severity `json:"priority"`
	Issue          string   `json:"issue"`
	Signal         SignalID `json:"signal"`
	Recommendation string   `json:"recommendation"`
	ActionItems    []string `json:"action_items"`
}

// LineItem prices one recommended service.
type LineItem struct {
	Service     string  `json:"service"`
	Unit        string  `json:"unit"`
	Quantity    int     `json:"quantity"`
	UnitCost    float64 `json:"unit_cost"`
	MonthlyCost float64 `json:"monthly_cost"`
	AnnualCost  float64 `json:"annual_cost"`
	Note        string  `json:"note,omitempty"`
}

// Budget is the priced list of services needed to close gaps.
type Budget struct {
	Services     []LineItem `json:"services"`
	TotalMonthly float64    `json:"total_monthly"`
	TotalAnnual  float64    `json:"total_annual"`
}
