// Package model contains domain models passed between layers.
package model

import "time"

// Asset type and status values recognised by the signal deriver.
const (
	AssetServer      = "Server"
	AssetWorkstation = "Workstation"
	AssetLaptop      = "Laptop"
	AssetMobile      = "Mobile"

	// Unknown is the value assumed for missing enum fields.
	Unknown = "Unknown"
)

// Ticket priorities.
const (
	PriorityCritical = "Critical"
	PriorityHigh     = "High"
	PriorityNormal   = "Normal"
	PriorityLow      = "Low"
)

// Customer holds the client metadata fetched from the PSA.
type Customer struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Industry      string `json:"industry"`
	MFAEnforced   bool   `json:"mfa_enforced"`
	EmployeeCount int    `json:"employee_count"`

	Metadata *CustomerMetadata `json:"metadata,omitempty"`
}

// Asset is a single managed device.
type Asset struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Type            string `json:"type"`            // Server, Workstation, Laptop, Mobile
	PatchStatus     string `json:"patchstatus"`     // Compliant, UpToDate, OutOfDate, Unknown
	AntivirusStatus string `json:"antivirusstatus"` // Protected, Enabled, Disabled, Unknown
	BackupEnabled   bool   `json:"backup_enabled"`
	OS              string `json:"os,omitempty"`
}

// Ticket is a service desk ticket from the observation window.
type Ticket struct {
	ID              string     `json:"id"`
	Subject         string     `json:"subject,omitempty"`
	Category        string     `json:"category"`
	Priority        string     `json:"priority"`
	Status          string     `json:"status"`
	User            string     `json:"user,omitempty"`
	Asset           string     `json:"asset,omitempty"`
	AssetType       string     `json:"asset_type,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	ResolutionHours *float64   `json:"resolution_hours,omitempty"`
	MetSLA          bool       `json:"met_sla"`
	MonthOffset     int        `json:"month_offset"` // 0 = oldest month of the window
}

// User is a contact account at the client.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Active bool   `json:"active"`
}

// SLATargetHours returns the resolution target for a ticket priority.
// Unknown priorities use the Normal target.
func SLATargetHours(priority string) float64 {
	switch priority {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 8
	case PriorityLow:
		return 48
	default:
		return 24
	}
}

// Agreement is a recurring-revenue contract with a client.
type Agreement struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	Name       string    `json:"name"`
	MonthlyMRR float64   `json:"monthly_mrr"`
	Status     string    `json:"status"` // active, expired, cancelled, pending
	StartDate  time.Time `json:"start_date"`
}

// AgreementActive is the only agreement status that contributes MRR.
const AgreementActive = "active"

// Meeting is a scheduled client meeting.
type Meeting struct {
	ID            string    `json:"id"`
	CustomerID    string    `json:"customer_id"`
	Title         string    `json:"title"`
	ScheduledDate time.Time `json:"scheduled_date"`
}

// ReportSummary is the part of a past review run that segmentation reads.
// OverallScore is on a 0-100 scale.
type ReportSummary struct {
	GeneratedAt  time.Time `json:"generated_at"`
	OverallScore float64   `json:"overall_score"`
}

// CustomerMetadata is the PSA detail kept for an imported customer.
type CustomerMetadata struct {
	SourceID string `json:"source_id,omitempty"`
	Website  string `json:"website,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Notes    string `json:"notes,omitempty"`
	VIP      bool   `json:"is_vip"`
	Status   string `json:"status"` // active, inactive
}
