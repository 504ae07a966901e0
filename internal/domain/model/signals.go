package model

// SignalID names a normalized signal. The set is closed.
type SignalID string

// Signal identifiers fixed by contract.
const (
	SignalPatchCompliance SignalID = "patch_compliance"
	SignalBackupStatus    SignalID = "backup_status"
	SignalMFA             SignalID = "mfa"
	SignalEDR             SignalID = "edr"
	SignalResponseSLA     SignalID = "response_time_sla"
	SignalIncidentVolume  SignalID = "incident_volume"
	SignalTotalAssets     SignalID = "total_assets"
	SignalTotalUsers      SignalID = "total_users"
	SignalTotalServers    SignalID = "total_servers"
	SignalTotalEndpoints  SignalID = "total_endpoints"
)

// Signals is the flat normalized signal mapping. Percentages are 0-100.
type Signals struct {
	PatchCompliance float64 `json:"patch_compliance"`
	BackupStatus    float64 `json:"backup_status"`
	MFA             float64 `json:"mfa"`
	EDR             float64 `json:"edr"`
	ResponseTimeSLA float64 `json:"response_time_sla"`
	IncidentVolume  float64 `json:"incident_volume"`
	TotalAssets     int     `json:"total_assets"`
	TotalUsers      int     `json:"total_users"`
	TotalServers    int     `json:"total_servers"`
	TotalEndpoints  int     `json:"total_endpoints"`
}

// Value returns the named signal as a float. Unknown ids return 0.
func (s Signals) Value(id SignalID) float64 {
	switch id {
	case SignalPatchCompliance:
		return s.PatchCompliance
	case SignalBackupStatus:
		return s.BackupStatus
	case SignalMFA:
		return s.MFA
	case SignalEDR:
		return s.EDR
	case SignalResponseSLA:
		return s.ResponseTimeSLA
	case SignalIncidentVolume:
		return s.IncidentVolume
	case SignalTotalAssets:
		return float64(s.TotalAssets)
	case SignalTotalUsers:
		return float64(s.TotalUsers)
	case SignalTotalServers:
		return float64(s.TotalServers)
	case SignalTotalEndpoints:
		return float64(s.TotalEndpoints)
	}
	return 0
}
