package scoring

import "github.com/okian/clientiq/internal/domain/model"

// control is the static text attached to a gap and its recommendation.
type control struct {
	category       string
	issue          string
	impact         string
	recommendation string
	actionItems    [3]string
}

// controls is keyed by every signal that can raise a gap.
var controls = map[model.SignalID]control{
	model.SignalPatchCompliance: {
		category:       model.CategoryProtect,
		issue:          "Patch compliance below best practice threshold",
		impact:         "Increased vulnerability to known exploits and security breaches",
		recommendation: "Implement automated patch management solution and establish monthly patching cadence",
		actionItems: [3]string{
			"Deploy patch management tool across all endpoints",
			"Create maintenance windows for critical systems",
			"Establish patch testing and rollback procedures",
		},
	},
	model.SignalBackupStatus: {
		category:       model.CategoryRecover,
		issue:          "Backup coverage below best practice threshold",
		impact:         "Risk of data loss and extended downtime in disaster scenarios",
		recommendation: "Deploy enterprise backup solution for all servers with daily backup schedules",
		actionItems: [3]string{
			"Implement backup solution for uncovered servers",
			"Configure daily incremental and weekly full backups",
			"Establish quarterly restore testing procedures",
		},
	},
	model.SignalEDR: {
		category:       model.CategoryProtect + "/" + model.CategoryDetect,
		issue:          "EDR/Antivirus coverage below best practice threshold",
		impact:         "Limited threat detection and response capabilities",
		recommendation: "Deploy EDR solution to all endpoints for comprehensive threat detection",
		actionItems: [3]string{
			"License and deploy EDR agent to all workstations and servers",
			"Configure threat detection policies and alerting",
			"Establish SOC monitoring and response procedures",
		},
	},
	model.SignalResponseSLA: {
		category:       model.CategoryRespond,
		issue:          "SLA attainment below target",
		impact:         "Delayed incident response affecting business operations",
		recommendation: "Optimize incident response processes and resource allocation",
		actionItems: [3]string{
			"Review and adjust ticket prioritization rules",
			"Implement automated triage and routing",
			"Increase staffing during peak incident periods",
		},
	},
	model.SignalMFA: {
		category:       model.CategoryProtect,
		issue:          "Multi-Factor Authentication not enforced",
		impact:         "High risk of account compromise and unauthorized access",
		recommendation: "Enable and enforce MFA for all user accounts, especially privileged access",
		actionItems: [3]string{
			"Deploy MFA solution (Azure AD, Duo, etc.)",
			"Enforce MFA for all administrative accounts immediately",
			"Roll out MFA to all users with 30-day adoption plan",
		},
	},
}
