package insights

import (
	"fmt"

	"github.com/okian/clientiq/internal/domain/model"
	"github.com/okian/clientiq/pkg/numeric"
)

// Overview is the blended operational health of a client.
type Overview struct {
	HealthScore   float64    `json:"operational_health_score"`
	HealthStatus  string     `json:"health_status"`
	HealthColor   string     `json:"health_color"`
	SummaryPoints []string   `json:"summary_points"`
	KeyMetrics    KeyMetrics `json:"key_metrics"`
}

// KeyMetrics are the four factors of the health score.
type KeyMetrics struct {
	PatchHealth  float64 `json:"patch_health"`
	BackupHealth float64 `json:"backup_health"`
	SLAHealth    float64 `json:"sla_health"`
	TicketHealth float64 `json:"ticket_health"`
}

func overview(s model.Signals, tickets []model.Ticket) Overview {
	var monthly float64
	if len(tickets) > 0 {
		monthly = float64(len(tickets)) / 3
	}
	ticketHealth := 50.0
	if s.TotalUsers > 0 {
		ticketHealth = max(0, 100-(monthly/float64(s.TotalUsers)*10))
	}
	health := (s.PatchCompliance + s.BackupStatus + s.ResponseTimeSLA + ticketHealth) / 4

	o := Overview{
		HealthScore: numeric.Round(health, 1),
		KeyMetrics: KeyMetrics{
			PatchHealth:  s.PatchCompliance,
			BackupHealth: s.BackupStatus,
			SLAHealth:    s.ResponseTimeSLA,
			TicketHealth: numeric.Round(ticketHealth, 1),
		},
	}
	switch {
	case health >= 90:
		o.HealthStatus, o.HealthColor = "Excellent", "green"
	case health >= 75:
		o.HealthStatus, o.HealthColor = "Good", "blue"
	case health >= 60:
		o.HealthStatus, o.HealthColor = "Fair", "orange"
	default:
		o.HealthStatus, o.HealthColor = "Needs Attention", "red"
	}

	points := make([]string, 0, 4)
	if s.PatchCompliance < 95 {
		points = append(points, fmt.Sprintf("Patch compliance at %.1f%% indicates potential vulnerability exposure", s.PatchCompliance))
	} else {
		points = append(points, "Strong patch management practices observed")
	}
	if s.BackupStatus < 98 {
		points = append(points, fmt.Sprintf("Backup coverage at %.1f%% presents data loss risk", s.BackupStatus))
	} else {
		points = append(points, "Comprehensive backup coverage in place")
	}
	if s.ResponseTimeSLA < 90 {
		points = append(points, fmt.Sprintf("SLA attainment at %.1f%% suggests resource or process optimization needed", s.ResponseTimeSLA))
	} else {
		points = append(points, "Consistent SLA performance demonstrates operational maturity")
	}
	if monthly > 0 {
		var perUser float64
		if s.TotalUsers > 0 {
			perUser = monthly / float64(s.TotalUsers)
		}
		if perUser > 1.5 {
			points = append(points, fmt.Sprintf("High ticket volume (%.1f per user/month) indicates potential training or infrastructure issues", perUser))
		} else {
			points = append(points, fmt.Sprintf("Moderate ticket volume (%.1f per user/month) is within normal range", perUser))
		}
	}
	o.SummaryPoints = points
	return o
}
