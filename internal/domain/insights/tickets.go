package insights

import (
	"fmt"
	"sort"

	"github.com/okian/clientiq/internal/domain/model"
	"github.com/okian/clientiq/pkg/numeric"
)

// TicketAnalysis breaks tickets down by category, priority and status.
type TicketAnalysis struct {
	TotalTickets       int            `json:"total_tickets"`
	Categories         map[string]int `json:"categories"`
	Priorities         map[string]int `json:"priorities"`
	Statuses           map[string]int `json:"statuses"`
	AvgResolutionHours float64        `json:"avg_resolution_hours"`
	Insights           []string       `json:"insights"`
}

func analyzeTickets(tickets []model.Ticket) TicketAnalysis {
	if len(tickets) == 0 {
		return TicketAnalysis{
			Categories: map[string]int{},
			Priorities: map[string]int{},
			Statuses:   map[string]int{},
			Insights:   []string{"No ticket data available for analysis"},
		}
	}

	categories, priorities, statuses := newCounter(), newCounter(), newCounter()
	var resolved []float64
	for _, t := range tickets {
		categories.add(categoryOf(t))
		priorities.add(priorityOf(t))
		statuses.add(statusOf(t))
		if t.ResolvedAt != nil && !t.CreatedAt.IsZero() {
			var h float64
			if t.ResolutionHours != nil {
				h = *t.ResolutionHours
			}
			resolved = append(resolved, h)
		}
	}

	var avg float64
	if len(resolved) > 0 {
		var sum float64
		for _, h := range resolved {
			sum += h
		}
		avg = sum / float64(len(resolved))
	}

	total := float64(len(tickets))
	insights := []string{}
	top := categories.mostCommon(1)[0]
	insights = append(insights, fmt.Sprintf("Most common ticket category: %s (%d tickets, %.1f%%)",
		top.key, top.count, float64(top.count)/total*100))

	urgent := priorities.get(model.PriorityHigh) + priorities.get(model.PriorityCritical)
	if float64(urgent) > total*0.3 {
		insights = append(insights, fmt.Sprintf("High proportion of urgent tickets (%.1f%%) suggests reactive operations",
			float64(urgent)/total*100))
	}

	if avg > 0 {
		if avg > 48 {
			insights = append(insights, fmt.Sprintf("Average resolution time of %.1f hours exceeds best practice (24-48 hours)", avg))
		} else {
			insights = append(insights, fmt.Sprintf("Average resolution time of %.1f hours meets best practice standards", avg))
		}
	}

	return TicketAnalysis{
		TotalTickets:       len(tickets),
		Categories:         asMap(categories.mostCommon(topN)),
		Priorities:         asMap(priorities.mostCommon(0)),
		Statuses:           asMap(statuses.mostCommon(0)),
		AvgResolutionHours: numeric.Round(avg, 1),
		Insights:           insights,
	}
}

// PriorityAttainment is SLA attainment for one priority.
type PriorityAttainment struct {
	Attainment float64 `json:"attainment"`
	Total      int     `json:"total"`
	Met        int     `json:"met"`
	Breached   int     `json:"breached"`
}

// CategoryAttainment is SLA attainment for one category.
type CategoryAttainment struct {
	Category   string  `json:"category"`
	Attainment float64 `json:"attainment"`
	Total      int     `json:"total"`
}

// SLAPerformance breaks SLA attainment down by priority and category.
// ByCategory holds the five worst categories, lowest first.
type SLAPerformance struct {
	OverallAttainment float64                       `json:"overall_attainment"`
	ByPriority        map[string]PriorityAttainment `json:"by_priority"`
	ByCategory        []CategoryAttainment          `json:"by_category"`
	TotalBreaches     int                           `json:"total_breaches"`
	Insights          []string                      `json:"insights"`
}

func analyzeSLA(tickets []model.Ticket) SLAPerformance {
	out := SLAPerformance{
		ByPriority: map[string]PriorityAttainment{},
		ByCategory: []CategoryAttainment{},
		Insights:   []string{},
	}
	if len(tickets) == 0 {
		return out
	}

	priTotal, priMet := newCounter(), newCounter()
	catTotal, catMet := newCounter(), newCounter()
	met := 0
	for _, t := range tickets {
		p, c := priorityOf(t), categoryOf(t)
		priTotal.add(p)
		catTotal.add(c)
		if t.MetSLA {
			met++
			priMet.add(p)
			catMet.add(c)
		} else {
			out.TotalBreaches++
		}
	}
	overall := float64(met) / float64(len(tickets)) * 100
	out.OverallAttainment = numeric.Round(overall, 1)
	if overall < 90 {
		out.Insights = append(out.Insights, fmt.Sprintf("Overall SLA attainment of %.1f%% is below target (90%%)", overall))
	}

	var worstPri string
	worstPriPct := 101.0
	for _, p := range priTotal.order {
		total, m := priTotal.get(p), priMet.get(p)
		pct := numeric.Round(float64(m)/float64(total)*100, 1)
		out.ByPriority[p] = PriorityAttainment{Attainment: pct, Total: total, Met: m, Breached: total - m}
		if pct < worstPriPct {
			worstPri, worstPriPct = p, pct
		}
	}
	if worstPriPct < 85 {
		out.Insights = append(out.Insights, fmt.Sprintf("%s priority tickets have lowest SLA attainment (%.1f%%)", worstPri, worstPriPct))
	}

	cats := make([]CategoryAttainment, 0, catTotal.len())
	for _, c := range catTotal.order {
		total := catTotal.get(c)
		cats = append(cats, CategoryAttainment{
			Category:   c,
			Attainment: numeric.Round(float64(catMet.get(c))/float64(total)*100, 1),
			Total:      total,
		})
	}
	sort.SliceStable(cats, func(i, j int) bool { return cats[i].Attainment < cats[j].Attainment })
	if cats[0].Attainment < 85 {
		out.Insights = append(out.Insights, fmt.Sprintf("%s category shows lowest SLA performance (%.1f%%)", cats[0].Category, cats[0].Attainment))
	}
	if len(cats) > 5 {
		cats = cats[:5]
	}
	out.ByCategory = cats
	return out
}

// UserLoad is one user's share of tickets.
type UserLoad struct {
	User          string  `json:"user"`
	TicketCount   int     `json:"ticket_count"`
	Percentage    float64 `json:"percentage"`
	TopCategory   string  `json:"top_category"`
	CategoryCount int     `json:"category_count"`
}

// TopUsers lists the users raising the most tickets.
type TopUsers struct {
	Users    []UserLoad `json:"top_users"`
	Insights []string   `json:"insights"`
}

func topUsers(tickets []model.Ticket) TopUsers {
	out := TopUsers{Users: []UserLoad{}, Insights: []string{}}
	if len(tickets) == 0 {
		return out
	}
	users := newCounter()
	byUser := map[string]*counter{}
	for _, t := range tickets {
		u := orDefault(t.User, unknownUser)
		users.add(u)
		if byUser[u] == nil {
			byUser[u] = newCounter()
		}
		byUser[u].add(categoryOf(t))
	}
	for _, e := range users.mostCommon(topN) {
		top := byUser[e.key].mostCommon(1)[0]
		out.Users = append(out.Users, UserLoad{
			User:          e.key,
			TicketCount:   e.count,
			Percentage:    numeric.Round(float64(e.count)/float64(len(tickets))*100, 1),
			TopCategory:   top.key,
			CategoryCount: top.count,
		})
	}

	first := out.Users[0]
	if first.Percentage > 10 {
		out.Insights = append(out.Insights, fmt.Sprintf("%s accounts for %.1f%% of all tickets - consider targeted training or equipment upgrade",
			first.User, first.Percentage))
	}
	shared := newCounter()
	for _, u := range out.Users[:min(5, len(out.Users))] {
		shared.add(u.TopCategory)
	}
	if common := shared.mostCommon(1)[0]; common.count >= 3 {
		out.Insights = append(out.Insights, fmt.Sprintf("Multiple power users experiencing %s issues - may indicate systemic problem", common.key))
	}
	return out
}

// AssetLoad is one asset's share of tickets.
type AssetLoad struct {
	Asset       string  `json:"asset"`
	AssetType   string  `json:"asset_type"`
	TicketCount int     `json:"ticket_count"`
	Percentage  float64 `json:"percentage"`
	TopIssue    string  `json:"top_issue"`
	IssueCount  int     `json:"issue_count"`
}

// TopAssets lists the assets attracting the most tickets.
type TopAssets struct {
	Assets   []AssetLoad `json:"top_assets"`
	Insights []string    `json:"insights"`
}

func topAssets(tickets []model.Ticket) TopAssets {
	out := TopAssets{Assets: []AssetLoad{}, Insights: []string{}}
	if len(tickets) == 0 {
		return out
	}
	assets := newCounter()
	byAsset := map[string]*counter{}
	kinds := map[string]string{}
	for _, t := range tickets {
		a := orDefault(t.Asset, unknownAsset)
		assets.add(a)
		if byAsset[a] == nil {
			byAsset[a] = newCounter()
		}
		byAsset[a].add(categoryOf(t))
		kinds[a] = orDefault(t.AssetType, model.Unknown)
	}

	servers, workstations := 0, 0
	for _, e := range assets.mostCommon(topN) {
		top := byAsset[e.key].mostCommon(1)[0]
		kind := kinds[e.key]
		out.Assets = append(out.Assets, AssetLoad{
			Asset:       e.key,
			AssetType:   kind,
			TicketCount: e.count,
			Percentage:  numeric.Round(float64(e.count)/float64(len(tickets))*100, 1),
			TopIssue:    top.key,
			IssueCount:  top.count,
		})
		switch kind {
		case model.AssetServer:
			servers++
		case model.AssetWorkstation:
			workstations++
		}
	}

	first := out.Assets[0]
	if first.Percentage > 5 {
		out.Insights = append(out.Insights, fmt.Sprintf("%s (%s) generates %.1f%% of tickets - recommend replacement or upgrade",
			first.Asset, first.AssetType, first.Percentage))
	}
	if servers >= 3 {
		out.Insights = append(out.Insights, fmt.Sprintf("%d servers in top 10 problematic assets - consider infrastructure review", servers))
	}
	if workstations >= 5 {
		out.Insights = append(out.Insights, fmt.Sprintf("%d workstations in top 10 - may indicate aging fleet or software issues", workstations))
	}
	return out
}

// MonthlyVolume is the ticket count of one month in the window.
type MonthlyVolume struct {
	Month  string `json:"month"`
	Volume int    `json:"volume"`
}

// TrendAnalysis compares the first and last month of the window.
type TrendAnalysis struct {
	MonthlyVolumes  []MonthlyVolume `json:"monthly_volumes"`
	TrendDirection  string          `json:"trend_direction"`
	TrendPercentage float64         `json:"trend_percentage"`
	TrendStatus     string          `json:"trend_status"`
	Insights        []string        `json:"insights"`
}

func analyzeTrend(tickets []model.Ticket) TrendAnalysis {
	out := TrendAnalysis{MonthlyVolumes: []MonthlyVolume{}, Insights: []string{}}
	if len(tickets) == 0 {
		return out
	}
	var volumes [3]int
	for _, t := range tickets {
		if t.MonthOffset >= 0 && t.MonthOffset < len(volumes) {
			volumes[t.MonthOffset]++
		}
	}
	for i, v := range volumes {
		out.MonthlyVolumes = append(out.MonthlyVolumes, MonthlyVolume{Month: fmt.Sprintf("Month %d", i+1), Volume: v})
	}

	var pct float64
	if first := volumes[0]; first > 0 {
		pct = float64(volumes[len(volumes)-1]-first) / float64(first) * 100
	}
	switch {
	case pct > 10:
		out.TrendDirection, out.TrendStatus = "increasing", "warning"
		out.Insights = append(out.Insights, fmt.Sprintf("Ticket volume increasing by %.1f%% - investigate root causes", pct))
	case pct < -10:
		out.TrendDirection, out.TrendStatus = "decreasing", "positive"
		out.Insights = append(out.Insights, fmt.Sprintf("Ticket volume decreasing by %.1f%% - positive trend", -pct))
	default:
		out.TrendDirection, out.TrendStatus = "stable", "neutral"
	}
	out.TrendPercentage = numeric.Round(pct, 1)
	return out
}
