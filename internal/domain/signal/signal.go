// Package signal derives normalized health signals from raw PSA records.
package signal

import (
	"github.com/okian/clientiq/internal/domain/model"
	"github.com/okian/clientiq/pkg/numeric"
)

// observationMonths is the length of the ticket window in months (90 days).
const observationMonths = 3

// Derive converts raw customer, asset, ticket and user records into the
// signal mapping. Empty inputs produce defined defaults, never failures.
func Derive(customer model.Customer, assets []model.Asset, tickets []model.Ticket, users []model.User) model.Signals {
	var (
		patched, servers, backedUp  int
		endpoints, protected, desks int
	)
	for _, a := range assets {
		if a.PatchStatus == "Compliant" || a.PatchStatus == "UpToDate" {
			patched++
		}
		switch a.Type {
		case model.AssetServer:
			servers++
			if a.BackupEnabled {
				backedUp++
			}
		case model.AssetWorkstation, model.AssetLaptop:
			desks++
		}
		if isEndpoint(a.Type) {
			endpoints++
			if a.AntivirusStatus == "Protected" || a.AntivirusStatus == "Enabled" {
				protected++
			}
		}
	}

	metSLA := 0
	for _, t := range tickets {
		if t.MetSLA {
			metSLA++
		}
	}

	active := 0
	for _, u := range users {
		if u.Active {
			active++
		}
	}

	s := model.Signals{
		PatchCompliance: numeric.Percent(patched, len(assets), 0),
		// No servers means nothing is left unprotected.
		BackupStatus:    numeric.Percent(backedUp, servers, 100),
		EDR:             numeric.Percent(protected, endpoints, 0),
		ResponseTimeSLA: numeric.Percent(metSLA, len(tickets), 100),
		TotalAssets:     len(assets),
		TotalUsers:      active,
		TotalServers:    servers,
		TotalEndpoints:  desks,
	}
	if customer.MFAEnforced {
		s.MFA = 100
	}
	if len(tickets) > 0 {
		s.IncidentVolume = numeric.Round(float64(len(tickets))/observationMonths, 2)
	}
	return s
}

// isEndpoint reports whether an asset type is covered by EDR.
func isEndpoint(assetType string) bool {
	switch assetType {
	case model.AssetWorkstation, model.AssetLaptop, model.AssetServer:
		return true
	}
	return false
}
