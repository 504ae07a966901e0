package source

import (
	"strings"
	"time"

	"github.com/okian/clientiq/internal/domain/model"
	"github.com/okian/clientiq/internal/domain/roi"

	"github.com/spf13/cast"
)

// Record is one raw upstream object as decoded from JSON.
type Record = map[string]any

// fields reads typed values from one record. The first coercion failure is
// kept and later reads become no-ops.
type fields struct {
	kind  string
	index int
	rec   Record
	err   error
}

func (f *fields) lookup(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := f.rec[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (f *fields) fail(key string, v any, err error) {
	if f.err == nil {
		f.err = &InputShapeError{Kind: f.kind, Index: f.index, Field: key, Value: v, Err: err}
	}
}

func (f *fields) str(def string, keys ...string) string {
	v, ok := f.lookup(keys...)
	if !ok || f.err != nil {
		return def
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		f.fail(keys[0], v, err)
		return def
	}
	if s == "" {
		return def
	}
	return s
}

func (f *fields) boolean(keys ...string) (value, present bool) {
	v, ok := f.lookup(keys...)
	if !ok || f.err != nil {
		return false, false
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		f.fail(keys[0], v, err)
		return false, false
	}
	return b, true
}

func (f *fields) integer(keys ...string) int {
	v, ok := f.lookup(keys...)
	if !ok || f.err != nil {
		return 0
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		f.fail(keys[0], v, err)
		return 0
	}
	return n
}

func (f *fields) float(keys ...string) *float64 {
	v, ok := f.lookup(keys...)
	if !ok || f.err != nil {
		return nil
	}
	n, err := cast.ToFloat64E(v)
	if err != nil {
		f.fail(keys[0], v, err)
		return nil
	}
	return &n
}

func (f *fields) timestamp(keys ...string) *time.Time {
	v, ok := f.lookup(keys...)
	if !ok || f.err != nil {
		return nil
	}
	t, err := cast.ToTimeE(v)
	if err != nil {
		f.fail(keys[0], v, err)
		return nil
	}
	return &t
}

// DecodeCustomer converts a raw customer object.
func DecodeCustomer(rec Record) (model.Customer, error) {
	f := &fields{kind: "customer", index: -1, rec: rec}
	mfa, _ := f.boolean("mfa_enforced")
	c := model.Customer{
		ID:            f.str("", "id"),
		Name:          f.str("", "name"),
		Industry:      f.str("", "industry"),
		MFAEnforced:   mfa,
		EmployeeCount: f.integer("employee_count"),
	}
	return c, f.err
}

// DecodeClients converts raw PSA client objects into roster entries. A
// missing name becomes "Unknown" and the industry is read from the custom
// fields with MapIndustry.
func DecodeClients(recs []Record) ([]model.Customer, error) {
	out := make([]model.Customer, 0, len(recs))
	for i, rec := range recs {
		f := &fields{kind: "client", index: i, rec: rec}
		vip, _ := f.boolean("isvip")
		inactive, _ := f.boolean("inactive")
		status := "active"
		if inactive {
			status = "inactive"
		}
		id := f.str("", "id")
		c := model.Customer{
			ID:       id,
			Name:     f.str(model.Unknown, "name"),
			Industry: string(MapIndustry(rec["customfields"])),
			Metadata: &model.CustomerMetadata{
				SourceID: id,
				Website:  f.str("", "website"),
				Phone:    f.str("", "phone"),
				Notes:    f.str("", "notes"),
				VIP:      vip,
				Status:   status,
			},
		}
		if f.err != nil {
			return nil, f.err
		}
		out = append(out, c)
	}
	return out, nil
}

// industryKeywords are checked in order against the lowercased field value.
var industryKeywords = []struct {
	industry roi.Industry
	words    []string
}{
	{roi.IndustryGovernment, []string{"gov", "public"}},
	{roi.IndustryNonprofit, []string{"nonprofit", "charity"}},
	{roi.IndustryManufacturing, []string{"manufact", "industrial"}},
	{roi.IndustryFinancial, []string{"financ", "bank"}},
	{roi.IndustryHealthcare, []string{"health", "medical"}},
}

// MapIndustry picks an industry from a client's custom fields. Only fields
// named industry, sector or vertical are read, the first recognised value
// wins, and anything else maps to government.
func MapIndustry(customFields any) roi.Industry {
	list, err := cast.ToSliceE(customFields)
	if err != nil {
		return roi.IndustryGovernment
	}
	for _, raw := range list {
		field, err := cast.ToStringMapE(raw)
		if err != nil {
			continue
		}
		switch strings.ToLower(cast.ToString(field["name"])) {
		case "industry", "sector", "vertical":
		default:
			continue
		}
		value := strings.ToLower(cast.ToString(field["value"]))
		for _, k := range industryKeywords {
			for _, w := range k.words {
				if strings.Contains(value, w) {
					return k.industry
				}
			}
		}
	}
	return roi.IndustryGovernment
}

// DecodeAssets converts raw asset objects. Missing enum fields become Unknown.
func DecodeAssets(recs []Record) ([]model.Asset, error) {
	out := make([]model.Asset, 0, len(recs))
	for i, rec := range recs {
		f := &fields{kind: "asset", index: i, rec: rec}
		backup, _ := f.boolean("backup_enabled")
		a := model.Asset{
			ID:              f.str("", "id"),
			Name:            f.str("", "name", "inventory_number"),
			Type:            f.str(model.Unknown, "type", "assettype_name"),
			PatchStatus:     f.str(model.Unknown, "patchstatus", "patch_status"),
			AntivirusStatus: f.str(model.Unknown, "antivirusstatus", "antivirus_status"),
			BackupEnabled:   backup,
			OS:              f.str("", "os"),
		}
		if f.err != nil {
			return nil, f.err
		}
		out = append(out, a)
	}
	return out, nil
}

// DecodeTickets converts raw ticket objects and settles each ticket's SLA
// outcome with TicketMetSLA.
func DecodeTickets(recs []Record) ([]model.Ticket, error) {
	out := make([]model.Ticket, 0, len(recs))
	for i, rec := range recs {
		f := &fields{kind: "ticket", index: i, rec: rec}
		t := model.Ticket{
			ID:              f.str("", "id"),
			Subject:         f.str("", "subject", "summary"),
			Category:        f.str(model.Unknown, "category"),
			Priority:        f.str(model.Unknown, "priority"),
			Status:          f.str(model.Unknown, "status"),
			User:            f.str("", "user"),
			Asset:           f.str("", "asset"),
			AssetType:       f.str("", "asset_type"),
			ResolvedAt:      f.timestamp("resolved_at"),
			ResolutionHours: f.float("resolution_hours"),
			MonthOffset:     f.integer("month_offset"),
		}
		if created := f.timestamp("created_at", "dateoccurred"); created != nil {
			t.CreatedAt = *created
		}
		flag, hasFlag := f.boolean("met_sla", "sla_met")
		if f.err != nil {
			return nil, f.err
		}
		t.MetSLA = TicketMetSLA(t.Priority, t.ResolutionHours, flag, hasFlag)
		out = append(out, t)
	}
	return out, nil
}

// DecodeUsers converts raw user objects. A missing active flag means inactive.
func DecodeUsers(recs []Record) ([]model.User, error) {
	out := make([]model.User, 0, len(recs))
	for i, rec := range recs {
		f := &fields{kind: "user", index: i, rec: rec}
		active, _ := f.boolean("active")
		u := model.User{
			ID:     f.str("", "id"),
			Name:   f.str("", "name"),
			Email:  f.str("", "email", "emailaddress"),
			Active: active,
		}
		if f.err != nil {
			return nil, f.err
		}
		out = append(out, u)
	}
	return out, nil
}

// TicketMetSLA decides whether a ticket met its SLA. Known resolution hours
// are compared with the priority target. Otherwise the upstream flag is used
// when present, and a ticket with neither is counted as missed.
func TicketMetSLA(priority string, resolutionHours *float64, flag, hasFlag bool) bool {
	if resolutionHours != nil {
		return *resolutionHours <= model.SLATargetHours(priority)
	}
	return hasFlag && flag
}
