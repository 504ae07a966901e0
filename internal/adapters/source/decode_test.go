package source_test

import (
	"errors"
	"testing"

	"github.com/okian/clientiq/internal/adapters/source"
	"github.com/okian/clientiq/internal/domain/model"
	"github.com/okian/clientiq/internal/domain/roi"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDecode(t *testing.T) {
	Convey("Given raw asset records", t, func() {
		recs := []source.Record{
			{"id": 17, "name": "SRV-01", "type": "Server", "patchstatus": "Compliant", "antivirusstatus": "Protected", "backup_enabled": "true"},
			{"id": "a-2"},
		}

		assets, err := source.DecodeAssets(recs)

		Convey("Then present fields are coerced", func() {
			So(err, ShouldBeNil)
			So(assets[0].ID, ShouldEqual, "17")
			So(assets[0].Type, ShouldEqual, model.AssetServer)
			So(assets[0].BackupEnabled, ShouldBeTrue)
		})

		Convey("Then missing fields take defaults", func() {
			So(assets[1].Type, ShouldEqual, model.Unknown)
			So(assets[1].PatchStatus, ShouldEqual, model.Unknown)
			So(assets[1].AntivirusStatus, ShouldEqual, model.Unknown)
			So(assets[1].BackupEnabled, ShouldBeFalse)
		})
	})

	Convey("Given a record with an uncoercible field", t, func() {
		recs := []source.Record{
			{"id": "a-1", "backup_enabled": true},
			{"id": "a-2", "backup_enabled": map[string]any{"nested": true}},
		}

		_, err := source.DecodeAssets(recs)

		Convey("Then an InputShapeError names the record and field", func() {
			So(errors.Is(err, source.ErrInputShape), ShouldBeTrue)
			var shape *source.InputShapeError
			So(errors.As(err, &shape), ShouldBeTrue)
			So(shape.Kind, ShouldEqual, "asset")
			So(shape.Index, ShouldEqual, 1)
			So(shape.Field, ShouldEqual, "backup_enabled")
			So(err.Error(), ShouldContainSubstring, "asset[1]")
		})
	})

	Convey("Given raw ticket records", t, func() {
		recs := []source.Record{
			{"id": "t-1", "priority": "High", "resolution_hours": 6.0, "sla_met": false, "created_at": "2025-01-02T10:00:00"},
			{"id": "t-2", "priority": "Critical", "resolution_hours": "9", "met_sla": true},
			{"id": "t-3", "priority": "Low", "resolution_hours": nil, "sla_met": "true"},
			{"id": "t-4"},
		}

		tickets, err := source.DecodeTickets(recs)

		Convey("Then resolution hours decide the SLA when known", func() {
			So(err, ShouldBeNil)
			So(tickets[0].MetSLA, ShouldBeTrue)
			So(tickets[1].MetSLA, ShouldBeFalse)
			So(*tickets[1].ResolutionHours, ShouldEqual, 9)
		})

		Convey("Then the upstream flag is used otherwise", func() {
			So(tickets[2].ResolutionHours, ShouldBeNil)
			So(tickets[2].MetSLA, ShouldBeTrue)
		})

		Convey("Then a ticket with neither counts as missed", func() {
			So(tickets[3].MetSLA, ShouldBeFalse)
			So(tickets[3].Category, ShouldEqual, model.Unknown)
		})

		Convey("Then timestamps are parsed", func() {
			So(tickets[0].CreatedAt.Year(), ShouldEqual, 2025)
			So(tickets[0].CreatedAt.Hour(), ShouldEqual, 10)
		})
	})

	Convey("Given a ticket with a malformed timestamp", t, func() {
		_, err := source.DecodeTickets([]source.Record{{"id": "t-1", "created_at": "yesterday"}})

		Convey("Then decoding fails at the boundary", func() {
			So(errors.Is(err, source.ErrInputShape), ShouldBeTrue)
		})
	})

	Convey("Given raw users and a customer", t, func() {
		users, err := source.DecodeUsers([]source.Record{{"id": 1, "active": 1}, {"id": 2}})
		So(err, ShouldBeNil)
		customer, cerr := source.DecodeCustomer(source.Record{"id": "c-9", "mfa_enforced": "false", "employee_count": "120"})

		Convey("Then a missing active flag means inactive", func() {
			So(users[0].Active, ShouldBeTrue)
			So(users[1].Active, ShouldBeFalse)
		})

		Convey("Then customer fields are coerced", func() {
			So(cerr, ShouldBeNil)
			So(customer.MFAEnforced, ShouldBeFalse)
			So(customer.EmployeeCount, ShouldEqual, 120)
		})
	})

	Convey("Given a customer with a non-numeric employee count", t, func() {
		_, err := source.DecodeCustomer(source.Record{"id": "c-9", "employee_count": "many"})

		Convey("Then the error has no record index", func() {
			var shape *source.InputShapeError
			So(errors.As(err, &shape), ShouldBeTrue)
			So(shape.Index, ShouldEqual, -1)
			So(err.Error(), ShouldContainSubstring, "customer field")
		})
	})
}

func TestDecodeClients(t *testing.T) {
	Convey("Given raw PSA client records", t, func() {
		recs := []source.Record{
			{
				"id": 42, "name": "Springfield Clinic", "website": "springfield.example", "phone": "555-0100",
				"isvip": true, "inactive": false,
				"customfields": []any{map[string]any{"name": "Sector", "value": "Medical Services"}},
			},
			{"id": 43, "inactive": true},
		}

		clients, err := source.DecodeClients(recs)

		Convey("Then ids become strings and metadata is kept", func() {
			So(err, ShouldBeNil)
			So(clients, ShouldHaveLength, 2)
			So(clients[0].ID, ShouldEqual, "42")
			So(clients[0].Industry, ShouldEqual, string(roi.IndustryHealthcare))
			So(clients[0].Metadata.SourceID, ShouldEqual, "42")
			So(clients[0].Metadata.VIP, ShouldBeTrue)
			So(clients[0].Metadata.Status, ShouldEqual, "active")
			So(clients[0].Metadata.Website, ShouldEqual, "springfield.example")
		})

		Convey("Then missing fields fall back", func() {
			So(clients[1].Name, ShouldEqual, model.Unknown)
			So(clients[1].Industry, ShouldEqual, string(roi.IndustryGovernment))
			So(clients[1].Metadata.Status, ShouldEqual, "inactive")
		})
	})

	Convey("Given a client with a malformed VIP flag", t, func() {
		_, err := source.DecodeClients([]source.Record{{"id": 1, "isvip": "sometimes"}})

		Convey("Then the shape error names the client", func() {
			So(errors.Is(err, source.ErrInputShape), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "client[0]")
		})
	})
}

func TestMapIndustry(t *testing.T) {
	field := func(name, value string) map[string]any {
		return map[string]any{"name": name, "value": value}
	}

	Convey("Given industry custom fields", t, func() {
		cases := []struct {
			fields []any
			want   roi.Industry
		}{
			{[]any{field("Industry", "Public Sector")}, roi.IndustryGovernment},
			{[]any{field("industry", "Local Charity")}, roi.IndustryNonprofit},
			{[]any{field("VERTICAL", "Industrial equipment")}, roi.IndustryManufacturing},
			{[]any{field("sector", "Community Bank")}, roi.IndustryFinancial},
			{[]any{field("sector", "Healthcare")}, roi.IndustryHealthcare},
			{[]any{field("sector", "Retail"), field("industry", "Banking")}, roi.IndustryFinancial},
			{[]any{field("region", "Medical district")}, roi.IndustryGovernment},
			{[]any{"not a map", field("industry", "nonprofit")}, roi.IndustryNonprofit},
		}
		for _, c := range cases {
			So(source.MapIndustry(c.fields), ShouldEqual, c.want)
		}
	})

	Convey("Given no usable custom fields", t, func() {
		So(source.MapIndustry(nil), ShouldEqual, roi.IndustryGovernment)
		So(source.MapIndustry("industry"), ShouldEqual, roi.IndustryGovernment)
		So(source.MapIndustry([]any{}), ShouldEqual, roi.IndustryGovernment)
	})
}

func TestTicketMetSLA(t *testing.T) {
	Convey("Given the SLA decision", t, func() {
		h := func(v float64) *float64 { return &v }

		Convey("Then each priority has its own target", func() {
			So(source.TicketMetSLA(model.PriorityCritical, h(4), false, false), ShouldBeTrue)
			So(source.TicketMetSLA(model.PriorityCritical, h(4.5), true, true), ShouldBeFalse)
			So(source.TicketMetSLA(model.PriorityHigh, h(8), false, false), ShouldBeTrue)
			So(source.TicketMetSLA(model.PriorityNormal, h(24), false, false), ShouldBeTrue)
			So(source.TicketMetSLA(model.PriorityLow, h(48), false, false), ShouldBeTrue)
			So(source.TicketMetSLA("Whatever", h(25), true, true), ShouldBeFalse)
		})
	})
}
