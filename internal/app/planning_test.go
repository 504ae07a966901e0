package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/clientiq/internal/adapters/repository"
	"github.com/okian/clientiq/internal/adapters/source"
	service "github.com/okian/clientiq/internal/app"
	"github.com/okian/clientiq/internal/domain/model"
	"github.com/okian/clientiq/internal/domain/planning"
	"github.com/okian/clientiq/internal/domain/review"
	"github.com/okian/clientiq/internal/domain/roi"

	. "github.com/smartystreets/goconvey/convey"
)

func ptr[T any](v T) *T { return &v }

func TestService_Goals(t *testing.T) {
	Convey("Given a service with a store", t, func() {
		ctx := context.Background()
		st := openStore(t)
		now := fixedNow
		svc := service.New(&fakeSource{}, st, service.WithClock(func() time.Time { return now }))

		Convey("When a goal is created", func() {
			g, err := svc.CreateGoal(ctx, "c-1", planning.Goal{ID: "ignored", Title: "  Pass the audit  "})
			So(err, ShouldBeNil)

			Convey("Then defaults and a fresh id are applied", func() {
				So(g.ID, ShouldNotEqual, "ignored")
				So(g.ID, ShouldHaveLength, 36)
				So(g.CustomerID, ShouldEqual, "c-1")
				So(g.Title, ShouldEqual, "Pass the audit")
				So(g.Priority, ShouldEqual, planning.PriorityMedium)
				So(g.Status, ShouldEqual, planning.GoalNotStarted)
				So(g.CreatedAt.Equal(fixedNow), ShouldBeTrue)
			})

			Convey("Then a partial update keeps the other fields", func() {
				now = fixedNow.Add(time.Hour)
				updated, err := svc.UpdateGoal(ctx, "c-1", g.ID, planning.GoalPatch{
					Status:             ptr(planning.GoalInProgress),
					ProgressPercentage: ptr(60),
				})
				So(err, ShouldBeNil)
				So(updated.Title, ShouldEqual, "Pass the audit")
				So(updated.ProgressPercentage, ShouldEqual, 60)
				So(updated.UpdatedAt.Equal(now), ShouldBeTrue)

				stored, err := svc.Goal(ctx, "c-1", g.ID)
				So(err, ShouldBeNil)
				So(stored.Status, ShouldEqual, planning.GoalInProgress)
			})

			Convey("Then an out of range progress is rejected", func() {
				_, err := svc.UpdateGoal(ctx, "c-1", g.ID, planning.GoalPatch{ProgressPercentage: ptr(120)})
				So(errors.Is(err, planning.ErrInvalid), ShouldBeTrue)
			})

			Convey("Then another customer cannot see it", func() {
				_, err := svc.Goal(ctx, "c-2", g.ID)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				goals, err := svc.Goals(ctx, "c-2")
				So(err, ShouldBeNil)
				So(goals, ShouldBeEmpty)
			})

			Convey("Then deleting it empties the list", func() {
				So(svc.DeleteGoal(ctx, "c-1", g.ID), ShouldBeNil)
				goals, err := svc.Goals(ctx, "c-1")
				So(err, ShouldBeNil)
				So(goals, ShouldBeEmpty)
			})
		})

		Convey("When a goal has no title", func() {
			_, err := svc.CreateGoal(ctx, "c-1", planning.Goal{Title: " "})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, planning.ErrInvalid), ShouldBeTrue)
			})
		})
	})

	Convey("Given a service without a store", t, func() {
		svc := service.New(&fakeSource{}, nil)

		Convey("Then planning calls fail", func() {
			_, err := svc.Goals(context.Background(), "c-1")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})
}

func TestService_ActionItems(t *testing.T) {
	Convey("Given a service with a store", t, func() {
		ctx := context.Background()
		st := openStore(t)
		svc := service.New(&fakeSource{}, st, service.WithClock(func() time.Time { return fixedNow }))
		due := fixedNow.AddDate(0, 0, 14)

		item, err := svc.CreateActionItem(ctx, "c-1", planning.ActionItem{
			Title: "Enable MFA", Status: planning.ItemCompleted, MeetingID: "m-1", DueDate: &due,
		})
		So(err, ShouldBeNil)

		Convey("When an item is created", func() {
			Convey("Then it starts open regardless of the request", func() {
				So(item.Status, ShouldEqual, planning.ItemOpen)
				So(item.CompletedDate, ShouldBeNil)
				So(item.DueDate.Equal(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
			})
		})

		Convey("When the item is completed", func() {
			done, err := svc.UpdateActionItem(ctx, "c-1", item.ID, planning.ActionItemPatch{Status: ptr("Completed")})

			Convey("Then the completion date is stamped", func() {
				So(err, ShouldBeNil)
				So(done.Status, ShouldEqual, planning.ItemCompleted)
				So(done.CompletedDate, ShouldNotBeNil)
				So(done.CompletedDate.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
			})

			Convey("Then filtering by status finds it", func() {
				open, err := svc.ActionItems(ctx, "c-1", planning.ItemOpen)
				So(err, ShouldBeNil)
				So(open, ShouldBeEmpty)
				completed, err := svc.ActionItems(ctx, "c-1", "completed")
				So(err, ShouldBeNil)
				So(completed, ShouldHaveLength, 1)
			})
		})

		Convey("When the status filter is unknown", func() {
			_, err := svc.ActionItems(ctx, "c-1", "archived")

			Convey("Then it is rejected", func() {
				So(errors.Is(err, planning.ErrInvalid), ShouldBeTrue)
			})
		})

		Convey("When another customer updates the item", func() {
			_, err := svc.UpdateActionItem(ctx, "c-2", item.ID, planning.ActionItemPatch{Title: ptr("x")})

			Convey("Then it is not found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_ImportCustomers(t *testing.T) {
	Convey("Given a synthetic source and a store", t, func() {
		ctx := context.Background()
		st := openStore(t)
		svc := service.New(source.NewSynthetic(source.WithSeed(3)), st, service.WithClock(func() time.Time { return fixedNow }))

		Convey("When the roster is imported twice", func() {
			first, err := svc.ImportCustomers(ctx)
			So(err, ShouldBeNil)
			second, err := svc.ImportCustomers(ctx)
			So(err, ShouldBeNil)

			Convey("Then the first adds and the second updates", func() {
				So(first, ShouldResemble, service.ImportResult{Added: 5})
				So(second, ShouldResemble, service.ImportResult{Updated: 5})

				all, err := svc.Customers(ctx)
				So(err, ShouldBeNil)
				So(all, ShouldHaveLength, 5)
			})
		})
	})

	Convey("Given a source without a roster", t, func() {
		svc := service.New(&fakeSource{}, openStore(t))

		Convey("Then import is unsupported", func() {
			_, err := svc.ImportCustomers(context.Background())
			So(errors.Is(err, service.ErrImportUnsupported), ShouldBeTrue)
		})
	})

	Convey("Given an imported customer with an industry", t, func() {
		ctx := context.Background()
		st := openStore(t)
		_, err := st.SaveCustomer(ctx, model.Customer{ID: "c-1", Name: "Acme", Industry: "financial"}, fixedNow)
		So(err, ShouldBeNil)
		svc := service.New(&fakeSource{}, st, service.WithClock(func() time.Time { return fixedNow }))

		Convey("When the source has no industry for it", func() {
			r, err := svc.GenerateReview(ctx, review.Request{CustomerID: "c-1"})

			Convey("Then the roster industry is used", func() {
				So(err, ShouldBeNil)
				So(r.Industry, ShouldEqual, roi.IndustryFinancial)
			})
		})
	})
}
