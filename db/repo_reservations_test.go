package db

import (
	"errors"
	"testing"
	"time"

	"Gin_postgres_redis_inventory_tool/apperr"
	"Gin_postgres_redis_inventory_tool/models"
)

func window(from, to time.Duration) models.ReservationInput {
	return models.ReservationInput{StartAt: testNow.Add(from), EndAt: testNow.Add(to)}
}

func TestCreateReservationOverlap(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	d := f.device(t, "INV-0001")

	first, err := f.repo.CreateReservation(ctx, f.viewer, d.ID, window(time.Hour, 3*time.Hour))
	if err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}
	if first.Status != models.ReservationActive || first.Expired {
		t.Fatalf("reservation = %+v", first)
	}

	cases := []struct {
		name string
		in   models.ReservationInput
		kind apperr.Kind
		ok   bool
	}{
		{"overlapping start", window(2*time.Hour, 4*time.Hour), apperr.Conflict, false},
		{"enclosing", window(0, 5*time.Hour), apperr.Conflict, false},
		{"adjacent after", window(3*time.Hour, 4*time.Hour), 0, true},
		{"inverted", window(5*time.Hour, 4*time.Hour), apperr.Invalid, false},
		{"in the past", window(-3*time.Hour, -time.Hour), apperr.Invalid, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.repo.CreateReservation(ctx, f.other, d.ID, tc.in)
			if tc.ok {
				if err != nil {
					t.Fatalf("err = %v", err)
				}
				return
			}
			if !apperr.Is(err, tc.kind) {
				t.Fatalf("err = %v, want %s", err, tc.kind)
			}
		})
	}

	if _, err := f.repo.CreateReservation(ctx, f.viewer, 4242, window(time.Hour, 2*time.Hour)); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("missing device: err = %v", err)
	}
}

func TestConcurrentOverlappingReservations(t *testing.T) {
	f := newContendedFixture(t)
	ctx := t.Context()
	d := f.device(t, "INV-0001")

	// staggered windows that all overlap the first hour
	errs := runConcurrently(contenders, func(i int) error {
		from := time.Hour + time.Duration(i)*time.Minute
		_, err := f.repo.CreateReservation(ctx, f.viewer, d.ID, window(from, from+2*time.Hour))
		return err
	})
	assertOneWinner(t, errs)

	var active int64
	f.db.Model(&models.Reservation{}).Where("device_id = ? AND status = ?", d.ID, models.ReservationActive).Count(&active)
	if active != 1 {
		t.Fatalf("%d active reservations", active)
	}
}

func TestCancelReservation(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	d := f.device(t, "INV-0001")

	r, _ := f.repo.CreateReservation(ctx, f.viewer, d.ID, window(time.Hour, 2*time.Hour))
	if _, err := f.repo.CancelReservation(ctx, f.other, r.ID); !apperr.Is(err, apperr.Forbidden) {
		t.Fatalf("cancel by other viewer: err = %v", err)
	}
	got, err := f.repo.CancelReservation(ctx, f.editor, r.ID)
	if err != nil {
		t.Fatalf("cancel by editor: %v", err)
	}
	if got.Status != models.ReservationCancelled || got.CancelledBy == nil || *got.CancelledBy != f.editor.UserID {
		t.Fatalf("cancelled = %+v", got)
	}
	if _, err := f.repo.CancelReservation(ctx, f.viewer, r.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second cancel: err = %v", err)
	}

	// a cancelled window is free again
	r2, err := f.repo.CreateReservation(ctx, f.other, d.ID, window(time.Hour, 2*time.Hour))
	if err != nil {
		t.Fatalf("rebook: %v", err)
	}

	f.clock = testNow.Add(2 * time.Hour)
	if _, err := f.repo.CancelReservation(ctx, f.other, r2.ID); !apperr.Is(err, apperr.Conflict) {
		t.Fatalf("cancel elapsed: err = %v", err)
	}
	got, err = f.repo.FindReservation(ctx, f.other, r2.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.ReservationActive || !got.Expired {
		t.Fatalf("elapsed reservation = %+v, want active and expired", got)
	}

	current, err := f.repo.ListReservations(ctx, ReservationFilter{DeviceID: &d.ID, Current: true})
	if err != nil || len(current) != 0 {
		t.Fatalf("current = %v %+v", err, current)
	}
	all, _ := f.repo.ListReservations(ctx, ReservationFilter{DeviceID: &d.ID})
	if len(all) != 2 {
		t.Fatalf("all = %d", len(all))
	}
}
