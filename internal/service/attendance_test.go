package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shepherd-church/shepherd/internal/models"
)

type attendanceFixture struct {
	members    *MemberService
	events     *EventService
	attendance *AttendanceService
	admin      *models.User
	event      *models.Event
	member     *models.Member
}

func newAttendanceFixture(t *testing.T) *attendanceFixture {
	t.Helper()
	db := testDB(t)
	f := &attendanceFixture{
		members: NewMemberService(db),
		events:  NewEventService(db),
		admin:   createTestUser(t, db, "usher", models.RoleUser),
	}
	f.attendance = NewAttendanceService(db, f.members)
	f.attendance.now = fixedClock

	ev, err := f.events.Create(EventInput{Title: "Sunday Service", StartsAt: testNow}, f.admin.ID)
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	f.event = ev
	f.member = createTestMember(t, f.members, "M1", "Dorcas", "Joppa", f.admin)
	return f
}

func TestRecordMemberAttendance(t *testing.T) {
	f := newAttendanceFixture(t)

	rec, err := f.attendance.Record(AttendanceInput{EventID: f.event.ID, MemberID: &f.member.ID}, f.admin.ID)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if rec.Method != models.AttendanceManual {
		t.Errorf("expected default method manual, got %s", rec.Method)
	}
	if !rec.RecordedAt.Equal(testNow) {
		t.Errorf("expected recorded_at from clock, got %s", rec.RecordedAt)
	}

	_, err = f.attendance.Record(AttendanceInput{EventID: f.event.ID, MemberID: &f.member.ID}, f.admin.ID)
	assertConflict(t, err)
}

func TestRecordVisitorAttendance(t *testing.T) {
	f := newAttendanceFixture(t)

	rec, err := f.attendance.Record(AttendanceInput{
		EventID:          f.event.ID,
		VisitorFirstName: "cornelius",
		VisitorLastName:  "caesarea",
	}, f.admin.ID)
	if err != nil {
		t.Fatalf("Record visitor: %v", err)
	}
	if rec.Method != models.AttendanceVisitor || !rec.IsVisitor() {
		t.Errorf("expected visitor record, got %+v", rec)
	}
	if rec.VisitorFirstName != "Cornelius" {
		t.Errorf("expected normalised visitor name, got %q", rec.VisitorFirstName)
	}
}

func TestRecordAttendanceInvariants(t *testing.T) {
	f := newAttendanceFixture(t)
	missing := uuid.New()

	tests := []struct {
		name  string
		input AttendanceInput
	}{
		{"member and visitor", AttendanceInput{EventID: f.event.ID, MemberID: &f.member.ID, VisitorFirstName: "A", VisitorLastName: "B"}},
		{"neither", AttendanceInput{EventID: f.event.ID}},
		{"visitor method with member", AttendanceInput{EventID: f.event.ID, MemberID: &f.member.ID, Method: models.AttendanceVisitor}},
		{"visitor missing last name", AttendanceInput{EventID: f.event.ID, VisitorFirstName: "A"}},
		{"qr without member", AttendanceInput{EventID: f.event.ID, VisitorFirstName: "A", VisitorLastName: "B", Method: models.AttendanceQRCode}},
		{"unknown method", AttendanceInput{EventID: f.event.ID, MemberID: &f.member.ID, Method: "telepathy"}},
		{"missing event", AttendanceInput{MemberID: &f.member.ID}},
		{"unknown event", AttendanceInput{EventID: uuid.New(), MemberID: &f.member.ID}},
		{"unknown member", AttendanceInput{EventID: f.event.ID, MemberID: &missing}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.attendance.Record(tt.input, f.admin.ID)
			assertValidation(t, err)
		})
	}
}

func TestRecordAttendanceInactiveMember(t *testing.T) {
	f := newAttendanceFixture(t)
	if _, err := f.members.Deactivate(f.member.ID.String(), f.admin.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	_, err := f.attendance.Record(AttendanceInput{EventID: f.event.ID, MemberID: &f.member.ID}, f.admin.ID)
	assertValidation(t, err)
}

func TestRecordByQR(t *testing.T) {
	f := newAttendanceFixture(t)

	rec, err := f.attendance.RecordByQR(f.event.ID, QRPayload(f.member.MemberCode), f.admin.ID)
	if err != nil {
		t.Fatalf("RecordByQR: %v", err)
	}
	if rec.Method != models.AttendanceQRCode || rec.MemberID == nil || *rec.MemberID != f.member.ID {
		t.Errorf("unexpected record %+v", rec)
	}

	_, err = f.attendance.RecordByQR(f.event.ID, "https://example.org", f.admin.ID)
	assertValidation(t, err)
	_, err = f.attendance.RecordByQR(f.event.ID, QRPayload("NOPE"), f.admin.ID)
	assertValidation(t, err)
}

func TestParseQRPayload(t *testing.T) {
	code, err := ParseQRPayload(" shepherd:member:M42\n")
	if err != nil || code != "M42" {
		t.Errorf("got %q, %v", code, err)
	}
	if _, err := ParseQRPayload("shepherd:member:"); err == nil {
		t.Error("expected error for empty code")
	}
}

func TestAttendanceListAndDelete(t *testing.T) {
	f := newAttendanceFixture(t)
	rec, _ := f.attendance.Record(AttendanceInput{EventID: f.event.ID, MemberID: &f.member.ID}, f.admin.ID)
	f.attendance.Record(AttendanceInput{EventID: f.event.ID, VisitorFirstName: "Lydia", VisitorLastName: "Purple"}, f.admin.ID)

	all, err := f.attendance.List(AttendanceFilter{EventID: &f.event.ID})
	if err != nil || len(all) != 2 {
		t.Fatalf("expected 2 records, got %d (%v)", len(all), err)
	}
	if all[0].Event == nil {
		t.Error("expected event to be preloaded")
	}

	mine, _ := f.attendance.List(AttendanceFilter{MemberID: &f.member.ID})
	if len(mine) != 1 || mine[0].Member == nil {
		t.Fatalf("expected one member record with member loaded, got %+v", mine)
	}

	if err := f.attendance.Delete(rec.ID.String(), f.admin.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := f.attendance.Delete(rec.ID.String(), f.admin.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEventValidationAndDelete(t *testing.T) {
	f := newAttendanceFixture(t)

	before := testNow.Add(-time.Hour)
	_, err := f.events.Create(EventInput{Title: "Backwards", StartsAt: testNow, EndsAt: &before}, f.admin.ID)
	assertValidation(t, err)
	_, err = f.events.Create(EventInput{StartsAt: testNow}, f.admin.ID)
	assertValidation(t, err)

	f.attendance.Record(AttendanceInput{EventID: f.event.ID, MemberID: &f.member.ID}, f.admin.ID)
	if err := f.events.Delete(f.event.ID.String(), f.admin.ID); err != nil {
		t.Fatalf("Delete event: %v", err)
	}
	left, _ := f.attendance.List(AttendanceFilter{EventID: &f.event.ID})
	if len(left) != 0 {
		t.Errorf("expected attendance to go with the event, %d left", len(left))
	}
}

func TestEventListAndUpcoming(t *testing.T) {
	f := newAttendanceFixture(t)
	f.events.Create(EventInput{Title: "Next Week", StartsAt: testNow.AddDate(0, 0, 7)}, f.admin.ID)
	f.events.Create(EventInput{Title: "Last Month", StartsAt: testNow.AddDate(0, -1, 0)}, f.admin.ID)

	all, err := f.events.List(EventFilter{})
	if err != nil || len(all) != 3 {
		t.Fatalf("expected 3 events, got %d (%v)", len(all), err)
	}
	if all[0].Title != "Next Week" {
		t.Errorf("expected newest first, got %s", all[0].Title)
	}

	ranged, _ := f.events.List(EventFilter{From: testNow.AddDate(0, 0, -1), To: testNow.AddDate(0, 0, 1)})
	if len(ranged) != 1 || ranged[0].ID != f.event.ID {
		t.Errorf("unexpected ranged listing %+v", ranged)
	}

	upcoming, _ := f.events.Upcoming(testNow, 5)
	if len(upcoming) != 1 || upcoming[0].Title != "Next Week" {
		t.Errorf("unexpected upcoming %+v", upcoming)
	}

	updated, err := f.events.Update(f.event.ID.String(), EventInput{Title: "Palm Sunday", StartsAt: testNow, IsSpecial: true}, f.admin.ID)
	if err != nil || !updated.IsSpecial || updated.Title != "Palm Sunday" {
		t.Errorf("Update returned %+v (%v)", updated, err)
	}
}
