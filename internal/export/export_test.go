package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/shepherd-church/shepherd/internal/models"
	"github.com/shepherd-church/shepherd/internal/stats"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteDonations(t *testing.T) {
	memberID := uuid.New()
	member := &models.Member{ID: memberID, MemberCode: "M001", FirstName: "Ruth", LastName: "Moab"}
	day := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	donations := []models.Donation{
		{Amount: decimal.RequireFromString("50.00"), Type: models.DonationTithe, MemberID: &memberID, Member: member, DonationDate: day},
		// A leaked member id on an anonymous gift must not reveal the donor.
		{Amount: decimal.RequireFromString("20.00"), Type: models.DonationOffering, IsAnonymous: true, MemberID: &memberID, Member: member, DonationDate: day},
	}
	summary := stats.ComputeDonationBreakdown(donations, day.AddDate(0, 0, -1), day.AddDate(0, 0, 1))

	var buf bytes.Buffer
	require.NoError(t, WriteDonations(&buf, donations, summary))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetDonations)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Date", "Type", "Amount", "Donor", "Member Code", "Note"}, rows[0])
	assert.Equal(t, "Ruth Moab", rows[1][3])
	assert.Equal(t, "M001", rows[1][4])
	assert.Equal(t, "Anonymous", rows[2][3])
	if len(rows[2]) > 4 {
		assert.Empty(t, rows[2][4])
	}

	totals, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, "tithe", totals[1][0])
	assert.Equal(t, "offering", totals[2][0])
	assert.Equal(t, "Total", totals[3][0])
	assert.Equal(t, "70", totals[3][2])
}

func TestWriteAttendance(t *testing.T) {
	event := &models.Event{Title: "Sunday Service", StartsAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	member := &models.Member{MemberCode: "M002", FirstName: "Boaz", LastName: "Bethlehem"}
	records := []models.Attendance{
		{Event: event, Member: member, Method: models.AttendanceQRCode},
		{Event: event, VisitorFirstName: "Naomi", VisitorLastName: "Elimelech", Method: models.AttendanceVisitor},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAttendance(&buf, records))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetAttendance)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Sunday Service", rows[1][0])
	assert.Equal(t, "2026-03-01", rows[1][1])
	assert.Equal(t, "Boaz Bethlehem", rows[1][2])
	assert.Equal(t, "qr_code", rows[1][4])
	assert.Equal(t, "Naomi Elimelech", rows[2][2])
}

func TestCalendar(t *testing.T) {
	start := time.Date(2026, 4, 5, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	events := []models.Event{
		{ID: uuid.New(), Title: "Easter Service", StartsAt: start, EndsAt: &end, Location: "Main Hall", IsSpecial: true},
		{ID: uuid.New(), Title: "Bible Study", StartsAt: start.AddDate(0, 0, 3)},
	}

	out := Calendar("Grace Chapel", events, start)
	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR"))

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, cal.Events(), 2)

	first := cal.Events()[0]
	assert.Equal(t, events[0].ID.String()+"@shepherd", first.Id())
	assert.Equal(t, "Easter Service", first.GetProperty(ics.ComponentPropertySummary).Value)
	assert.Equal(t, "Main Hall", first.GetProperty(ics.ComponentPropertyLocation).Value)

	second := cal.Events()[1]
	gotEnd, err := second.GetEndAt()
	require.NoError(t, err)
	assert.True(t, gotEnd.Equal(events[1].StartsAt.Add(defaultEventLength)))
}
