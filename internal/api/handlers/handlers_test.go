package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shepherd-church/shepherd/internal/access"
	"github.com/shepherd-church/shepherd/internal/auth"
	"github.com/shepherd-church/shepherd/internal/db"
	"github.com/shepherd-church/shepherd/internal/export"
	"github.com/shepherd-church/shepherd/internal/logstream"
	"github.com/shepherd-church/shepherd/internal/models"
	"github.com/shepherd-church/shepherd/internal/queue"
	"github.com/shepherd-church/shepherd/internal/service"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "handlers.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func createUser(t *testing.T, database *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@test.com", PasswordHash: "x", Role: role}
	if err := database.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

// newTestRouter returns an engine whose requests run as user.
func newTestRouter(user *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(auth.UserContextKey, user)
		c.Next()
	})
	return r
}

func doJSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error body %q: %v", w.Body.String(), err)
	}
	return resp.Error
}

func memberRoutes(database *gorm.DB, user *models.User) *gin.Engine {
	h := NewMemberHandler(service.NewMemberService(database))
	r := newTestRouter(user)
	r.GET("/members", h.ListMembers)
	r.POST("/members", h.CreateMember)
	r.GET("/members/:id", h.GetMember)
	r.PUT("/members/:id", h.UpdateMember)
	r.POST("/members/:id/deactivate", h.DeactivateMember)
	r.DELETE("/members/:id", h.DeleteMember)
	r.GET("/members/:id/attendance-history", h.AttendanceHistory)
	r.GET("/members/:id/qrcode", h.QRCode)
	return r
}

func TestMemberHandler_CreateAndFetch(t *testing.T) {
	database := setupTestDB(t)
	admin := createUser(t, database, "admin", models.RoleAdmin)
	r := memberRoutes(database, admin)

	w := doJSON(r, http.MethodPost, "/members", map[string]string{
		"member_code": "m001",
		"first_name":  "ruth",
		"last_name":   "moabite",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created models.Member
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode member: %v", err)
	}
	if created.MemberCode != "M001" || created.FirstName != "Ruth" {
		t.Errorf("expected normalised member, got %+v", created)
	}

	w = doJSON(r, http.MethodPost, "/members", map[string]string{
		"member_code": "M001",
		"first_name":  "Naomi",
		"last_name":   "Moabite",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate code, got %d", w.Code)
	}

	w = doJSON(r, http.MethodGet, "/members/"+created.ID.String(), nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	w = doJSON(r, http.MethodGet, "/members/not-a-uuid", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for malformed id, got %d", w.Code)
	}
}

func TestMemberHandler_CreateRejectsMissingFields(t *testing.T) {
	database := setupTestDB(t)
	admin := createUser(t, database, "admin", models.RoleAdmin)
	r := memberRoutes(database, admin)

	w := doJSON(r, http.MethodPost, "/members", map[string]string{"member_code": "M1"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if msg := decodeError(t, w); !strings.Contains(msg, "first_name") {
		t.Errorf("expected error to name first_name, got %q", msg)
	}
}

func TestMemberHandler_QRCode(t *testing.T) {
	database := setupTestDB(t)
	admin := createUser(t, database, "admin", models.RoleAdmin)
	member, err := service.NewMemberService(database).Create(service.MemberInput{
		MemberCode: "M7", FirstName: "Lydia", LastName: "Thyatira",
	}, admin.ID)
	if err != nil {
		t.Fatalf("failed to create member: %v", err)
	}
	r := memberRoutes(database, admin)

	w := doJSON(r, http.MethodGet, "/members/"+member.ID.String()+"/qrcode", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("expected PNG signature")
	}
}

func TestMemberHandler_DeleteSoftAndPermanent(t *testing.T) {
	database := setupTestDB(t)
	admin := createUser(t, database, "admin", models.RoleAdmin)
	svc := service.NewMemberService(database)
	soft, _ := svc.Create(service.MemberInput{MemberCode: "S1", FirstName: "Soft", LastName: "Delete"}, admin.ID)
	hard, _ := svc.Create(service.MemberInput{MemberCode: "H1", FirstName: "Hard", LastName: "Delete"}, admin.ID)
	r := memberRoutes(database, admin)

	if w := doJSON(r, http.MethodDelete, "/members/"+soft.ID.String(), nil); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodDelete, "/members/"+hard.ID.String()+"?permanent=true", nil); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	var softCount, hardCount int64
	database.Unscoped().Model(&models.Member{}).Where("id = ?", soft.ID).Count(&softCount)
	database.Unscoped().Model(&models.Member{}).Where("id = ?", hard.ID).Count(&hardCount)
	if softCount != 1 {
		t.Errorf("expected soft-deleted row to remain, got %d", softCount)
	}
	if hardCount != 0 {
		t.Errorf("expected purged row to be gone, got %d", hardCount)
	}
}

func TestAttendanceHandler_QRCheckIn(t *testing.T) {
	database := setupTestDB(t)
	staff := createUser(t, database, "usher", models.RoleUser)
	members := service.NewMemberService(database)
	member, _ := members.Create(service.MemberInput{MemberCode: "Q1", FirstName: "Anna", LastName: "Asher"}, staff.ID)
	event, err := service.NewEventService(database).Create(service.EventInput{
		Title: "Sunday Service", StartsAt: time.Now().Add(-time.Hour),
	}, staff.ID)
	if err != nil {
		t.Fatalf("failed to create event: %v", err)
	}

	h := NewAttendanceHandler(service.NewAttendanceService(database, members))
	r := newTestRouter(staff)
	r.POST("/attendance/qr", h.RecordQRAttendance)
	r.GET("/attendance", h.ListAttendance)

	body := map[string]string{"event_id": event.ID.String(), "payload": service.QRPayload(member.MemberCode)}
	if w := doJSON(r, http.MethodPost, "/attendance/qr", body); w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if w := doJSON(r, http.MethodPost, "/attendance/qr", body); w.Code != http.StatusConflict {
		t.Errorf("expected 409 for repeat check-in, got %d", w.Code)
	}

	w := doJSON(r, http.MethodGet, "/attendance?event_id="+event.ID.String(), nil)
	var records []models.Attendance
	json.Unmarshal(w.Body.Bytes(), &records)
	if len(records) != 1 {
		t.Errorf("expected 1 record, got %d", len(records))
	}

	if w := doJSON(r, http.MethodGet, "/attendance?event_id=bogus", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed event_id, got %d", w.Code)
	}
}

func TestEventHandler_Calendar(t *testing.T) {
	database := setupTestDB(t)
	admin := createUser(t, database, "admin", models.RoleAdmin)
	if err := db.PutSetting(database, models.SettingChurchName, "Grace Chapel"); err != nil {
		t.Fatalf("failed to store church name: %v", err)
	}
	svc := service.NewEventService(database)
	if _, err := svc.Create(service.EventInput{Title: "Easter Service", StartsAt: time.Now().Add(48 * time.Hour)}, admin.ID); err != nil {
		t.Fatalf("failed to create event: %v", err)
	}

	h := NewEventHandler(svc, database)
	r := newTestRouter(admin)
	r.GET("/events/calendar.ics", h.Calendar)

	w := doJSON(r, http.MethodGet, "/events/calendar.ics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != export.ContentTypeCalendar {
		t.Errorf("expected calendar content type, got %q", ct)
	}
	body := w.Body.String()
	for _, want := range []string{"BEGIN:VCALENDAR", "Easter Service", "Grace Chapel"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected calendar to contain %q", want)
		}
	}
}

func TestEventHandler_RejectsBadDateFilter(t *testing.T) {
	database := setupTestDB(t)
	admin := createUser(t, database, "admin", models.RoleAdmin)
	h := NewEventHandler(service.NewEventService(database), database)
	r := newTestRouter(admin)
	r.GET("/events", h.ListEvents)

	if w := doJSON(r, http.MethodGet, "/events?from=yesterday", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func donationRoutes(database *gorm.DB, user *models.User) *gin.Engine {
	h := NewDonationHandler(service.NewDonationService(database), database)
	r := newTestRouter(user)
	r.POST("/donations", h.CreateDonation)
	r.GET("/donations/breakdown", h.Breakdown)
	r.GET("/donations/export", h.ExportDonations)
	return r
}

func TestDonationHandler_Breakdown(t *testing.T) {
	database := setupTestDB(t)
	admin := createUser(t, database, "admin", models.RoleAdmin)
	r := donationRoutes(database, admin)

	for _, d := range []map[string]interface{}{
		{"amount": "100.00", "donation_type": "tithe", "is_anonymous": true},
		{"amount": "25.50", "donation_type": "offering", "is_anonymous": true},
	} {
		if w := doJSON(r, http.MethodPost, "/donations", d); w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
		}
	}

	w := doJSON(r, http.MethodGet, "/donations/breakdown?range=7d", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var summary struct {
		Total string `json:"total"`
		Count int    `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatalf("failed to decode summary: %v", err)
	}
	if summary.Count != 2 || summary.Total != "125.5" {
		t.Errorf("expected 2 donations totalling 125.5, got %d / %s", summary.Count, summary.Total)
	}

	if w := doJSON(r, http.MethodGet, "/donations/breakdown?range=1y", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown range, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodGet, "/donations/breakdown?start=2026-01-01", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for start without end, got %d", w.Code)
	}
}

func TestDonationHandler_RejectsNonPositiveAmount(t *testing.T) {
	database := setupTestDB(t)
	admin := createUser(t, database, "admin", models.RoleAdmin)
	r := donationRoutes(database, admin)

	w := doJSON(r, http.MethodPost, "/donations", map[string]interface{}{"amount": "0", "is_anonymous": true})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestDonationHandler_ExportIsAudited(t *testing.T) {
	database := setupTestDB(t)
	admin := createUser(t, database, "admin", models.RoleAdmin)
	r := donationRoutes(database, admin)

	doJSON(r, http.MethodPost, "/donations", map[string]interface{}{"amount": "40", "is_anonymous": true})

	w := doJSON(r, http.MethodGet, "/donations/export?range=30d", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != export.ContentTypeXLSX {
		t.Errorf("expected xlsx content type, got %q", ct)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), ".xlsx") {
		t.Errorf("expected xlsx attachment, got %q", w.Header().Get("Content-Disposition"))
	}

	var n int64
	database.Model(&models.AuditLog{}).Where("action = ?", "export_donations").Count(&n)
	if n != 1 {
		t.Errorf("expected 1 export audit entry, got %d", n)
	}
}

func TestForumHandler_OnlyAuthorOrAdminEdits(t *testing.T) {
	database := setupTestDB(t)
	author := createUser(t, database, "author", models.RoleMember)
	other := createUser(t, database, "other", models.RoleMember)
	admin := createUser(t, database, "admin", models.RoleAdmin)
	svc := service.NewForumService(database)
	post, err := svc.CreatePost(service.PostInput{Title: "Prayer requests", Body: "Share here"}, author)
	if err != nil {
		t.Fatalf("failed to create post: %v", err)
	}

	routes := func(user *models.User) *gin.Engine {
		h := NewForumHandler(svc)
		r := newTestRouter(user)
		r.PUT("/forum/posts/:id", h.UpdatePost)
		r.DELETE("/forum/posts/:id", h.DeletePost)
		return r
	}
	update := map[string]string{"title": "Edited", "body": "Edited body"}

	if w := doJSON(routes(other), http.MethodPut, "/forum/posts/"+post.ID.String(), update); w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for another member, got %d", w.Code)
	}
	if w := doJSON(routes(author), http.MethodPut, "/forum/posts/"+post.ID.String(), update); w.Code != http.StatusOK {
		t.Errorf("expected 200 for the author, got %d", w.Code)
	}
	if w := doJSON(routes(admin), http.MethodDelete, "/forum/posts/"+post.ID.String(), nil); w.Code != http.StatusNoContent {
		t.Errorf("expected 204 for an admin, got %d", w.Code)
	}
}

func TestReportHandler_RequestAndDownloadPending(t *testing.T) {
	database := setupTestDB(t)
	admin := createUser(t, database, "admin", models.RoleAdmin)
	q := queue.NewMemoryQueue(10)
	defer q.Close()

	h := NewReportHandler(service.NewReportService(database, q), nil)
	r := newTestRouter(admin)
	r.POST("/reports", h.RequestReport)
	r.GET("/reports/:id/download", h.DownloadReport)

	w := doJSON(r, http.MethodPost, "/reports", map[string]string{
		"type":         "donations",
		"period_start": "2026-02-01T00:00:00Z",
		"period_end":   "2026-02-28T23:59:59Z",
	})
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	var job models.ReportJob
	json.Unmarshal(w.Body.Bytes(), &job)
	if job.Status != models.JobStatusPending {
		t.Errorf("expected pending job, got %s", job.Status)
	}
	if q.Len() != 1 {
		t.Errorf("expected job to be queued, queue has %d", q.Len())
	}

	if w := doJSON(r, http.MethodGet, "/reports/"+job.ID.String()+"/download", nil); w.Code != http.StatusConflict {
		t.Errorf("expected 409 while the report is pending, got %d", w.Code)
	}
}

func TestReportHandler_ProgressReplaysFinishedJob(t *testing.T) {
	database := setupTestDB(t)
	admin := createUser(t, database, "admin", models.RoleAdmin)
	q := queue.NewMemoryQueue(10)
	defer q.Close()

	job := models.ReportJob{
		Type:        models.ReportDonations,
		Status:      models.JobStatusCompleted,
		PeriodStart: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		Logs:        "wrote donations.xlsx (6.1 KB)\n[COMPLETED] report ready\n",
	}
	if err := database.Create(&job).Error; err != nil {
		t.Fatalf("failed to create job: %v", err)
	}

	h := NewReportHandler(service.NewReportService(database, q), logstream.NewBroker())
	r := newTestRouter(admin)
	r.GET("/reports/:id/progress", h.StreamProgress)

	w := doJSON(r, http.MethodGet, "/reports/"+job.ID.String()+"/progress", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected event stream, got %q", ct)
	}
	body := w.Body.String()
	for _, want := range []string{"data: wrote donations.xlsx (6.1 KB)\n", "data: [COMPLETED] report ready\n", "event: done\ndata: completed\n"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in stream, got:\n%s", want, body)
		}
	}
}

func TestReportHandler_ProgressStreamsLiveLines(t *testing.T) {
	database := setupTestDB(t)
	admin := createUser(t, database, "admin", models.RoleAdmin)
	q := queue.NewMemoryQueue(10)
	defer q.Close()

	prev := progressPollInterval
	progressPollInterval = 20 * time.Millisecond
	defer func() { progressPollInterval = prev }()

	job := models.ReportJob{
		Type:        models.ReportAttendance,
		Status:      models.JobStatusRunning,
		PeriodStart: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
	}
	if err := database.Create(&job).Error; err != nil {
		t.Fatalf("failed to create job: %v", err)
	}

	broker := logstream.NewBroker()
	h := NewReportHandler(service.NewReportService(database, q), broker)
	r := newTestRouter(admin)
	r.GET("/reports/:id/progress", h.StreamProgress)

	done := make(chan *httptest.ResponseRecorder)
	go func() {
		done <- doJSON(r, http.MethodGet, "/reports/"+job.ID.String()+"/progress", nil)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !broker.HasSubscribers(job.ID) {
		if time.Now().After(deadline) {
			t.Fatal("stream never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	broker.Publish(job.ID, "wrote attendance.xlsx (4.0 KB)")
	database.Model(&models.ReportJob{}).Where("id = ?", job.ID).Updates(map[string]interface{}{
		"status": models.JobStatusCompleted,
		"logs":   "wrote attendance.xlsx (4.0 KB)\n",
	})
	broker.Close(job.ID)

	select {
	case w := <-done:
		body := w.Body.String()
		if strings.Count(body, "wrote attendance.xlsx") != 1 {
			t.Errorf("expected the live line exactly once, got:\n%s", body)
		}
		if !strings.Contains(body, "event: done\ndata: completed") {
			t.Errorf("expected done event, got:\n%s", body)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("stream did not finish")
	}
}

func TestUserHandler_CannotDeleteSelf(t *testing.T) {
	database := setupTestDB(t)
	root := createUser(t, database, "root", models.RoleSuperAdmin)
	h := NewUserHandler(service.NewUserService(database))
	r := newTestRouter(root)
	r.DELETE("/users/:id", h.DeleteUser)
	r.PUT("/users/:id/role", h.UpdateUserRole)

	if w := doJSON(r, http.MethodDelete, "/users/"+root.ID.String(), nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}

	other := createUser(t, database, "clerk", models.RoleUser)
	w := doJSON(r, http.MethodPut, "/users/"+other.ID.String()+"/role", map[string]string{"role": "admin"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = doJSON(r, http.MethodPut, "/users/"+other.ID.String()+"/role", map[string]string{"role": "pastor"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown role, got %d", w.Code)
	}
}

func TestAccessHandler(t *testing.T) {
	evaluator, err := access.NewEvaluator(access.DefaultTable(), "")
	if err != nil {
		t.Fatalf("failed to build evaluator: %v", err)
	}
	h := NewAccessHandler(evaluator)
	r := newTestRouter(&models.User{Username: "pew", Role: models.RoleMember})
	r.GET("/access/check", h.Check)
	r.GET("/access/paths", h.Paths)

	w := doJSON(r, http.MethodGet, "/access/check?path=/donations", nil)
	var resp AccessCheckResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Allowed || resp.Target != access.DefaultFallbackPath {
		t.Errorf("expected member to be denied /donations with fallback, got %+v", resp)
	}

	w = doJSON(r, http.MethodGet, "/access/check?path=/forum/123", nil)
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Allowed || resp.Target != "/forum/123" {
		t.Errorf("expected member to reach /forum/123, got %+v", resp)
	}

	if w := doJSON(r, http.MethodGet, "/access/check", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without path, got %d", w.Code)
	}

	w = doJSON(r, http.MethodGet, "/access/paths", nil)
	var paths []string
	json.Unmarshal(w.Body.Bytes(), &paths)
	want := []string{"/dashboard", "/events", "/forum", "/profile"}
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, paths)
	}
}
