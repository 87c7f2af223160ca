package web

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/erazemk/ewaste/internal/account"
	"github.com/erazemk/ewaste/internal/db"
	"github.com/erazemk/ewaste/internal/model"
	"github.com/erazemk/ewaste/internal/store"
	"github.com/erazemk/ewaste/internal/uploads"
)

const testJWTSecret = "test-secret"

type testEnv struct {
	server        *httptest.Server
	db            *sql.DB
	photos        *uploads.Store
	adminPassword string
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	database := db.NewTestDB(t)

	photos, err := uploads.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("uploads store: %v", err)
	}

	router, err := NewRouter(database, testJWTSecret, photos, uploads.MaxUploadSize)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	password, _, err := account.EnsureAdmin(context.Background(), database, "admin", "admin@example.com")
	if err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}

	return &testEnv{server: server, db: database, photos: photos, adminPassword: password}
}

type testClient struct {
	t      *testing.T
	base   string
	client *http.Client
}

func (e *testEnv) client(t *testing.T) *testClient {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &testClient{
		t:    t,
		base: e.server.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *testClient) do(req *http.Request) *http.Response {
	c.t.Helper()
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	c.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (c *testClient) get(path string) *http.Response {
	c.t.Helper()
	req, _ := http.NewRequest(http.MethodGet, c.base+path, nil)
	return c.do(req)
}

func (c *testClient) post(path string, form url.Values) *http.Response {
	c.t.Helper()
	req, _ := http.NewRequest(http.MethodPost, c.base+path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *testClient) postMultipart(path string, fields map[string]string, filename string, content []byte) *http.Response {
	c.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("photo", filename)
		if err != nil {
			c.t.Fatalf("CreateFormFile: %v", err)
		}
		fw.Write(content)
	}
	mw.Close()

	req, _ := http.NewRequest(http.MethodPost, c.base+path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

func (c *testClient) register(role model.Role, username string) {
	c.t.Helper()
	resp := c.post("/register/"+string(role), url.Values{
		"username":         {username},
		"email":            {username + "@example.com"},
		"password":         {"secret1"},
		"confirm_password": {"secret1"},
		"address":          {"12 Oak St"},
	})
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
		c.t.Fatalf("register %s: expected redirect to /login, got %d %s", username, resp.StatusCode, resp.Header.Get("Location"))
	}
}

func (c *testClient) login(identifier, password string) {
	c.t.Helper()
	resp := c.post("/login", url.Values{"identifier": {identifier}, "password": {password}})
	if resp.StatusCode != http.StatusSeeOther {
		c.t.Fatalf("login %s: expected 303, got %d", identifier, resp.StatusCode)
	}
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return string(data)
}

// flashOf returns the flash set by resp, as "kind: message".
func flashOf(resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if c.Name == flashCookie && c.Value != "" {
			kind, raw, _ := strings.Cut(c.Value, ":")
			msg, _ := url.QueryUnescape(raw)
			return kind + ": " + msg
		}
	}
	return ""
}

func expectDenied(t *testing.T, resp *http.Response) {
	t.Helper()
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Fatalf("expected redirect to /, got %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}
	if got := flashOf(resp); got != "danger: Unauthorized" {
		t.Errorf("expected Unauthorized flash, got %q", got)
	}
}

func (e *testEnv) user(t *testing.T, username string) *model.User {
	t.Helper()
	u, err := store.GetUserByLogin(context.Background(), e.db, username)
	if err != nil || u == nil {
		t.Fatalf("user %s: %v", username, err)
	}
	return u
}

func (e *testEnv) onlyPickup(t *testing.T, household *model.User) *model.PickupRequest {
	t.Helper()
	pickups, err := store.ListPickupsByHousehold(context.Background(), e.db, household.ID)
	if err != nil {
		t.Fatalf("list pickups: %v", err)
	}
	if len(pickups) != 1 {
		t.Fatalf("expected 1 pickup, got %d", len(pickups))
	}
	return &pickups[0]
}

func pickupFields() map[string]string {
	return map[string]string{
		"location":         "12 Oak St",
		"item_type":        "Laptop",
		"quantity":         "2",
		"condition_status": "broken",
		"notes":            "Side door",
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := range 8 {
		for y := range 8 {
			img.Set(x, y, color.RGBA{R: 200, G: 50, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func TestPickupLifecycleScenario(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	alice := env.client(t)
	alice.register(model.RoleHousehold, "alice")
	alice.login("alice", "secret1")

	resp := alice.postMultipart("/pickup/request", pickupFields(), "", nil)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/household/dashboard" {
		t.Fatalf("submit: expected redirect to dashboard, got %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}

	page := body(t, alice.get("/household/dashboard"))
	if !strings.Contains(page, "12 Oak St") || strings.Count(page, `class="status pending"`) != 1 {
		t.Errorf("dashboard should show one pending request:\n%s", page)
	}

	aliceUser := env.user(t, "alice")
	p := env.onlyPickup(t, aliceUser)

	admin := env.client(t)
	admin.login("admin", env.adminPassword)

	resp = admin.post(fmt.Sprintf("/admin/approve/%d", p.ID), nil)
	if flashOf(resp) != "success: Pickup approved" {
		t.Errorf("approve flash: %q", flashOf(resp))
	}
	p = env.onlyPickup(t, aliceUser)
	if p.Status != model.StatusApproved {
		t.Fatalf("expected approved, got %q", p.Status)
	}
	notes, _ := store.ListNotifications(ctx, env.db, aliceUser.ID)
	if len(notes) != 2 {
		t.Errorf("expected 2 notifications for alice after approval, got %d", len(notes))
	}

	bob := env.client(t)
	bob.register(model.RoleStaff, "bob")
	bobUser := env.user(t, "bob")

	admin.post(fmt.Sprintf("/admin/assign/%d", p.ID), url.Values{"staff_id": {fmt.Sprint(bobUser.ID)}})
	p = env.onlyPickup(t, aliceUser)
	if p.Status != model.StatusScheduled || p.StaffID == nil || *p.StaffID != bobUser.ID {
		t.Fatalf("expected scheduled and assigned to bob, got %q %v", p.Status, p.StaffID)
	}
	bobNotes, _ := store.ListNotifications(ctx, env.db, bobUser.ID)
	if len(bobNotes) != 1 {
		t.Errorf("expected bob to have 1 notification, got %d", len(bobNotes))
	}

	bob.login("bob", "secret1")
	if page := body(t, bob.get("/staff/dashboard")); !strings.Contains(page, "12 Oak St") {
		t.Error("staff dashboard should list the assigned pickup")
	}
	resp = bob.post(fmt.Sprintf("/pickup/%d/update", p.ID), url.Values{"status": {"completed"}, "note": {"Collected"}})
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/staff/dashboard" {
		t.Fatalf("update: got %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}

	p = env.onlyPickup(t, aliceUser)
	if p.Status != model.StatusCompleted {
		t.Errorf("expected completed, got %q", p.Status)
	}
	if !strings.Contains(p.Notes, "STAFF NOTE: Collected") {
		t.Errorf("expected staff note appended, got %q", p.Notes)
	}
	notes, _ = store.ListNotifications(ctx, env.db, aliceUser.ID)
	if len(notes) == 0 || !strings.Contains(notes[0].Message, "completed") {
		t.Errorf("expected newest notification to mention completed, got %+v", notes)
	}
}

func TestDisallowedPhotoIsDropped(t *testing.T) {
	env := setupTestServer(t)

	alice := env.client(t)
	alice.register(model.RoleHousehold, "alice")
	alice.login("alice", "secret1")

	resp := alice.postMultipart("/pickup/request", pickupFields(), "malware.exe", []byte("MZ\x90\x00not an image"))
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/household/dashboard" {
		t.Fatalf("expected submission to succeed, got %d", resp.StatusCode)
	}
	if got := flashOf(resp); !strings.HasPrefix(got, "warning: ") || !strings.Contains(got, "photo was not attached") {
		t.Errorf("expected photo warning, got %q", got)
	}

	p := env.onlyPickup(t, env.user(t, "alice"))
	if p.PhotoFilename != "" {
		t.Errorf("expected no photo reference, got %q", p.PhotoFilename)
	}
	entries, err := os.ReadDir(env.photos.Dir)
	if err != nil {
		t.Fatalf("reading upload dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no stored files, got %d", len(entries))
	}
}

func TestSubmitFailureRemovesPhoto(t *testing.T) {
	env := setupTestServer(t)

	alice := env.client(t)
	alice.register(model.RoleHousehold, "alice")
	alice.login("alice", "secret1")

	// Fail the item insert, which runs after the photo is written.
	if _, err := env.db.Exec(`CREATE TRIGGER fail_item_insert BEFORE INSERT ON item_details
		BEGIN SELECT RAISE(ABORT, 'item insert failed'); END`); err != nil {
		t.Fatalf("creating trigger: %v", err)
	}

	resp := alice.postMultipart("/pickup/request", pickupFields(), "laptop.png", pngBytes(t))
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}

	entries, err := os.ReadDir(env.photos.Dir)
	if err != nil {
		t.Fatalf("reading upload dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected orphaned photo to be removed, got %d files", len(entries))
	}

	var count int
	if err := env.db.QueryRow(`SELECT COUNT(*) FROM pickup_requests`).Scan(&count); err != nil {
		t.Fatalf("counting pickups: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no pickup request to survive, got %d", count)
	}
}

func TestPhotoAccess(t *testing.T) {
	env := setupTestServer(t)

	alice := env.client(t)
	alice.register(model.RoleHousehold, "alice")
	alice.login("alice", "secret1")

	alice.postMultipart("/pickup/request", pickupFields(), "laptop.png", pngBytes(t))
	p := env.onlyPickup(t, env.user(t, "alice"))
	if !uploads.ValidKey(p.PhotoFilename) {
		t.Fatalf("expected stored photo key, got %q", p.PhotoFilename)
	}

	resp := alice.get("/uploads/" + p.PhotoFilename)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("owner photo fetch: expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %q", ct)
	}

	carol := env.client(t)
	carol.register(model.RoleHousehold, "carol")
	carol.login("carol", "secret1")
	expectDenied(t, carol.get("/uploads/"+p.PhotoFilename))

	anon := env.client(t)
	resp = anon.get("/uploads/" + p.PhotoFilename)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
		t.Errorf("anonymous fetch: expected redirect to /login, got %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}

	if resp := alice.get("/uploads/not-a-key.jpg"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for malformed key, got %d", resp.StatusCode)
	}
}

func TestCancelInProgressRefused(t *testing.T) {
	env := setupTestServer(t)

	alice := env.client(t)
	alice.register(model.RoleHousehold, "alice")
	alice.login("alice", "secret1")
	alice.postMultipart("/pickup/request", pickupFields(), "", nil)

	aliceUser := env.user(t, "alice")
	p := env.onlyPickup(t, aliceUser)
	if err := store.UpdatePickupStatus(context.Background(), env.db, p.ID, model.StatusInProgress); err != nil {
		t.Fatalf("UpdatePickupStatus: %v", err)
	}

	resp := alice.post(fmt.Sprintf("/pickup/%d/cancel", p.ID), nil)
	if got := flashOf(resp); got != "warning: Cannot cancel a pickup in progress or completed" {
		t.Errorf("unexpected flash %q", got)
	}
	if p = env.onlyPickup(t, aliceUser); p.Status != model.StatusInProgress {
		t.Errorf("expected status to stay in_progress, got %q", p.Status)
	}
}

func TestCancelPending(t *testing.T) {
	env := setupTestServer(t)

	alice := env.client(t)
	alice.register(model.RoleHousehold, "alice")
	alice.login("alice", "secret1")
	alice.postMultipart("/pickup/request", pickupFields(), "", nil)

	aliceUser := env.user(t, "alice")
	p := env.onlyPickup(t, aliceUser)

	carol := env.client(t)
	carol.register(model.RoleHousehold, "carol")
	carol.login("carol", "secret1")
	expectDenied(t, carol.post(fmt.Sprintf("/pickup/%d/cancel", p.ID), nil))

	resp := alice.post(fmt.Sprintf("/pickup/%d/cancel", p.ID), nil)
	if got := flashOf(resp); got != "success: Pickup cancelled" {
		t.Errorf("unexpected flash %q", got)
	}
	if p = env.onlyPickup(t, aliceUser); p.Status != model.StatusCancelled {
		t.Errorf("expected cancelled, got %q", p.Status)
	}
}

func TestRoleGates(t *testing.T) {
	env := setupTestServer(t)

	alice := env.client(t)
	alice.register(model.RoleHousehold, "alice")
	alice.login("alice", "secret1")

	bob := env.client(t)
	bob.register(model.RoleStaff, "bob")
	bob.login("bob", "secret1")

	expectDenied(t, alice.get("/admin/dashboard"))
	expectDenied(t, alice.get("/admin/export"))
	expectDenied(t, alice.get("/staff/dashboard"))
	expectDenied(t, alice.post("/admin/approve/1", nil))
	expectDenied(t, alice.get("/pickup/999"))
	expectDenied(t, bob.get("/household/dashboard"))

	resp := bob.get("/pickup/request")
	if got := flashOf(resp); got != "danger: Only households can request pickups" {
		t.Errorf("unexpected flash %q", got)
	}

	anon := env.client(t)
	resp = anon.get("/household/dashboard")
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
		t.Errorf("expected anonymous redirect to /login, got %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestAssignInvalidStaff(t *testing.T) {
	env := setupTestServer(t)

	alice := env.client(t)
	alice.register(model.RoleHousehold, "alice")
	alice.login("alice", "secret1")
	alice.postMultipart("/pickup/request", pickupFields(), "", nil)
	aliceUser := env.user(t, "alice")
	p := env.onlyPickup(t, aliceUser)

	admin := env.client(t)
	admin.login("admin@example.com", env.adminPassword)
	admin.post(fmt.Sprintf("/admin/approve/%d", p.ID), nil)

	resp := admin.post(fmt.Sprintf("/admin/assign/%d", p.ID), url.Values{"staff_id": {fmt.Sprint(aliceUser.ID)}})
	if got := flashOf(resp); got != "danger: Invalid staff" {
		t.Errorf("unexpected flash %q", got)
	}
	p = env.onlyPickup(t, aliceUser)
	if p.Status != model.StatusApproved || p.StaffID != nil {
		t.Errorf("expected pickup unchanged, got %q %v", p.Status, p.StaffID)
	}
}

func TestExportCSV(t *testing.T) {
	env := setupTestServer(t)

	alice := env.client(t)
	alice.register(model.RoleHousehold, "alice")
	alice.login("alice", "secret1")
	alice.postMultipart("/pickup/request", pickupFields(), "", nil)

	admin := env.client(t)
	admin.login("admin", env.adminPassword)
	resp := admin.get("/admin/export")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Errorf("expected text/csv, got %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "pickups.csv") {
		t.Errorf("expected pickups.csv attachment, got %q", cd)
	}

	lines := strings.Split(strings.TrimSpace(body(t, resp)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and 1 row, got %d lines", len(lines))
	}
	if lines[0] != "id,household,staff,status,location,scheduled_date,created_at" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "1,alice,,pending,12 Oak St,") {
		t.Errorf("unexpected row %q", lines[1])
	}
}

func TestRegisterConflictAndValidation(t *testing.T) {
	env := setupTestServer(t)

	c := env.client(t)
	c.register(model.RoleHousehold, "alice")

	resp := c.post("/register/staff", url.Values{
		"username":         {"alice"},
		"email":            {"other@example.com"},
		"password":         {"secret1"},
		"confirm_password": {"secret1"},
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409, got %d", resp.StatusCode)
	}
	if page := body(t, resp); !strings.Contains(page, "Username or email already taken") {
		t.Error("expected conflict message in page")
	}

	resp = c.post("/register/household", url.Values{
		"username":         {"dave"},
		"email":            {"dave@example.com"},
		"password":         {"secret1"},
		"confirm_password": {"secret2"},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
	if page := body(t, resp); !strings.Contains(page, "passwords do not match") {
		t.Error("expected mismatch message in page")
	}
}

func TestLoginAndLogout(t *testing.T) {
	env := setupTestServer(t)

	c := env.client(t)
	c.register(model.RoleHousehold, "alice")

	resp := c.post("/login", url.Values{"identifier": {"alice"}, "password": {"wrong"}})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}

	resp = c.post("/login", url.Values{"identifier": {"alice@example.com"}, "password": {"secret1"}})
	if loc := resp.Header.Get("Location"); loc != "/household/dashboard" {
		t.Fatalf("expected redirect to household dashboard, got %q", loc)
	}
	var token string
	for _, ck := range resp.Cookies() {
		if ck.Name == tokenCookie {
			token = ck.Value
		}
	}
	if token == "" {
		t.Fatal("no session cookie set")
	}

	c.post("/logout", nil)

	// A copy of the old cookie must no longer work.
	replay := env.client(t)
	req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/household/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: tokenCookie, Value: token})
	resp = replay.do(req)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
		t.Errorf("expected revoked token to redirect to /login, got %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestNotificationsMarkedRead(t *testing.T) {
	env := setupTestServer(t)

	alice := env.client(t)
	alice.register(model.RoleHousehold, "alice")
	alice.login("alice", "secret1")
	alice.postMultipart("/pickup/request", pickupFields(), "", nil)

	aliceUser := env.user(t, "alice")
	ctx := context.Background()
	if n, _ := store.CountUnreadNotifications(ctx, env.db, aliceUser.ID); n != 1 {
		t.Fatalf("expected 1 unread, got %d", n)
	}

	page := body(t, alice.get("/notifications"))
	if !strings.Contains(page, "submitted and pending admin approval") {
		t.Error("expected submission notification on page")
	}
	if n, _ := store.CountUnreadNotifications(ctx, env.db, aliceUser.ID); n != 0 {
		t.Errorf("expected notifications marked read, got %d unread", n)
	}
}

func TestSubmitValidation(t *testing.T) {
	env := setupTestServer(t)

	alice := env.client(t)
	alice.register(model.RoleHousehold, "alice")
	alice.login("alice", "secret1")

	fields := pickupFields()
	fields["location"] = ""
	fields["quantity"] = "two"
	resp := alice.postMultipart("/pickup/request", fields, "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	page := body(t, resp)
	if !strings.Contains(page, "must be a whole number") || !strings.Contains(page, "required") {
		t.Errorf("expected field errors in page:\n%s", page)
	}

	pickups, _ := store.ListPickupsByHousehold(context.Background(), env.db, env.user(t, "alice").ID)
	if len(pickups) != 0 {
		t.Errorf("expected no pickup created, got %d", len(pickups))
	}
}
