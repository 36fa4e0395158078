package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"Gin_postgres_redis_inventory_tool/access"
	"Gin_postgres_redis_inventory_tool/app"
	"Gin_postgres_redis_inventory_tool/config"
	"Gin_postgres_redis_inventory_tool/db"
	"Gin_postgres_redis_inventory_tool/directory"
	"Gin_postgres_redis_inventory_tool/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testServer struct {
	t   *testing.T
	app *app.App
	r   *gin.Engine
}

var people = map[string]directory.StaticUser{
	"alice": {Password: "a-pass", Identity: directory.Identity{GUID: "6f2c1d4e-0000-4a1b-8c1d-000000000001", Username: "alice", DisplayName: "Alice Admin"}},
	"bob":   {Password: "b-pass", Identity: directory.Identity{GUID: "6f2c1d4e-0000-4a1b-8c1d-000000000002", Username: "bob", DisplayName: "Bob Editor"}},
	"carol": {Password: "c-pass", Identity: directory.Identity{GUID: "6f2c1d4e-0000-4a1b-8c1d-000000000003", Username: "carol", DisplayName: "Carol Viewer"}},
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), db.GormConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.Web.Origin = "http://localhost:5173"
	cfg.Admin.Usernames = "alice"
	cfg.LastSeen.Throttle = time.Minute

	a := app.New(cfg, gdb, rdb, &directory.Static{Users: people})
	RegisterRoutes(a.Router, a)
	return &testServer{t: t, app: a, r: a.Router}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			s.t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: app.TokenCookie, Value: token})
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w
}

func (s *testServer) expect(w *httptest.ResponseRecorder, status int) {
	s.t.Helper()
	if w.Code != status {
		s.t.Fatalf("status = %d, want %d; body: %s", w.Code, status, w.Body.String())
	}
}

// login returns the token cookie value and the user id.
func (s *testServer) login(username string) (string, uint) {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username, "password": people[username].Password,
	})
	s.expect(w, http.StatusOK)

	var token string
	for _, ck := range w.Result().Cookies() {
		if ck.Name == app.TokenCookie {
			token = ck.Value
			if !ck.HttpOnly {
				s.t.Fatal("token cookie must be HttpOnly")
			}
		}
	}
	if token == "" {
		s.t.Fatal("login set no token cookie")
	}
	var out struct {
		User models.User `json:"user"`
	}
	decode(s.t, w, &out)
	return token, out.User.ID
}

// activated logs username in and has the admin activate it with role.
func (s *testServer) activated(adminToken, username string, role access.Rank) (string, uint) {
	s.t.Helper()
	token, id := s.login(username)
	s.expect(s.do(http.MethodPatch, fmt.Sprintf("/api/users/%d/activate", id), adminToken, map[string]any{"role": role}), http.StatusOK)
	return token, id
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

func (s *testServer) seedDevices(n int) {
	s.t.Helper()
	adminUser, err := s.app.Repo.FindUserByID(s.t.Context(), 1)
	if err != nil {
		s.t.Fatal(err)
	}
	cat := models.Category{Name: "Laptop"}
	if err := s.app.DB.Create(&cat).Error; err != nil {
		s.t.Fatal(err)
	}
	for i := 1; i <= n; i++ {
		inv := fmt.Sprintf("INV-%04d", i)
		name := fmt.Sprintf("Device %d", i)
		status := uint(1)
		_, err := s.app.Repo.CreateDevice(s.t.Context(), adminUser.Principal(), &models.DeviceInput{
			InventoryNumber: &inv, Name: &name, CategoryID: &cat.ID, StatusID: &status,
		})
		if err != nil {
			s.t.Fatal(err)
		}
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	s.expect(s.do(http.MethodGet, "/healthz", "", nil), http.StatusOK)
}

func TestLoginAndStatus(t *testing.T) {
	s := newTestServer(t)

	s.expect(s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "alice", "password": "wrong"}), http.StatusUnauthorized)
	s.expect(s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "alice"}), http.StatusBadRequest)

	token, _ := s.login("alice")
	w := s.do(http.MethodGet, "/api/users/me", token, nil)
	s.expect(w, http.StatusOK)
	var me struct {
		User models.User `json:"user"`
	}
	decode(t, w, &me)
	if me.User.Role != access.Admin || !me.User.IsActivated {
		t.Fatalf("bootstrap admin = %+v, want activated admin", me.User)
	}

	w = s.do(http.MethodGet, "/api/auth/status", token, nil)
	s.expect(w, http.StatusOK)
	var st map[string]any
	decode(t, w, &st)
	if st["authenticated"] != true {
		t.Fatalf("status = %v, want authenticated", st)
	}

	s.expect(s.do(http.MethodPost, "/api/auth/logout", token, nil), http.StatusOK)
	s.expect(s.do(http.MethodGet, "/api/users/me", token, nil), http.StatusUnauthorized)
}

func TestUnauthenticated(t *testing.T) {
	s := newTestServer(t)
	s.expect(s.do(http.MethodGet, "/api/devices", "", nil), http.StatusUnauthorized)
	s.expect(s.do(http.MethodGet, "/api/devices", "not-a-jwt", nil), http.StatusUnauthorized)
}

func TestUnactivatedUserSeesOnlyOwnProfile(t *testing.T) {
	s := newTestServer(t)
	s.login("alice")
	token, _ := s.login("carol")

	w := s.do(http.MethodGet, "/api/users/me", token, nil)
	s.expect(w, http.StatusOK)
	var me struct {
		User models.User `json:"user"`
	}
	decode(t, w, &me)
	if me.User.IsActivated {
		t.Fatal("new account should start unactivated")
	}
	s.expect(s.do(http.MethodGet, "/api/devices", token, nil), http.StatusForbidden)
	s.expect(s.do(http.MethodGet, "/api/lendings/mine", token, nil), http.StatusForbidden)
	s.expect(s.do(http.MethodGet, "/api/admin/maintenance", token, nil), http.StatusForbidden)
}

func TestUserAdministration(t *testing.T) {
	s := newTestServer(t)
	adminToken, adminID := s.login("alice")

	w := s.do(http.MethodGet, "/api/users/pending", adminToken, nil)
	s.expect(w, http.StatusOK)

	bobToken, bobID := s.activated(adminToken, "bob", access.Editor)
	_, carolID := s.activated(adminToken, "carol", access.Viewer)

	// editors cannot manage users
	s.expect(s.do(http.MethodPatch, fmt.Sprintf("/api/users/%d/role", carolID), bobToken, map[string]any{"role": access.Admin}), http.StatusForbidden)

	// admins cannot demote themselves
	s.expect(s.do(http.MethodPatch, fmt.Sprintf("/api/users/%d/role", adminID), adminToken, map[string]any{"role": access.Viewer}), http.StatusBadRequest)
	s.expect(s.do(http.MethodPatch, fmt.Sprintf("/api/users/%d/deactivate", adminID), adminToken, nil), http.StatusBadRequest)

	s.expect(s.do(http.MethodPatch, fmt.Sprintf("/api/users/%d/role", carolID), adminToken, map[string]any{"role": 7}), http.StatusBadRequest)
	s.expect(s.do(http.MethodPatch, fmt.Sprintf("/api/users/%d/role", carolID), adminToken, map[string]any{}), http.StatusBadRequest)
	s.expect(s.do(http.MethodPatch, "/api/users/999/role", adminToken, map[string]any{"role": access.Editor}), http.StatusNotFound)

	// deactivation ends the session right away
	s.expect(s.do(http.MethodPatch, fmt.Sprintf("/api/users/%d/deactivate", bobID), adminToken, nil), http.StatusOK)
	s.expect(s.do(http.MethodGet, "/api/devices", bobToken, nil), http.StatusUnauthorized)

	w = s.do(http.MethodGet, "/api/users?q=car", adminToken, nil)
	s.expect(w, http.StatusOK)
	var list struct {
		Total int64         `json:"total"`
		Users []models.User `json:"users"`
	}
	decode(t, w, &list)
	if list.Total != 1 || list.Users[0].Username != "carol" {
		t.Fatalf("search = %+v, want carol", list)
	}

	w = s.do(http.MethodGet, "/api/admin/audit?targetType=user", adminToken, nil)
	s.expect(w, http.StatusOK)
	var audit struct {
		Items []models.AuditLog `json:"items"`
	}
	decode(t, w, &audit)
	if len(audit.Items) != 3 {
		t.Fatalf("audit entries = %d, want 3 (two activations and one deactivation)", len(audit.Items))
	}
}

func TestDevicePagination(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.login("alice")
	s.seedDevices(30)

	w := s.do(http.MethodGet, "/api/devices?page=2&pageSize=25&sort=inventoryNumber&order=asc", adminToken, nil)
	s.expect(w, http.StatusOK)
	var page db.DevicePage
	decode(t, w, &page)
	if page.Total != 30 || page.Page != 2 || len(page.Items) != 5 {
		t.Fatalf("page = total %d page %d items %d, want 30/2/5", page.Total, page.Page, len(page.Items))
	}
	if page.Items[0].InventoryNumber != "INV-0026" {
		t.Fatalf("first item = %s, want INV-0026", page.Items[0].InventoryNumber)
	}

	s.expect(s.do(http.MethodGet, "/api/devices?pageSize=abc", adminToken, nil), http.StatusBadRequest)
	s.expect(s.do(http.MethodGet, "/api/devices?sort=password", adminToken, nil), http.StatusBadRequest)
	s.expect(s.do(http.MethodGet, "/api/devices/9999", adminToken, nil), http.StatusNotFound)
}

func TestLendingOverHTTP(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.login("alice")
	editorToken, _ := s.activated(adminToken, "bob", access.Editor)
	viewerToken, _ := s.activated(adminToken, "carol", access.Viewer)
	s.seedDevices(1)

	w := s.do(http.MethodPost, "/api/lendings/1", viewerToken, map[string]any{"notes": "conference"})
	s.expect(w, http.StatusCreated)
	var l models.Lending
	decode(t, w, &l)
	if l.Status != models.LendingPending {
		t.Fatalf("status = %s, want pending", l.Status)
	}

	s.expect(s.do(http.MethodPost, "/api/lendings/1", viewerToken, map[string]any{"bogus": true}), http.StatusBadRequest)
	s.expect(s.do(http.MethodGet, "/api/lendings", viewerToken, nil), http.StatusForbidden)
	s.expect(s.do(http.MethodPut, "/api/lendings/accept/"+l.ID, viewerToken, nil), http.StatusForbidden)

	s.expect(s.do(http.MethodPut, "/api/lendings/accept/"+l.ID, editorToken, nil), http.StatusOK)
	s.expect(s.do(http.MethodPut, "/api/lendings/accept/"+l.ID, editorToken, nil), http.StatusConflict)
	s.expect(s.do(http.MethodPut, "/api/lendings/cancel/"+l.ID, viewerToken, nil), http.StatusConflict)

	w = s.do(http.MethodGet, "/api/lendings/mine", viewerToken, nil)
	s.expect(w, http.StatusOK)
	var mine struct {
		Items []models.Lending `json:"items"`
	}
	decode(t, w, &mine)
	if len(mine.Items) != 1 || mine.Items[0].Status != models.LendingActive {
		t.Fatalf("mine = %+v, want one active lending", mine.Items)
	}

	s.expect(s.do(http.MethodPut, "/api/lendings/return/"+l.ID, editorToken, nil), http.StatusOK)
	s.expect(s.do(http.MethodPut, "/api/lendings/return/does-not-exist", editorToken, nil), http.StatusNotFound)
	s.expect(s.do(http.MethodPut, "/api/lendings/approve/"+l.ID, editorToken, nil), http.StatusNotFound)
}

func TestRequestValidation(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.login("alice")
	s.seedDevices(1)

	errorOf := func(w *httptest.ResponseRecorder) string {
		var body struct {
			Error string `json:"error"`
		}
		decode(t, w, &body)
		return body.Error
	}

	device := map[string]any{"inventoryNumber": "INV-0100", "name": "Dock", "categoryId": 1, "statusId": 1}
	device["macAddresses"] = []string{"not-a-mac"}
	w := s.do(http.MethodPost, "/api/devices", adminToken, device)
	s.expect(w, http.StatusBadRequest)
	if msg := errorOf(w); !strings.Contains(msg, "macAddresses[0] is not a MAC address") {
		t.Fatalf("error = %q", msg)
	}

	delete(device, "macAddresses")
	device["createdBy"] = 1
	w = s.do(http.MethodPost, "/api/devices", adminToken, device)
	s.expect(w, http.StatusBadRequest)
	if msg := errorOf(w); !strings.Contains(msg, "unknown field") {
		t.Fatalf("error = %q", msg)
	}

	delete(device, "createdBy")
	s.expect(s.do(http.MethodPost, "/api/devices", adminToken, device), http.StatusCreated)
	w = s.do(http.MethodPost, "/api/devices", adminToken, device)
	s.expect(w, http.StatusConflict)
	if msg := errorOf(w); msg != "inventory number already exists" {
		t.Fatalf("error = %q", msg)
	}

	start := time.Now().Add(48 * time.Hour).UTC()
	w = s.do(http.MethodPost, "/api/reservations/1", adminToken, map[string]any{"startAt": start, "endAt": start.Add(-time.Hour)})
	s.expect(w, http.StatusBadRequest)
	if msg := errorOf(w); msg != "endAt must be after startAt" {
		t.Fatalf("error = %q", msg)
	}

	w = s.do(http.MethodPost, "/api/devices/1/electronic-tests", adminToken, map[string]any{
		"tester": "Elektro Meyer", "lastTestResult": "maybe", "nextTestPeriod": 12, "scale": "months",
	})
	s.expect(w, http.StatusBadRequest)
	if msg := errorOf(w); msg != "lastTestResult must be one of: pass fail" {
		t.Fatalf("error = %q", msg)
	}

	s.expect(s.do(http.MethodPost, "/api/ip-addresses", adminToken, map[string]any{"type": "static"}), http.StatusBadRequest)
	w = s.do(http.MethodPost, "/api/ip-addresses", adminToken, map[string]any{"type": "static", "staticIps": []string{"10.1.2.3"}})
	s.expect(w, http.StatusCreated)
	var ip models.IPAddress
	decode(t, w, &ip)
	w = s.do(http.MethodPatch, "/api/devices/1", adminToken, map[string]any{"ipAddressId": ip.ID})
	s.expect(w, http.StatusOK)
	var d models.Device
	decode(t, w, &d)
	if d.IPAddress == nil || d.IPAddress.Type != models.IPStatic || len(d.IPAddress.StaticIPs) != 1 {
		t.Fatalf("ipAddress = %+v", d.IPAddress)
	}

	s.expect(s.do(http.MethodPatch, "/api/devices/999", adminToken, map[string]any{"categoryId": 77}), http.StatusNotFound)
	s.expect(s.do(http.MethodPost, "/api/categories", adminToken, map[string]any{"name": "  "}), http.StatusBadRequest)
}

func TestAvailabilityLists(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.login("alice")
	viewerToken, _ := s.activated(adminToken, "carol", access.Viewer)
	s.seedDevices(2)

	w := s.do(http.MethodPost, "/api/lendings/2", viewerToken, nil)
	s.expect(w, http.StatusCreated)
	var l models.Lending
	decode(t, w, &l)
	s.expect(s.do(http.MethodPut, "/api/lendings/accept/"+l.ID, adminToken, nil), http.StatusOK)

	list := func(path string) []string {
		w := s.do(http.MethodGet, path, viewerToken, nil)
		s.expect(w, http.StatusOK)
		var out struct {
			Items []models.DeviceDetail `json:"items"`
		}
		decode(t, w, &out)
		var got []string
		for _, d := range out.Items {
			got = append(got, d.InventoryNumber+"="+d.Availability)
		}
		return got
	}
	if got := list("/api/lendings/available"); len(got) != 1 || got[0] != "INV-0001=available" {
		t.Fatalf("available = %v", got)
	}
	if got := list("/api/lendings/unavailable"); len(got) != 1 || got[0] != "INV-0002=lent" {
		t.Fatalf("unavailable = %v", got)
	}
}

func TestMaintenanceMode(t *testing.T) {
	s := newTestServer(t)
	adminToken, _ := s.login("alice")
	viewerToken, _ := s.activated(adminToken, "carol", access.Viewer)

	s.expect(s.do(http.MethodPost, "/api/admin/maintenance/maybe", adminToken, nil), http.StatusBadRequest)
	s.expect(s.do(http.MethodPost, "/api/admin/maintenance/true", viewerToken, nil), http.StatusForbidden)
	s.expect(s.do(http.MethodPost, "/api/admin/maintenance/1", adminToken, nil), http.StatusOK)

	s.expect(s.do(http.MethodGet, "/api/devices", viewerToken, nil), http.StatusServiceUnavailable)
	s.expect(s.do(http.MethodGet, "/api/devices", adminToken, nil), http.StatusServiceUnavailable)
	s.expect(s.do(http.MethodPost, "/api/admin/maintenance/1", viewerToken, nil), http.StatusServiceUnavailable)

	w := s.do(http.MethodGet, "/api/admin/maintenance", viewerToken, nil)
	s.expect(w, http.StatusOK)
	var st map[string]bool
	decode(t, w, &st)
	if !st["maintenance"] {
		t.Fatalf("maintenance = %v, want on", st)
	}

	// login stays open so admins can get back in
	s.login("carol")

	s.expect(s.do(http.MethodPost, "/api/admin/maintenance/false", adminToken, nil), http.StatusOK)
	s.expect(s.do(http.MethodGet, "/api/devices", viewerToken, nil), http.StatusOK)
}
