package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"meetgate/config"
	"meetgate/invites"
	"meetgate/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestAdminAPI(t *testing.T) (*gin.Engine, *models.CodeStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, _ := gdb.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err = models.Init(gdb); err != nil {
		t.Fatal(err)
	}
	store := models.NewCodeStore(gdb, zap.NewNop())
	api := &AdminAPI{
		Invites: invites.NewManager(store, &config.InviteConfig{CodeLength: 8, MaxAttempts: 10}, zap.NewNop()),
		Log:     zap.NewNop(),
	}
	r := gin.New()
	r.POST("/admin/api", func(c *gin.Context) { api.Action(c, nil) })
	return r, store
}

func postForm(r http.Handler, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/admin/api", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminAPI_Generate(t *testing.T) {
	r, store := newTestAdminAPI(t)

	w := postForm(r, url.Values{"action": {"generate"}, "notes": {" candidate A "}, "expires_at": {""}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	resp := GenerateResponse{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || !regexp.MustCompile(`^[A-Z0-9]{8}$`).MatchString(resp.Code) {
		t.Fatalf("response = %+v", resp)
	}

	codes, _ := store.ListAll(context.Background())
	if len(codes) != 1 || codes[0].Code != resp.Code || codes[0].Notes != "candidate A" || codes[0].ExpiresAt != nil {
		t.Errorf("stored = %+v", codes)
	}
}

func TestAdminAPI_GenerateWithExpiry(t *testing.T) {
	r, store := newTestAdminAPI(t)

	w := postForm(r, url.Values{"action": {"generate"}, "expires_at": {"2030-01-02T10:30"}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	codes, _ := store.ListAll(context.Background())
	want := time.Date(2030, 1, 2, 10, 30, 0, 0, time.Local)
	if len(codes) != 1 || codes[0].ExpiresAt == nil || !codes[0].ExpiresAt.Equal(want) {
		t.Errorf("stored = %+v, want expiry %v", codes, want)
	}

	w = postForm(r, url.Values{"action": {"generate"}, "expires_at": {"next tuesday"}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad expiry status = %d", w.Code)
	}
}

func TestAdminAPI_ToggleDeleteList(t *testing.T) {
	r, store := newTestAdminAPI(t)
	id, err := store.Insert(context.Background(), "ADMIN001", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	idStr := strconv.FormatUint(id, 10)

	tests := []struct {
		name        string
		form        url.Values
		wantStatus  int
		wantSuccess bool
	}{
		{"toggle", url.Values{"action": {"toggle"}, "id": {idStr}}, http.StatusOK, true},
		{"toggle missing", url.Values{"action": {"toggle"}, "id": {"9999"}}, http.StatusOK, false},
		{"delete missing", url.Values{"action": {"delete"}, "id": {"9999"}}, http.StatusOK, false},
		{"list", url.Values{"action": {"list"}}, http.StatusOK, true},
		{"delete", url.Values{"action": {"delete"}, "id": {idStr}}, http.StatusOK, true},
		{"delete twice", url.Values{"action": {"delete"}, "id": {idStr}}, http.StatusOK, false},
		{"unknown action", url.Values{"action": {"drop"}}, http.StatusBadRequest, false},
		{"missing action", url.Values{}, http.StatusBadRequest, false},
		{"bad id", url.Values{"action": {"toggle"}, "id": {"abc"}}, http.StatusBadRequest, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postForm(r, tt.form)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			resp := Response{}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Success != tt.wantSuccess {
				t.Errorf("success = %v, want %v", resp.Success, tt.wantSuccess)
			}
		})
	}
}

func TestAdminAPI_ListJSON(t *testing.T) {
	r, store := newTestAdminAPI(t)
	store.Insert(context.Background(), "LISTED01", "first", nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/api", strings.NewReader(`{"action":"list"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	resp := ListResponse{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || len(resp.Codes) != 1 || resp.Codes[0].Code != "LISTED01" {
		t.Errorf("response = %+v", resp)
	}
}

func TestParseExpiresAt(t *testing.T) {
	tests := []struct {
		in      string
		want    *time.Time
		wantErr bool
	}{
		{"", nil, false},
		{"   ", nil, false},
		{"2030-05-01T08:00:00Z", ptr(time.Date(2030, 5, 1, 8, 0, 0, 0, time.UTC)), false},
		{"2030-05-01T08:00", ptr(time.Date(2030, 5, 1, 8, 0, 0, 0, time.Local)), false},
		{"05/01/2030", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseExpiresAt(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseExpiresAt(%q) error = %v", tt.in, err)
			}
			if (got == nil) != (tt.want == nil) || (got != nil && !got.Equal(*tt.want)) {
				t.Errorf("ParseExpiresAt(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func ptr(t time.Time) *time.Time { return &t }
