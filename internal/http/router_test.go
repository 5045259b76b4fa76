package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/studyvoice-backend/internal/data/repos"
	"github.com/yungbote/studyvoice-backend/internal/data/repos/testutil"
	types "github.com/yungbote/studyvoice-backend/internal/domain"
	httpH "github.com/yungbote/studyvoice-backend/internal/http/handlers"
	"github.com/yungbote/studyvoice-backend/internal/http/response"
	"github.com/yungbote/studyvoice-backend/internal/platform/logger"
	"github.com/yungbote/studyvoice-backend/internal/realtime"
	"github.com/yungbote/studyvoice-backend/internal/realtime/bus"
	"github.com/yungbote/studyvoice-backend/internal/services"
	"github.com/yungbote/studyvoice-backend/internal/textnorm"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	r, _ := newTestRouterDB(t)
	return r
}

func newTestRouterDB(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.Nop()
	db := testutil.DB(t)
	rs := repos.New(db, log)
	hub := realtime.NewSSEHub(log)

	text := services.NewTextService(log, textnorm.NewRegistry(), nil, 0)
	narrations := services.NewNarrationService(db, log, rs.NarrationSession, text,
		services.NewLogEngineFactory(log), bus.NewLocalBus(hub))
	progress := services.NewProgressService(db, log, rs.ProgressRecord)

	return NewRouter(RouterConfig{
		Log:              log,
		HealthHandler:    httpH.NewHealthHandler(db),
		ProfileHandler:   httpH.NewProfileHandler(text),
		TextHandler:      httpH.NewTextHandler(text, services.NewExportService(text)),
		NarrationHandler: httpH.NewNarrationHandler(log, narrations, hub),
		ProgressHandler:  httpH.NewProgressHandler(progress),
	}), db
}

func do(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env response.ErrorEnvelope
	decode(t, rec, &env)
	return env.Error.Code
}

func TestHealthAndProfiles(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodGet, "/healthcheck", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthcheck: got=%d %q", rec.Code, rec.Body.String())
	}

	rec = do(t, r, http.MethodGet, "/api/profiles", "")
	var out struct {
		Profiles []struct {
			Name  string   `json:"name"`
			Rules []string `json:"rules"`
		} `json:"profiles"`
	}
	decode(t, rec, &out)
	found := false
	for _, p := range out.Profiles {
		if p.Name == "speech" {
			found = true
			if p.Rules[len(p.Rules)-1] != "speech" {
				t.Fatalf("speech profile rules: got=%v", p.Rules)
			}
		}
	}
	if !found || len(out.Profiles) != 8 {
		t.Fatalf("profiles: got=%+v", out.Profiles)
	}
}

func TestTextEndpoints(t *testing.T) {
	r := newTestRouter(t)

	cases := []struct {
		name     string
		path     string
		body     string
		wantCode int
		wantErr  string
		wantBody string
	}{
		{"normalize", "/api/text/normalize", `{"text":"**x^2**","profile":"notes"}`, 200, "", `"text":"x²"`},
		{"normalize html", "/api/text/normalize", `{"text":"$a^2$","profile":"export","format":"html"}`, 200, "", `math-inline`},
		{"unknown profile", "/api/text/normalize", `{"text":"x","profile":"poetry"}`, 400, "unknown_profile", ""},
		{"unknown format", "/api/text/normalize", `{"text":"x","format":"pdf"}`, 400, "unknown_format", ""},
		{"bad json", "/api/text/normalize", `{"text":`, 400, "invalid_body", ""},
		{"chunks", "/api/text/chunks", `{"text":"One. Two.","max_chunk_size":5}`, 200, "", `"chunks":["One.","Two."]`},
		{"chunks blank", "/api/text/chunks", `{"text":"  "}`, 200, "", `"chunks":[]`},
		{"chunk size too large", "/api/text/chunks", `{"text":"x","max_chunk_size":999999}`, 400, "chunk_size_too_large", ""},
		{"export blank", "/api/exports/html", `{"title":"t","text":""}`, 400, "text_required", ""},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, r, http.MethodPost, tc.path, tc.body)
			if rec.Code != tc.wantCode {
				t.Fatalf("status: got=%d want=%d body=%s", rec.Code, tc.wantCode, rec.Body.String())
			}
			if tc.wantErr != "" {
				if got := errorCode(t, rec); got != tc.wantErr {
					t.Fatalf("error code: got=%q want=%q", got, tc.wantErr)
				}
			}
			if tc.wantBody != "" && !strings.Contains(rec.Body.String(), tc.wantBody) {
				t.Fatalf("body: got=%s want substring %s", rec.Body.String(), tc.wantBody)
			}
		})
	}

	rec := do(t, r, http.MethodPost, "/api/exports/html", `{"title":"Optics","text":"Lens $$\\frac{1}{f}$$"}`)
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("export: got=%d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), `<div class="math">(1)/(f)</div>`) {
		t.Fatalf("export body: %s", rec.Body.String())
	}
}

func TestNarrationEndpoints(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/api/narrations", `{"text":"   "}`)
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "nothing_to_speak" {
		t.Fatalf("blank narration: got=%d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, r, http.MethodPost, "/api/narrations",
		`{"text":"First sentence here. Second sentence there.","max_chunk_size":25,"voice":{"language":"hi-IN","name":"hi-IN-Wavenet-A","rate":1.1}}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("start: got=%d %s", rec.Code, rec.Body.String())
	}
	var started struct {
		Narration struct {
			ID         string `json:"id"`
			Status     string `json:"status"`
			ChunkCount int    `json:"chunk_count"`
			Language   string `json:"language"`
			Voice      string `json:"voice"`
		} `json:"narration"`
	}
	decode(t, rec, &started)
	if started.Narration.ChunkCount != 2 || started.Narration.Language != "hi-IN" || started.Narration.Voice != "hi-IN-Wavenet-A" {
		t.Fatalf("started: got=%+v", started.Narration)
	}
	path := "/api/narrations/" + started.Narration.ID

	deadline := time.Now().Add(3 * time.Second)
	status := ""
	for time.Now().Before(deadline) {
		var got struct {
			Narration struct {
				Status string `json:"status"`
			} `json:"narration"`
		}
		decode(t, do(t, r, http.MethodGet, path, ""), &got)
		status = got.Narration.Status
		if status == "done" {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if status != "done" {
		t.Fatalf("narration status: got=%q want=done", status)
	}

	// a finished session's stream replays the terminal event and closes
	rec = do(t, r, http.MethodGet, path+"/events", "")
	if !strings.Contains(rec.Body.String(), "event: NarrationDone\n") {
		t.Fatalf("events stream: %q", rec.Body.String())
	}

	rec = do(t, r, http.MethodPost, path+"/stop", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"done"`) {
		t.Fatalf("stop finished: got=%d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, r, http.MethodGet, "/api/narrations/not-a-uuid", "")
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "invalid_narration_id" {
		t.Fatalf("bad id: got=%d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, r, http.MethodGet, "/api/narrations/7d444840-9dc0-11d1-b245-5ffdce74fad2/events", "")
	if rec.Code != http.StatusNotFound || errorCode(t, rec) != "narration_not_found" {
		t.Fatalf("unknown id: got=%d %s", rec.Code, rec.Body.String())
	}
}

func TestNarrationEndpointsCloseAbandonedSession(t *testing.T) {
	r, db := newTestRouterDB(t)

	// a row left speaking by an instance that went away
	row := &types.NarrationSession{Status: types.NarrationSpeaking, Owner: "gone", Profile: "speech", ChunkCount: 3}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("seed row: %v", err)
	}
	if err := db.Model(row).UpdateColumn("updated_at", time.Now().UTC().Add(-time.Hour)).Error; err != nil {
		t.Fatalf("age row: %v", err)
	}
	path := "/api/narrations/" + row.ID.String()

	rec := do(t, r, http.MethodGet, path+"/events", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "event: NarrationStopped\n") {
		t.Fatalf("events for abandoned session: code=%d body=%q", rec.Code, rec.Body.String())
	}

	rec = do(t, r, http.MethodPost, path+"/stop", "")
	var body struct {
		Narration types.NarrationSession `json:"narration"`
	}
	decode(t, rec, &body)
	if rec.Code != http.StatusOK || body.Narration.Status != types.NarrationStopped {
		t.Fatalf("stop abandoned: code=%d status=%q", rec.Code, body.Narration.Status)
	}
}

func TestProgressEndpoints(t *testing.T) {
	r := newTestRouter(t)
	base := "/api/students/stu-42/progress"

	bodies := []string{
		`{"kind":"quiz_result","subject":"Maths","title":"Algebra","score":7,"total":10,"recorded_at":"2026-02-01T10:00:00Z"}`,
		`{"kind":"content_activity","title":"Read notes","recorded_at":"2026-02-02T10:00:00+05:30"}`,
		`{"kind":"exam_scan","payload":{"pages":3},"recorded_at":"2026-02-03T10:00:00Z"}`,
	}
	for _, b := range bodies {
		if rec := do(t, r, http.MethodPost, base, b); rec.Code != http.StatusCreated {
			t.Fatalf("record: got=%d %s", rec.Code, rec.Body.String())
		}
	}

	rec := do(t, r, http.MethodPost, base, `{"kind":"homework"}`)
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "invalid_kind" {
		t.Fatalf("bad kind: got=%d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, r, http.MethodPost, base, `{"kind":"quiz_result","score":-2}`)
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "invalid_score" {
		t.Fatalf("negative score: got=%d %s", rec.Code, rec.Body.String())
	}

	var out struct {
		Records []struct {
			Kind  string   `json:"kind"`
			Score *float64 `json:"score"`
		} `json:"records"`
	}
	decode(t, do(t, r, http.MethodGet, base, ""), &out)
	if len(out.Records) != 3 || out.Records[0].Kind != "quiz_result" || out.Records[2].Kind != "exam_scan" {
		t.Fatalf("list: got=%+v", out.Records)
	}

	out.Records = nil
	decode(t, do(t, r, http.MethodGet, base+"?since=2026-02-02T00:00:00Z&until=2026-02-03T00:00:00Z", ""), &out)
	if len(out.Records) != 1 || out.Records[0].Kind != "content_activity" {
		t.Fatalf("window: got=%+v", out.Records)
	}

	out.Records = nil
	decode(t, do(t, r, http.MethodGet, base+"?kind=quiz_result", ""), &out)
	if len(out.Records) != 1 || out.Records[0].Score == nil || *out.Records[0].Score != 7 {
		t.Fatalf("kind filter: got=%+v", out.Records)
	}

	rec = do(t, r, http.MethodGet, base+"?since=yesterday", "")
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "invalid_since" {
		t.Fatalf("bad since: got=%d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, r, http.MethodGet, base+"?since=2026-02-03T00:00:00Z&until=2026-02-01T00:00:00Z", "")
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "invalid_time_window" {
		t.Fatalf("inverted window: got=%d %s", rec.Code, rec.Body.String())
	}
}
