package http_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/prepost/internal/aggregate"
	api "github.com/mind-engage/prepost/internal/api/http"
	"github.com/mind-engage/prepost/internal/assessment"
	auth "github.com/mind-engage/prepost/internal/auth/middleware"
	"github.com/mind-engage/prepost/internal/db"
	"github.com/mind-engage/prepost/internal/storage"
	syncx "github.com/mind-engage/prepost/internal/sync"
)

type server struct {
	t        *testing.T
	ts       *httptest.Server
	store    assessment.Store
	accounts *assessment.Accounts
	content  *assessment.Content
}

func newServer(t *testing.T, sqlBacked bool) *server {
	t.Helper()
	var store assessment.Store = assessment.NewInMemoryStore()
	var events api.EventLister
	if sqlBacked {
		h, err := db.Open(context.Background(), db.DriverSQLite,
			fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString()))
		require.NoError(t, err)
		t.Cleanup(func() { _ = h.Close() })
		store = assessment.NewSQLStore(h, string(db.DriverSQLite))
		events = syncx.NewEventRepo(h)
	}
	blobs, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)

	s := &server{
		t:        t,
		store:    store,
		accounts: assessment.NewAccounts(store, bcrypt.MinCost),
		content:  assessment.NewContent(store),
	}
	router := api.NewRouter(api.Deps{
		Auth:           auth.NewAuthService("test-secret", time.Hour),
		Store:          store,
		Engine:         assessment.NewEngine(store, nil),
		Accounts:       s.accounts,
		Content:        s.content,
		Aggregate:      aggregate.New(store),
		Blobs:          blobs,
		Events:         events,
		CORSOrigins:    []string{"http://localhost:3000"},
		RequestTimeout: 5 * time.Second,
		ExportLocale:   "en",
	})
	s.ts = httptest.NewServer(router)
	t.Cleanup(s.ts.Close)
	return s
}

func (s *server) do(method, path, token string, body any) (*http.Response, []byte) {
	s.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.ts.URL+path, rd)
	require.NoError(s.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.send(req)
}

func (s *server) send(req *http.Request) (*http.Response, []byte) {
	s.t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	return resp, b
}

func (s *server) login(username, password string) string {
	s.t.Helper()
	resp, body := s.do(http.MethodPost, "/auth/login", "", map[string]string{"username": username, "password": password})
	require.Equal(s.t, http.StatusOK, resp.StatusCode, string(body))
	var out struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(s.t, json.Unmarshal(body, &out))
	return out.AccessToken
}

func (s *server) register(name, username string) (string, string) {
	s.t.Helper()
	resp, body := s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"name": name, "username": username, "password": "pw",
	})
	require.Equal(s.t, http.StatusCreated, resp.StatusCode, string(body))
	var out struct {
		AccessToken string             `json:"access_token"`
		Learner     assessment.Learner `json:"learner"`
	}
	require.NoError(s.t, json.Unmarshal(body, &out))
	return out.AccessToken, out.Learner.ID
}

func (s *server) admin() string {
	s.t.Helper()
	_, err := s.accounts.EnsureAdmin(context.Background(), "admin", "admin-pw")
	require.NoError(s.t, err)
	return s.login("admin", "admin-pw")
}

func (s *server) questions(phase assessment.Phase, answers ...string) []assessment.Question {
	s.t.Helper()
	var out []assessment.Question
	for i, a := range answers {
		q, err := s.content.AddQuestion(context.Background(), assessment.Question{
			Phase:   phase,
			Prompt:  fmt.Sprintf("%s %d", phase, i),
			Choices: assessment.Choices{A: "1", B: "2", C: "3", D: "4"},
			Answer:  a,
		})
		require.NoError(s.t, err)
		out = append(out, q)
	}
	return out
}

func TestHealth(t *testing.T) {
	s := newServer(t, false)
	resp, _ := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = s.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLearnerFlow(t *testing.T) {
	s := newServer(t, false)
	pre := s.questions(assessment.PhasePre, "a", "b", "c", "d", "a")
	s.questions(assessment.PhasePost, "b")
	tok, _ := s.register("Ana", "ana")

	resp, _ := s.do(http.MethodGet, "/me/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := s.do(http.MethodGet, "/tests/post", tok, nil)
	assert.Equal(t, http.StatusPreconditionFailed, resp.StatusCode, string(body))

	resp, body = s.do(http.MethodGet, "/materials", tok, nil)
	assert.Equal(t, http.StatusPreconditionFailed, resp.StatusCode, string(body))

	resp, body = s.do(http.MethodGet, "/tests/mid", tok, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))

	resp, body = s.do(http.MethodGet, "/tests/pre", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var served struct {
		Questions []assessment.Question `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(body, &served))
	require.Len(t, served.Questions, 5)
	for i, q := range served.Questions {
		assert.Empty(t, q.Answer)
		assert.Equal(t, pre[i].ID, q.ID)
	}

	answers := map[string]string{pre[0].ID: "a", pre[1].ID: "b", pre[2].ID: "c", pre[3].ID: "a"}
	resp, body = s.do(http.MethodPost, "/tests/pre/submit", tok, map[string]any{"answers": answers})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var res assessment.TestResult
	require.NoError(t, json.Unmarshal(body, &res))
	assert.InDelta(t, 60.0, res.Score, 1e-9)

	resp, _ = s.do(http.MethodPost, "/tests/pre/submit", tok, map[string]any{"answers": answers})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp, _ = s.do(http.MethodGet, "/tests/pre", tok, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = s.do(http.MethodGet, "/tests/post/eligibility", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"phase":"post","eligibility":"allowed"}`, string(body))

	resp, _ = s.do(http.MethodGet, "/materials", tok, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = s.do(http.MethodGet, "/tests/pre/result", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rv assessment.Review
	require.NoError(t, json.Unmarshal(body, &rv))
	assert.Equal(t, res.ID, rv.Result.ID)
	require.Len(t, rv.Items, 5)
	assert.Equal(t, "", rv.Items[4].Chosen)

	resp, _ = s.do(http.MethodGet, "/tests/post/result", tok, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = s.do(http.MethodGet, "/me/dashboard", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var d assessment.Dashboard
	require.NoError(t, json.Unmarshal(body, &d))
	assert.Equal(t, assessment.AlreadyCompleted, d.Eligibility[assessment.PhasePre])
	assert.NotNil(t, d.Results[assessment.PhasePre])
}

func TestLearnerCannotReachAdmin(t *testing.T) {
	s := newServer(t, false)
	tok, _ := s.register("Ana", "ana")
	for _, path := range []string{"/admin/summary", "/admin/results", "/admin/export", "/admin/learners", "/admin/questions"} {
		resp, _ := s.do(http.MethodGet, path, tok, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, path)
	}
	resp, _ := s.do(http.MethodPost, "/admin/questions", tok, map[string]string{"phase": "pre"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdminResultsAndExport(t *testing.T) {
	s := newServer(t, false)
	pre := s.questions(assessment.PhasePre, "a", "a")
	post := s.questions(assessment.PhasePost, "b", "b")
	admin := s.admin()

	bTok, _ := s.register("Budi, Jr.", "budi")
	cTok, _ := s.register("Citra", "citra")
	submit := func(tok string, p assessment.Phase, ans map[string]string) {
		resp, body := s.do(http.MethodPost, "/tests/"+string(p)+"/submit", tok, map[string]any{"answers": ans})
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	}
	submit(bTok, assessment.PhasePre, map[string]string{pre[0].ID: "a"})
	submit(bTok, assessment.PhasePost, map[string]string{post[0].ID: "b", post[1].ID: "b"})
	submit(cTok, assessment.PhasePre, nil)

	resp, body := s.do(http.MethodGet, "/admin/summary", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sum aggregate.CohortSummary
	require.NoError(t, json.Unmarshal(body, &sum))
	assert.Equal(t, aggregate.CohortSummary{Learners: 2, PreCount: 2, PostCount: 1, PreAverage: 25, PostAverage: 100}, sum)

	resp, body = s.do(http.MethodGet, "/admin/results", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var results struct {
		Rows []struct {
			Learner     assessment.Learner    `json:"learner"`
			Improvement aggregate.Improvement `json:"improvement"`
			Display     []string              `json:"display"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(body, &results))
	require.Len(t, results.Rows, 2)
	assert.Equal(t, "budi", results.Rows[0].Learner.Username)
	assert.Equal(t, aggregate.Improved, results.Rows[0].Improvement.Class)
	assert.Equal(t, []string{"Budi, Jr.", "budi", "-", "-", "50.0", "100.0", "50.0", "Yes"}, results.Rows[0].Display)
	assert.Equal(t, aggregate.Incomplete, results.Rows[1].Improvement.Class)

	resp, body = s.do(http.MethodGet, "/admin/export?locale=id", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, aggregate.ContentType, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "hasil_prepost_test.csv")
	recs, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "Nama", recs[0][0])
	assert.Equal(t, "Budi, Jr.", recs[1][0])
	assert.Equal(t, "Ya", recs[1][7])
	assert.Equal(t, []string{"Citra", "citra", "-", "-", "0.0", "-", "-", "-"}, recs[2])
}

func TestAdminContentManagement(t *testing.T) {
	s := newServer(t, false)
	admin := s.admin()

	q := map[string]any{
		"phase": "pre", "prompt": "2+2?",
		"choices": map[string]string{"a": "3", "b": "4", "c": "5", "d": "6"},
		"answer":  "b",
	}
	resp, body := s.do(http.MethodPost, "/admin/questions", admin, q)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created assessment.Question
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, 1, created.Position)
	assert.NotEmpty(t, created.ID)

	q["answer"] = "e"
	resp, _ = s.do(http.MethodPost, "/admin/questions", admin, q)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = s.do(http.MethodGet, "/admin/questions", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var bank map[assessment.Phase][]assessment.Question
	require.NoError(t, json.Unmarshal(body, &bank))
	require.Len(t, bank[assessment.PhasePre], 1)
	assert.Equal(t, "b", bank[assessment.PhasePre][0].Answer)
	assert.Empty(t, bank[assessment.PhasePost])

	resp, _ = s.do(http.MethodDelete, "/admin/questions/"+created.ID, admin, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = s.do(http.MethodDelete, "/admin/questions/"+created.ID, admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = s.do(http.MethodPost, "/admin/materials", admin, map[string]string{
		"title": "Intro", "type": "text", "content": "<p>hello</p>",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	resp, body = s.do(http.MethodGet, "/admin/materials", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ms []assessment.MaterialItem
	require.NoError(t, json.Unmarshal(body, &ms))
	require.Len(t, ms, 1)
	resp, _ = s.do(http.MethodDelete, "/admin/materials/"+ms[0].ID, admin, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAdminLearnerManagementAndEvents(t *testing.T) {
	s := newServer(t, true)
	s.questions(assessment.PhasePre, "a")
	admin := s.admin()
	tok, id := s.register("Ana", "ana")

	resp, body := s.do(http.MethodPost, "/tests/pre/submit", tok, map[string]any{"answers": map[string]string{}})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = s.do(http.MethodGet, "/admin/learners", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var roster []assessment.RosterEntry
	require.NoError(t, json.Unmarshal(body, &roster))
	require.Len(t, roster, 1)
	assert.NotNil(t, roster[0].Pre)

	resp, body = s.do(http.MethodPost, "/admin/learners/"+id+"/reset", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"deleted_results":1}`, string(body))

	resp, _ = s.do(http.MethodGet, "/tests/pre/eligibility", tok, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = s.do(http.MethodDelete, "/admin/learners/"+id, admin, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = s.do(http.MethodGet, "/me/dashboard", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = s.do(http.MethodGet, "/admin/events?limit=10", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var evs []syncx.Event
	require.NoError(t, json.Unmarshal(body, &evs))
	require.Len(t, evs, 3)
	assert.Equal(t, syncx.TypeResultSubmitted, evs[0].Type)
	assert.Equal(t, syncx.TypeLearnerReset, evs[1].Type)
	assert.Equal(t, syncx.TypeLearnerRemoved, evs[2].Type)

	resp, _ = s.do(http.MethodGet, "/admin/events?after=x", admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMediaUpload(t *testing.T) {
	s := newServer(t, false)
	admin := s.admin()
	as := admin

	upload := func(typ, filename, content string) (*http.Response, []byte) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("type", typ))
		require.NoError(t, mw.WriteField("title", "Lecture"))
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		req, err := http.NewRequest(http.MethodPost, s.ts.URL+"/assets/materials", &buf)
		require.NoError(t, err)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+as)
		return s.send(req)
	}

	resp, body := upload("audio", "lecture.mp3", "ID3-bytes")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var m assessment.MaterialItem
	require.NoError(t, json.Unmarshal(body, &m))
	assert.Equal(t, assessment.MaterialAudio, m.Type)
	assert.Regexp(t, `^/assets/materials/[0-9a-f-]+\.mp3$`, m.Content)

	resp, body = s.do(http.MethodGet, m.Content, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ID3-bytes", string(body))

	resp, _ = upload("audio", "payload.exe", "MZ")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = upload("text", "notes.mp3", "x")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, "/assets/materials/missing.mp3", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	as, _ = s.register("Ana", "ana")
	resp, _ = upload("audio", "lecture.mp3", "ID3-bytes")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = s.do(http.MethodGet, "/materials", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var listed []assessment.MaterialItem
	require.NoError(t, json.Unmarshal(body, &listed))
	assert.Len(t, listed, 1)

	ms, err := s.content.Materials(context.Background())
	require.NoError(t, err)
	assert.Len(t, ms, 1)
}
