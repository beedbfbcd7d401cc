package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/faqbot/internal/crawler"
	"github.com/bull/faqbot/internal/ingest"
	"github.com/bull/faqbot/internal/tenant"
)

type fakePipeline struct {
	err    error
	teamID string
	url    string
}

func (f *fakePipeline) Ingest(_ context.Context, teamID, baseURL string) (*ingest.Result, error) {
	f.teamID, f.url = teamID, baseURL
	if f.err != nil {
		return nil, f.err
	}
	return &ingest.Result{Articles: 2, Chunks: 2}, nil
}

type fakeResponder struct {
	answer       string
	teamID       string
	question     string
	instructions string
	calls        int
}

func (f *fakeResponder) Answer(_ context.Context, teamID, question, instructions string) string {
	f.calls++
	f.teamID, f.question, f.instructions = teamID, question, instructions
	return f.answer
}

type fakeTeams struct {
	instructions map[string]string
	created      []string
	saved        map[string]string
}

func newFakeTeams() *fakeTeams {
	return &fakeTeams{instructions: map[string]string{}, saved: map[string]string{}}
}

func (f *fakeTeams) GetOrCreate(_ context.Context, teamID string) (*tenant.Team, error) {
	f.created = append(f.created, teamID)
	return &tenant.Team{ID: teamID, Instructions: f.instructions[teamID]}, nil
}

func (f *fakeTeams) Get(_ context.Context, teamID string) (*tenant.Team, error) {
	text, ok := f.instructions[teamID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", tenant.ErrNotFound, teamID)
	}
	return &tenant.Team{ID: teamID, Instructions: text}, nil
}

func (f *fakeTeams) SetInstructions(_ context.Context, teamID, text string) error {
	f.saved[teamID] = text
	return nil
}

type fakeHealth struct{ err error }

func (f *fakeHealth) Health(context.Context) error { return f.err }

type fakeNotifier struct {
	chatID int64
	text   string
	calls  int
}

func (f *fakeNotifier) SendMessage(_ context.Context, chatID int64, text string) error {
	f.calls++
	f.chatID, f.text = chatID, text
	return nil
}

type deps struct {
	pipeline  *fakePipeline
	responder *fakeResponder
	teams     *fakeTeams
	notifier  *fakeNotifier
}

func newTestServer(t *testing.T, defaultTeam string) (*httptest.Server, *deps) {
	t.Helper()
	d := &deps{
		pipeline:  &fakePipeline{},
		responder: &fakeResponder{answer: "the answer"},
		teams:     newFakeTeams(),
		notifier:  &fakeNotifier{},
	}
	srv := NewServer(&Config{
		Pipeline:      d.pipeline,
		Responder:     d.responder,
		Teams:         d.teams,
		Health:        &fakeHealth{},
		Notifier:      d.notifier,
		DefaultTeamID: defaultTeam,
	})
	ts := httptest.NewServer(srv.Router(nil))
	t.Cleanup(ts.Close)
	return ts, d
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestScrape_Success(t *testing.T) {
	ts, d := newTestServer(t, "")

	resp, body := postJSON(t, ts.URL+"/api/scrape/",
		`{"team_id": 42, "url": "https://h.example.com/support/solutions", "custom_instructions": "Be brief."}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Data for team 42 has been updated.", body["message"])
	assert.Equal(t, "42", d.pipeline.teamID)
	assert.Equal(t, []string{"42"}, d.teams.created)
	assert.Equal(t, "Be brief.", d.teams.saved["42"])
}

func TestScrape_StringTeamID(t *testing.T) {
	ts, d := newTestServer(t, "")

	resp, _ := postJSON(t, ts.URL+"/api/scrape/",
		`{"team_id": "acme", "url": "https://h.example.com"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "acme", d.pipeline.teamID)
	assert.Empty(t, d.teams.saved, "no instructions supplied, none persisted")
}

func TestScrape_MissingFields(t *testing.T) {
	ts, _ := newTestServer(t, "")

	for name, body := range map[string]string{
		"no team": `{"url": "https://h.example.com"}`,
		"no url":  `{"team_id": "acme"}`,
		"bad json": `{`,
	} {
		t.Run(name, func(t *testing.T) {
			resp, decoded := postJSON(t, ts.URL+"/api/scrape/", body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, decoded["error"])
		})
	}
}

func TestScrape_NoPagesIsClientError(t *testing.T) {
	ts, d := newTestServer(t, "")
	d.pipeline.err = fmt.Errorf("crawl: %w", crawler.ErrNoPages)

	resp, _ := postJSON(t, ts.URL+"/api/scrape/",
		`{"team_id": "acme", "url": "https://h.example.com"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestScrape_InternalError(t *testing.T) {
	ts, d := newTestServer(t, "")
	d.pipeline.err = errors.New("qdrant unavailable")

	resp, body := postJSON(t, ts.URL+"/api/scrape/",
		`{"team_id": "acme", "url": "https://h.example.com"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "ingestion failed", body["error"])
}

func TestQuery_Success(t *testing.T) {
	ts, d := newTestServer(t, "")
	d.teams.instructions["acme"] = "Answer in French."

	resp, body := postJSON(t, ts.URL+"/api/query/",
		`{"team_id": "acme", "message": "how do I export?"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "the answer", body["answer"])
	assert.Equal(t, "acme", d.responder.teamID)
	assert.Equal(t, "how do I export?", d.responder.question)
	assert.Equal(t, "Answer in French.", d.responder.instructions)
}

func TestQuery_DefaultTeamFallback(t *testing.T) {
	ts, d := newTestServer(t, "123")

	resp, _ := postJSON(t, ts.URL+"/api/query/", `{"message": "hi"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "123", d.responder.teamID)
	assert.Empty(t, d.responder.instructions, "unknown team runs with default prompt")
}

func TestQuery_NoTeamNoDefault(t *testing.T) {
	ts, d := newTestServer(t, "")

	resp, _ := postJSON(t, ts.URL+"/api/query/", `{"message": "hi"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, d.responder.calls)
}

func TestQuery_MissingMessage(t *testing.T) {
	ts, _ := newTestServer(t, "123")

	resp, _ := postJSON(t, ts.URL+"/api/query/", `{"team_id": "acme"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebhook_RelaysAnswer(t *testing.T) {
	ts, d := newTestServer(t, "123")

	resp, err := http.Post(ts.URL+"/telegram/webhook/", "application/json",
		bytes.NewBufferString(`{"message": {"chat": {"id": 777}, "text": "reset password?"}}`))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "123", d.responder.teamID)
	assert.Equal(t, int64(777), d.notifier.chatID)
	assert.Equal(t, "the answer", d.notifier.text)
}

func TestWebhook_MalformedAlways200(t *testing.T) {
	ts, d := newTestServer(t, "123")

	for name, body := range map[string]string{
		"not json":   `???`,
		"no message": `{}`,
		"no chat":    `{"message": {"text": "hi"}}`,
		"no text":    `{"message": {"chat": {"id": 1}}}`,
	} {
		t.Run(name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/telegram/webhook/", "application/json",
				bytes.NewBufferString(body))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}
	assert.Zero(t, d.notifier.calls)
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "connected", body.Qdrant)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestHealth_Unavailable(t *testing.T) {
	srv := NewServer(&Config{
		Health: &fakeHealth{err: errors.New("dial refused")},
		Teams:  newFakeTeams(),
	})
	ts := httptest.NewServer(srv.Router(nil))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestFlexID(t *testing.T) {
	var req queryRequest
	require.NoError(t, json.Unmarshal([]byte(`{"team_id": 99, "message": "m"}`), &req))
	assert.Equal(t, flexID("99"), req.TeamID)

	require.NoError(t, json.Unmarshal([]byte(`{"team_id": "abc", "message": "m"}`), &req))
	assert.Equal(t, flexID("abc"), req.TeamID)

	require.NoError(t, json.Unmarshal([]byte(`{"team_id": null, "message": "m"}`), &req))
	assert.Equal(t, flexID(""), req.TeamID)

	assert.Error(t, json.Unmarshal([]byte(`{"team_id": {"x": 1}}`), &req))
}
