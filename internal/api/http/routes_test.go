package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weatherapi-bot/internal/commands"
	"github.com/i474232898/weatherapi-bot/internal/history"
	"github.com/i474232898/weatherapi-bot/internal/metrics"
	"github.com/i474232898/weatherapi-bot/internal/weather"
)

const testToken = "bot-token"

type fakeReporter struct{}

func (fakeReporter) Lookup(_ context.Context, place string, kind weather.ReportKind) (weather.Report, error) {
	if place == "Atlantis" {
		return weather.Report{}, &weather.LookupError{Kind: weather.ErrKindNotFound, Place: place, StatusCode: 400, Err: weather.ErrProviderStatus}
	}
	return weather.Report{Kind: kind, Place: place, Text: string(kind) + " for " + place}, nil
}

func newTestApp(t *testing.T) (*fiber.App, *history.MemoryStore) {
	t.Helper()
	hist := history.NewMemoryStore(50, time.Hour)
	m := metrics.New()
	d := commands.NewDispatcher(commands.Config{GuildID: "42"}, commands.DefaultRegistry(), fakeReporter{}, hist, m, zerolog.Nop())
	return NewApp(Deps{Dispatcher: d, History: hist, Metrics: m, BotToken: testToken}), hist
}

func do(t *testing.T, app *fiber.App, method, target, body string, auth bool) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if auth {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+testToken)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestHealthIsPublic(t *testing.T) {
	app, _ := newTestApp(t)

	resp := do(t, app, http.MethodGet, "/health", "", false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	decode(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 3, body["commands"])
}

func TestMetricsEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	do(t, app, http.MethodPost, "/api/v1/commands", `{"command":"weather","place":"Paris","guild_id":"42"}`, true)

	resp := do(t, app, http.MethodGet, "/metrics", "", false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `weatherbot_interactions_total{command="weather",source="api"} 1`)
}

func TestAPIRequiresBotToken(t *testing.T) {
	app, _ := newTestApp(t)

	resp := do(t, app, http.MethodGet, "/api/v1/commands", "", false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/commands", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer wrong")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body map[string]interface{}
	decode(t, resp, &body)
	assert.Equal(t, true, body["error"])
}

func TestListCommands(t *testing.T) {
	app, _ := newTestApp(t)

	resp := do(t, app, http.MethodGet, "/api/v1/commands", "", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		GuildID  string             `json:"guild_id"`
		Commands []commands.Command `json:"commands"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "42", body.GuildID)
	require.Len(t, body.Commands, 3)
	assert.Equal(t, "weather", body.Commands[0].Name)
	assert.Equal(t, weather.KindWeekly, body.Commands[2].Kind)
}

func TestPostCommand(t *testing.T) {
	app, hist := newTestApp(t)

	resp := do(t, app, http.MethodPost, "/api/v1/commands", `{"command":"today","place":"Paris","guild_id":"42","user":"alice"}`, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reply commands.Reply
	decode(t, resp, &reply)
	assert.Equal(t, commands.OutcomeOK, reply.Outcome)
	assert.Equal(t, "today_detailed for Paris", reply.Text)

	in, err := hist.Get(reply.InteractionID)
	require.NoError(t, err)
	assert.Equal(t, "alice", in.User)
	assert.Equal(t, "api", in.Source)
}

func TestPostCommandLookupFailureIsStillOK(t *testing.T) {
	app, _ := newTestApp(t)

	resp := do(t, app, http.MethodPost, "/api/v1/commands", `{"command":"weather","place":"Atlantis","guild_id":"42"}`, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reply commands.Reply
	decode(t, resp, &reply)
	assert.Equal(t, string(weather.ErrKindNotFound), reply.Outcome)
	assert.Equal(t, "⚠️ Could not fetch weather for **Atlantis**.", reply.Text)
}

func TestPostCommandErrors(t *testing.T) {
	app, _ := newTestApp(t)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"command":`, http.StatusBadRequest},
		{"missing command", `{"place":"Paris","guild_id":"42"}`, http.StatusBadRequest},
		{"missing guild", `{"command":"weather","place":"Paris"}`, http.StatusBadRequest},
		{"unknown command", `{"command":"rain","place":"Paris","guild_id":"42"}`, http.StatusBadRequest},
		{"wrong guild", `{"command":"weather","place":"Paris","guild_id":"7"}`, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := do(t, app, http.MethodPost, "/api/v1/commands", tc.body, true)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestDeferredInteraction(t *testing.T) {
	app, _ := newTestApp(t)

	resp := do(t, app, http.MethodPost, "/api/v1/interactions", `{"command":"weekly","place":"Paris","guild_id":"42"}`, true)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var ack history.Interaction
	decode(t, resp, &ack)
	require.NotEmpty(t, ack.ID)
	assert.Equal(t, history.StatusThinking, ack.Status)
	assert.Equal(t, "/api/v1/interactions/"+ack.ID, resp.Header.Get(fiber.HeaderLocation))

	var followUp history.Interaction
	require.Eventually(t, func() bool {
		resp := do(t, app, http.MethodGet, "/api/v1/interactions/"+ack.ID, "", true)
		if resp.StatusCode != http.StatusOK {
			return false
		}
		decode(t, resp, &followUp)
		return followUp.Status == history.StatusDone
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, "weekly_forecast for Paris", followUp.Reply)
	assert.Equal(t, commands.OutcomeOK, followUp.Outcome)
}

func TestGetUnknownInteraction(t *testing.T) {
	app, _ := newTestApp(t)

	resp := do(t, app, http.MethodGet, "/api/v1/interactions/does-not-exist", "", true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListInteractions(t *testing.T) {
	app, _ := newTestApp(t)

	for _, place := range []string{"Paris", "London"} {
		resp := do(t, app, http.MethodPost, "/api/v1/commands", `{"command":"weather","place":"`+place+`","guild_id":"42"}`, true)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := do(t, app, http.MethodGet, "/api/v1/interactions?limit=1", "", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Interactions []history.Interaction `json:"interactions"`
	}
	decode(t, resp, &body)
	require.Len(t, body.Interactions, 1)
	assert.Equal(t, "London", body.Interactions[0].Place)

	resp = do(t, app, http.MethodGet, "/api/v1/interactions?limit=0", "", true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWeatherTextEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	resp := do(t, app, http.MethodGet, "/api/v1/weather/weather?place=Paris", "", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, commands.OutcomeOK, resp.Header.Get("X-Weather-Outcome"))
	assert.True(t, strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMETextPlain))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "current for Paris", string(raw))

	resp = do(t, app, http.MethodGet, "/api/v1/weather/weather", "", true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(weather.ErrKindInvalidPlace), resp.Header.Get("X-Weather-Outcome"))
}

func TestStoredInteractionsSurviveKeepAliveReuse(t *testing.T) {
	app, hist := newTestApp(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	client := &http.Client{Timeout: 5 * time.Second}
	base := "http://" + ln.Addr().String() + "/api/v1/weather/weather?"
	get := func(query string) {
		req, err := http.NewRequest(http.MethodGet, base+query, nil)
		require.NoError(t, err)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+testToken)
		resp, err := client.Do(req)
		require.NoError(t, err)
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	get("place=Paris&user=alice")
	for i := 0; i < 5; i++ {
		get("place=Lille&user=yyyyy")
	}

	recent := hist.Recent(0)
	require.Len(t, recent, 6)
	first := recent[len(recent)-1]
	assert.Equal(t, "Paris", first.Place)
	assert.Equal(t, "alice", first.User)
	assert.Equal(t, "current for Paris", first.Reply)
}

func TestPostCommandAcceptsFormBody(t *testing.T) {
	app, hist := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/commands",
		strings.NewReader("command=weekly&place=Paris&guild_id=42&user=bob"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+testToken)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reply commands.Reply
	decode(t, resp, &reply)
	assert.Equal(t, "weekly", reply.Command)
	assert.Equal(t, "weekly_forecast for Paris", reply.Text)

	in, err := hist.Get(reply.InteractionID)
	require.NoError(t, err)
	assert.Equal(t, "bob", in.User)
}
