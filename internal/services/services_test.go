package services

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"xjsf/internal/clients"
	"xjsf/internal/models"
	"xjsf/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func intPtr(v int) *int { return &v }

func newHub(t *testing.T, roster *models.Roster) *service.Hub {
	t.Helper()
	now := func() time.Time { return time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC) }
	reg, err := clients.NewRegistry(roster, clients.WithClock(now), clients.WithLogger(quiet))
	require.NoError(t, err)
	hub := service.NewHub(clients.NewResolver(reg, false), service.WithLogger(quiet))
	require.NoError(t, RegisterBuiltins(hub))
	return hub
}

func call(t *testing.T, hub *service.Hub, name, query string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/services/"+name+"?"+query, nil)
	w := httptest.NewRecorder()
	require.NoError(t, hub.Dispatch(w, req, name))
	return w
}

func callJSON(t *testing.T, hub *service.Hub, name, query string, out any) {
	t.Helper()
	if query != "" {
		query += "&"
	}
	w := call(t, hub, name, query+"responseFormat=json")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

type plainService struct{ desc *service.Descriptor }

func (p plainService) Descriptor() *service.Descriptor { return p.desc }
func (p plainService) Respond(*http.Request) (models.Payload, error) {
	return &models.Result{Value: p.desc.Name}, nil
}

func TestRegisterBuiltins(t *testing.T) {
	hub := newHub(t, nil)
	assert.Equal(t, []string{"echo", "listServices", "usage"}, hub.Names())
	assert.ErrorIs(t, RegisterBuiltins(hub), service.ErrDuplicateService)
}

func TestListServices_Ordering(t *testing.T) {
	hub := newHub(t, nil)
	for _, d := range []*service.Descriptor{
		{Name: "wikify", Group: "text", Summary: "Adds links"},
		{Name: "compare", Group: "analysis", Summary: "Compares terms"},
		{Name: "annotate", Group: "text", Summary: "Annotates"},
		{Name: "misc"},
		{Name: "ping", Group: GroupCore, Summary: "Ping"},
	} {
		require.NoError(t, hub.Register(plainService{desc: d}))
	}

	var catalog Catalog
	callJSON(t, hub, "listServices", "", &catalog)

	var groups []string
	for _, g := range catalog.Groups {
		groups = append(groups, g.Name)
	}
	assert.Equal(t, []string{GroupCore, "analysis", "text", service.DefaultGroup, GroupMeta}, groups)

	assert.Equal(t, []CatalogService{
		{Name: "echo", Summary: "Sends your message back"},
		{Name: "ping", Summary: "Ping"},
	}, catalog.Groups[0].Services)
	assert.Equal(t, "annotate", catalog.Groups[2].Services[0].Name)
	assert.Equal(t, "wikify", catalog.Groups[2].Services[1].Name)
	assert.Equal(t, []CatalogService{
		{Name: "listServices", Summary: "Lists available services"},
		{Name: "usage", Summary: "Reports how much of your usage allowance you have consumed"},
	}, catalog.Groups[4].Services)
}

func TestListServices_XML(t *testing.T) {
	hub := newHub(t, nil)
	body := call(t, hub, "listServices", "").Body.String()

	assert.Contains(t, body, `<serviceGroup name="core">`)
	assert.Contains(t, body, `<service name="echo">Sends your message back</service>`)
	assert.Less(t, strings.Index(body, `name="core"`), strings.Index(body, `name="meta"`))
}

func TestCompareGroups(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{GroupCore, GroupCore, 0},
		{GroupCore, "aaa", -1},
		{"zzz", GroupCore, 1},
		{GroupMeta, "zzz", 1},
		{"aaa", GroupMeta, -1},
		{GroupCore, GroupMeta, -1},
		{"alpha", "beta", -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, compareGroups(tt.a, tt.b), "%s vs %s", tt.a, tt.b)
	}
}

func TestUsage_IsFreeAndReportsWindows(t *testing.T) {
	hub := newHub(t, &models.Roster{Clients: []models.RosterEntry{
		{MinuteLimit: intPtr(2), HourLimit: intPtr(50)},
	}})

	call(t, hub, "echo", "message=hi")

	for range 3 {
		var report UsageReport
		callJSON(t, hub, "usage", "", &report)

		assert.Equal(t, models.EnvelopeOK, report.Status)
		assert.Equal(t, "192.0.2.1", report.Client.ID)
		assert.Equal(t, clients.Limits{PerMinute: 2, PerHour: 50, PerDay: clients.Unlimited}, report.Client.Limits)
		require.Len(t, report.Client.Windows, 3)
		assert.Equal(t, "minute", report.Client.Windows[0].Window)
		assert.Equal(t, 1, report.Client.Windows[0].Used)
		assert.Equal(t, 2, report.Client.Windows[0].Limit)
		assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), report.Client.Windows[1].Start)
	}
}

func TestUsage_UnverifiedCookie(t *testing.T) {
	hub := newHub(t, &models.Roster{
		Authentication: models.Authentication{NameCookie: "u", PasswordCookie: "p"},
		Clients:        []models.RosterEntry{{}},
	})

	req := httptest.NewRequest(http.MethodGet, "/services/usage", nil)
	req.AddCookie(&http.Cookie{Name: "u", Value: "ghost"})
	w := httptest.NewRecorder()
	require.NoError(t, hub.Dispatch(w, req, "usage"))

	assert.Contains(t, w.Body.String(), `code="UNKNOWN_CLIENT"`)
}

func TestEcho(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		group   string
		text    string
		tags    []string
		changes []string
	}{
		{name: "plain", query: "message=hello", group: "plain", text: "hello"},
		{name: "repeat", query: "message=ho&repeat=3", group: "plain", text: "ho ho ho"},
		{name: "upper", query: "message=Hello&transform=UPPER&repeat=2", group: "plain", text: "HELLO HELLO"},
		{name: "lower", query: "message=Hello&transform=lower", group: "plain", text: "hello"},
		{name: "tagged", query: "message=hi&tags=a;b:c", group: "tagged", text: "hi", tags: []string{"a", "b", "c"}},
		{
			name: "since", query: "message=hi&since=1.1", group: "plain", text: "hi",
			changes: []string{"1.2.0: tags parameter group", "1.3.0: direct text output"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := newHub(t, nil)
			var out EchoResult
			callJSON(t, hub, "echo", tt.query, &out)

			assert.Equal(t, models.EnvelopeOK, out.Status)
			assert.Equal(t, tt.group, out.Group)
			assert.Equal(t, tt.text, out.Text)
			assert.Equal(t, tt.tags, out.Tags)
			assert.Equal(t, tt.changes, out.Changes)
		})
	}
}

func TestEcho_InvalidParameters(t *testing.T) {
	tests := []struct {
		query     string
		parameter string
	}{
		{"", "message"},
		{"message=", "message"},
		{"message=hi&repeat=0", "repeat"},
		{"message=hi&repeat=lots", "repeat"},
		{"message=hi&transform=sideways", "transform"},
		{"message=hi&since=not-a-version", "since"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			hub := newHub(t, nil)
			var msg models.ErrorMessage
			callJSON(t, hub, "echo", tt.query, &msg)

			assert.Equal(t, models.ErrorCodeInvalidParameter, msg.Code)
			assert.Equal(t, tt.parameter, msg.Parameter)
		})
	}
}

func TestEcho_Direct(t *testing.T) {
	hub := newHub(t, nil)

	w := call(t, hub, "echo", "message=hey&repeat=2&responseFormat=direct")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "hey hey\n", w.Body.String())

	w = call(t, hub, "echo", "responseFormat=direct")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEcho_Help(t *testing.T) {
	hub := newHub(t, nil)
	var help models.HelpMessage
	callJSON(t, hub, "echo", "help=1", &help)

	d := help.Description
	assert.Equal(t, "echo", d.Name)
	assert.Equal(t, GroupCore, d.Group)
	assert.True(t, d.Direct)
	require.Len(t, d.Groups, 2)
	assert.Equal(t, "tagged", d.Groups[0].Name)
	require.Len(t, d.GlobalParameters, 3)
	assert.Equal(t, "enum", d.GlobalParameters[1].Type)
	assert.Len(t, d.GlobalParameters[1].Values, 3)
	require.Len(t, d.Examples, 2)
	assert.Equal(t, "echo?message=hello&repeat=2&transform=upper", d.Examples[0].URL)
}
