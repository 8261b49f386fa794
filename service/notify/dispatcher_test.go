package notify

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobgate/jobgate/internal/clock"
	"github.com/jobgate/jobgate/service/approval"
	"github.com/jobgate/jobgate/service/identity"
)

type capture struct {
	mu     sync.Mutex
	bodies [][]byte
	auth   []string
}

func (c *capture) handler(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		c.bodies = append(c.bodies, body)
		c.auth = append(c.auth, r.Header.Get("Authorization"))
		c.mu.Unlock()
		w.WriteHeader(status)
	}
}

func (c *capture) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.bodies)
}

func newRequest(t *testing.T) *approval.Request {
	t.Helper()
	now := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
	clock.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { clock.NowFunc = time.Now })
	return approval.NewRequest("prod-deploy",
		map[string]interface{}{"env": "production", "version": "1.2.3"},
		identity.Identity{ID: "userA", DisplayName: "User A"},
		30*time.Minute)
}

func TestDispatcher_Notify(t *testing.T) {
	received := &capture{}
	server := httptest.NewServer(received.handler(http.StatusOK))
	defer server.Close()

	cfg := Config{WebhookURL: server.URL, BaseURL: "https://gate.example.com"}
	dispatcher := New(func() Config { return cfg })

	request := newRequest(t)
	dispatcher.Notify(request)
	dispatcher.WaitIdle()

	require.Equal(t, 1, received.count())
	var payload message
	require.NoError(t, json.Unmarshal(received.bodies[0], &payload))
	assert.Equal(t, "message", payload.Type)
	require.Len(t, payload.Attachments, 1)
	assert.Equal(t, cardContentType, payload.Attachments[0].ContentType)

	content := payload.Attachments[0].Content
	require.NotEmpty(t, content.Body)
	assert.Equal(t, "Approval required", content.Body[0].Text)

	var facts []fact
	for _, el := range content.Body {
		if el.Type == "FactSet" {
			facts = el.Facts
		}
	}
	require.Len(t, facts, 4)
	assert.Equal(t, fact{Title: "Resource", Value: "prod-deploy"}, facts[0])
	assert.Equal(t, fact{Title: "Requested by", Value: "User A"}, facts[1])
	assert.Equal(t, fact{Title: "Request ID", Value: request.ID}, facts[2])
	assert.Equal(t, fact{Title: "Expires in", Value: "30 minutes"}, facts[3])

	require.Len(t, content.Actions, 2)
	assert.Equal(t, "https://gate.example.com/approvals/"+request.ID, content.Actions[0].URL)
	assert.Equal(t, "https://gate.example.com/resources/prod-deploy", content.Actions[1].URL)
}

func TestDispatcher_NoWebhookConfigured(t *testing.T) {
	dispatcher := New(func() Config { return Config{} })
	dispatcher.Notify(newRequest(t))
	dispatcher.WaitIdle()
}

func TestDispatcher_FailureIsSwallowed(t *testing.T) {
	received := &capture{}
	server := httptest.NewServer(received.handler(http.StatusBadGateway))
	cfg := Config{WebhookURL: server.URL}
	dispatcher := New(func() Config { return cfg })

	dispatcher.Notify(newRequest(t))
	dispatcher.WaitIdle()
	assert.Equal(t, 1, received.count())

	// One attempt only, also when the endpoint is unreachable.
	server.Close()
	dispatcher.Notify(newRequest(t))
	dispatcher.WaitIdle()
	assert.Equal(t, 1, received.count())
}

func TestDispatcher_SaturationDropsInsteadOfBlocking(t *testing.T) {
	release := make(chan struct{})
	var started, completed atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		started.Add(1)
		<-release
		completed.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := Config{WebhookURL: server.URL}
	dispatcher := New(func() Config { return cfg }, WithMaxInFlight(1))

	dispatcher.Notify(newRequest(t))
	require.Eventually(t, func() bool { return started.Load() == 1 }, time.Second, 5*time.Millisecond)

	// The single slot is held by the stalled delivery; this call must return
	// without waiting for it.
	second := newRequest(t)
	finished := make(chan struct{})
	go func() {
		dispatcher.Notify(second)
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a saturated dispatcher")
	}

	close(release)
	dispatcher.WaitIdle()
	assert.Equal(t, int32(1), completed.Load())
}

func TestDispatcher_ConfigReadPerDispatch(t *testing.T) {
	received := &capture{}
	server := httptest.NewServer(received.handler(http.StatusOK))
	defer server.Close()

	var mu sync.Mutex
	current := Config{}
	dispatcher := New(func() Config {
		mu.Lock()
		defer mu.Unlock()
		return current
	})

	dispatcher.Notify(newRequest(t))
	dispatcher.WaitIdle()
	assert.Equal(t, 0, received.count())

	mu.Lock()
	current = Config{WebhookURL: server.URL}
	mu.Unlock()
	dispatcher.Notify(newRequest(t))
	dispatcher.WaitIdle()
	assert.Equal(t, 1, received.count())
}

func TestParameterSummary(t *testing.T) {
	assert.Equal(t, "_No parameters_", parameterSummary(nil))
	summary := parameterSummary(map[string]interface{}{"version": "1.2.3", "count": 7})
	assert.Equal(t, "- **count**: 7\n- **version**: 1.2.3", summary)
}
