package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/jobgate/jobgate/service/approval"
	"github.com/jobgate/jobgate/tracing"
	"github.com/viant/scy"
)

// Config is the delivery target read for every dispatch, so configuration
// updates take effect without rebuilding the dispatcher.
type Config struct {
	// WebhookURL is the endpoint notified on request creation.  Empty means
	// notifications are disabled.
	WebhookURL string `json:"webhookURL,omitempty" yaml:"webhookURL,omitempty"`

	// BaseURL is the public address of the approval UI used to build the
	// review and resource links embedded in the card.
	BaseURL string `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`

	// AuthSecretURL optionally points at a scy secret resource whose content
	// is sent as a bearer token with each delivery.
	AuthSecretURL string `json:"authSecretURL,omitempty" yaml:"authSecretURL,omitempty"`

	// AuthSecretKey is the scy encryption key for AuthSecretURL, e.g.
	// "blowfish://default".
	AuthSecretKey string `json:"authSecretKey,omitempty" yaml:"authSecretKey,omitempty"`

	// Timeout bounds a single delivery attempt end to end.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

const defaultTimeout = 30 * time.Second

// Dispatcher posts notification cards to the configured webhook.
type Dispatcher struct {
	source  func() Config
	client  *http.Client
	secrets *scy.Service

	// inflight bounds concurrent deliveries and lets WaitIdle drain them;
	// when saturated, further notifications are dropped, never queued.
	inflight chan struct{}
}

// Option customises the dispatcher.
type Option func(*Dispatcher)

// WithHTTPClient replaces the HTTP client used for deliveries.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Dispatcher) { d.client = client }
}

// WithMaxInFlight bounds concurrent deliveries; notifications beyond the
// bound are dropped rather than queued.
func WithMaxInFlight(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.inflight = make(chan struct{}, n)
		}
	}
}

// New creates a dispatcher.  source supplies the current delivery
// configuration and is consulted on every dispatch.
func New(source func() Config, options ...Option) *Dispatcher {
	ret := &Dispatcher{
		source:   source,
		client:   &http.Client{},
		secrets:  scy.New(),
		inflight: make(chan struct{}, 1024),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Notify builds the notification for a newly created request and delivers it
// on a detached goroutine.  It returns immediately; delivery failures are
// logged and never surface to the caller.  Exactly one attempt is made.
func (d *Dispatcher) Notify(request *approval.Request) {
	cfg := d.source()
	if cfg.WebhookURL == "" {
		return
	}
	var reviewURL, resourceURL string
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if base[len(base)-1] != '/' {
			base += "/"
		}
		reviewURL = base + "approvals/" + request.ID
		resourceURL = base + "resources/" + request.Resource
	}
	payload := buildMessage(request, reviewURL, resourceURL)

	// When every in-flight slot is taken (webhook outage, sustained burst)
	// the notification is dropped instead of stalling request creation.
	select {
	case d.inflight <- struct{}{}:
	default:
		log.Printf("notify: dropped webhook notification for approval %s: deliveries saturated", request.ID)
		return
	}
	go func() {
		defer func() { <-d.inflight }()
		d.deliver(cfg, request.ID, payload)
	}()
}

// deliver performs the single POST attempt with its own timeout; the
// originating call cannot cancel it.
func (d *Dispatcher) deliver(cfg Config, requestID string, payload *message) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ctx, span := tracing.StartSpan(ctx, "notify.webhook", "CLIENT")
	span.WithAttributes(map[string]string{"approval.request_id": requestID})
	defer span.End()

	body, err := json.Marshal(payload)
	if err != nil {
		span.SetStatus(err)
		log.Printf("notify: failed to encode payload for approval %s: %v", requestID, err)
		return
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		span.SetStatus(err)
		log.Printf("notify: malformed webhook endpoint for approval %s: %v", requestID, err)
		return
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	if token := d.authToken(ctx, cfg); token != "" {
		httpRequest.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := d.client.Do(httpRequest)
	if err != nil {
		span.SetStatus(err)
		log.Printf("notify: webhook delivery failed for approval %s: %v", requestID, err)
		return
	}
	defer response.Body.Close()
	span.SetStatusFromHTTPCode(response.StatusCode)

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		log.Printf("notify: webhook delivery for approval %s returned %d", requestID, response.StatusCode)
		return
	}
	log.Printf("notify: webhook notification sent for approval %s", requestID)
}

// authToken resolves the optional bearer token secret; failures degrade to
// an unauthenticated delivery.
func (d *Dispatcher) authToken(ctx context.Context, cfg Config) string {
	if cfg.AuthSecretURL == "" {
		return ""
	}
	resource := scy.NewResource(nil, cfg.AuthSecretURL, cfg.AuthSecretKey)
	secret, err := d.secrets.Load(ctx, resource)
	if err != nil {
		log.Printf("notify: failed to resolve webhook auth secret: %v", err)
		return ""
	}
	return secret.String()
}

// WaitIdle blocks until all in-flight deliveries finished; used by tests and
// graceful shutdown.
func (d *Dispatcher) WaitIdle() {
	for i := 0; i < cap(d.inflight); i++ {
		d.inflight <- struct{}{}
	}
	for i := 0; i < cap(d.inflight); i++ {
		<-d.inflight
	}
}
