package oauthlink

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/ashureev/notifyhub/internal/domain"
	"github.com/ashureev/notifyhub/internal/notify"
	"github.com/ashureev/notifyhub/internal/shared"
)

type call struct {
	method, path string
	body         any
}

type fakeClient struct {
	mu       sync.Mutex
	calls    []call
	status   domain.LinkStatus
	connect  linkResponse
	exchange linkResponse
	err      map[string]error
}

func (f *fakeClient) Get(_ context.Context, path string, out any) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{method: "GET", path: path})
	if err := f.err[path]; err != nil {
		return 0, err
	}
	switch path {
	case StatusPath:
		*out.(*domain.LinkStatus) = f.status
	case ConnectPath:
		*out.(*linkResponse) = f.connect
	}
	return 200, nil
}

func (f *fakeClient) Post(_ context.Context, path string, in, out any) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{method: "POST", path: path, body: in})
	if err := f.err[path]; err != nil {
		return 0, err
	}
	*out.(*linkResponse) = f.exchange
	return 200, nil
}

func (f *fakeClient) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.path == path {
			n++
		}
	}
	return n
}

type fakeSessions struct{ token string }

func (f fakeSessions) Token() string { return f.token }

type fakeNav struct {
	replaced  []string
	navigated []string
}

func (n *fakeNav) Replace(u string)  { n.replaced = append(n.replaced, u) }
func (n *fakeNav) Navigate(u string) { n.navigated = append(n.navigated, u) }

type fakeFeed struct{ refreshes int }

func (f *fakeFeed) Refresh(context.Context) error {
	f.refreshes++
	return nil
}

func mustURL(t *testing.T, s string) *url.URL {
	t.Helper()
	u, err := url.Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return u
}

func TestInterceptNormalizesBeforeReturning(t *testing.T) {
	nav := &fakeNav{}
	c := NewController(&fakeClient{}, fakeSessions{}, nav, nil, nil)

	cb := c.Intercept(mustURL(t, "http://hub.local/dashboard?gmail_code=X&gmail_state=Y"))
	if cb.Kind != domain.CallbackCodeExchange {
		t.Fatalf("kind = %s", cb.Kind)
	}
	if len(nav.replaced) != 1 || nav.replaced[0] != "http://hub.local/dashboard" {
		t.Fatalf("replaced = %v", nav.replaced)
	}

	nav.replaced = nil
	c.Intercept(mustURL(t, "http://hub.local/dashboard"))
	if len(nav.replaced) != 0 {
		t.Fatalf("clean URL should not be replaced, got %v", nav.replaced)
	}
}

func TestInterceptKeepsAppMessageParams(t *testing.T) {
	nav := &fakeNav{}
	c := NewController(&fakeClient{}, fakeSessions{}, nav, nil, nil)

	cb := c.Intercept(mustURL(t, "https://app.example/search?q=x&message=hello&error=none"))
	if cb.Kind != domain.CallbackNone {
		t.Fatalf("kind = %s", cb.Kind)
	}
	if len(nav.replaced) != 0 {
		t.Fatalf("URL without a callback must not be replaced, got %v", nav.replaced)
	}
}

func TestResolveExchangeWithoutSession(t *testing.T) {
	client := &fakeClient{}
	rec := &notify.Recorder{}
	c := NewController(client, fakeSessions{}, &fakeNav{}, rec, nil)

	cb := domain.OAuthCallback{Kind: domain.CallbackCodeExchange, Code: "X", State: "Y"}
	refreshed, err := c.Resolve(context.Background(), cb, &fakeFeed{})
	if err != nil || refreshed {
		t.Fatalf("Resolve = %v, %v", refreshed, err)
	}
	if client.count(ExchangePath) != 0 {
		t.Fatal("expected no exchange request")
	}
	if rec.Count(MsgLoginFirstExchange) != 1 {
		t.Fatalf("notes = %+v", rec.All())
	}
}

func TestResolveExchangeWithSession(t *testing.T) {
	client := &fakeClient{exchange: linkResponse{Success: true}}
	rec := &notify.Recorder{}
	feed := &fakeFeed{}
	c := NewController(client, fakeSessions{token: "t"}, &fakeNav{}, rec, nil)

	cb := domain.OAuthCallback{Kind: domain.CallbackCodeExchange, Code: "X", State: "Y"}
	refreshed, err := c.Resolve(context.Background(), cb, feed)
	if err != nil || !refreshed {
		t.Fatalf("Resolve = %v, %v", refreshed, err)
	}
	if client.count(ExchangePath) != 1 {
		t.Fatalf("exchange requests = %d", client.count(ExchangePath))
	}
	body := client.calls[0].body.(exchangeRequest)
	if body.Code != "X" || body.State != "Y" {
		t.Fatalf("body = %+v", body)
	}
	if feed.refreshes != 1 || rec.Count(MsgConnected) != 1 {
		t.Fatalf("refreshes = %d, notes = %+v", feed.refreshes, rec.All())
	}
}

func TestResolveExchangeRejected(t *testing.T) {
	client := &fakeClient{exchange: linkResponse{Success: false, Message: "Invalid state"}}
	rec := &notify.Recorder{}
	feed := &fakeFeed{}
	c := NewController(client, fakeSessions{token: "t"}, &fakeNav{}, rec, nil)

	refreshed, err := c.Resolve(context.Background(), domain.OAuthCallback{Kind: domain.CallbackCodeExchange, Code: "X"}, feed)
	if err != nil || refreshed || feed.refreshes != 0 {
		t.Fatalf("Resolve = %v, %v, refreshes %d", refreshed, err, feed.refreshes)
	}
	if rec.Count("Failed to connect Gmail: Invalid state") != 1 {
		t.Fatalf("notes = %+v", rec.All())
	}
}

func TestResolveExchangeUnauthorizedPropagates(t *testing.T) {
	client := &fakeClient{err: map[string]error{ExchangePath: shared.ErrUnauthorized}}
	rec := &notify.Recorder{}
	c := NewController(client, fakeSessions{token: "t"}, &fakeNav{}, rec, nil)

	_, err := c.Resolve(context.Background(), domain.OAuthCallback{Kind: domain.CallbackCodeExchange, Code: "X"}, &fakeFeed{})
	if !errors.Is(err, shared.ErrUnauthorized) {
		t.Fatalf("err = %v", err)
	}
	if len(rec.All()) != 0 {
		t.Fatalf("unexpected notes %+v", rec.All())
	}
}

func TestResolveInformationalKinds(t *testing.T) {
	tests := []struct {
		cb   domain.OAuthCallback
		want domain.Notification
	}{
		{domain.OAuthCallback{Kind: domain.CallbackDirectResult, Connected: true}, domain.Notification{Message: MsgConnected, Severity: domain.SeveritySuccess}},
		{domain.OAuthCallback{Kind: domain.CallbackDirectResult, Detail: "denied"}, domain.Notification{Message: "Gmail connection failed: denied", Severity: domain.SeverityError}},
		{domain.OAuthCallback{Kind: domain.CallbackError, Detail: "no_code"}, domain.Notification{Message: "Gmail connection error: no_code", Severity: domain.SeverityError}},
	}
	for _, tt := range tests {
		client := &fakeClient{}
		rec := &notify.Recorder{}
		c := NewController(client, fakeSessions{token: "t"}, &fakeNav{}, rec, nil)

		refreshed, err := c.Resolve(context.Background(), tt.cb, &fakeFeed{})
		if err != nil || refreshed {
			t.Fatalf("Resolve(%s) = %v, %v", tt.cb.Kind, refreshed, err)
		}
		if len(client.calls) != 0 {
			t.Fatalf("Resolve(%s) made network calls", tt.cb.Kind)
		}
		if notes := rec.All(); len(notes) != 1 || notes[0] != tt.want {
			t.Fatalf("Resolve(%s) notes = %+v", tt.cb.Kind, notes)
		}
	}
}

func TestConnectAlreadyLinked(t *testing.T) {
	client := &fakeClient{status: domain.LinkStatus{Connected: true}}
	rec := &notify.Recorder{}
	feed := &fakeFeed{}
	nav := &fakeNav{}
	c := NewController(client, fakeSessions{token: "t"}, nav, rec, nil)

	if err := c.Connect(context.Background(), feed); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if client.count(ConnectPath) != 0 || len(nav.navigated) != 0 {
		t.Fatal("must not start OAuth when already connected")
	}
	if feed.refreshes != 1 || rec.Count(MsgAlreadyConnected) != 1 {
		t.Fatalf("refreshes = %d, notes = %+v", feed.refreshes, rec.All())
	}
}

func TestConnectRedirects(t *testing.T) {
	client := &fakeClient{connect: linkResponse{Success: true, AuthorizationURL: "https://accounts.example/auth?x=1"}}
	rec := &notify.Recorder{}
	nav := &fakeNav{}
	c := NewController(client, fakeSessions{token: "t"}, nav, rec, nil)

	if err := c.Connect(context.Background(), &fakeFeed{}); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if len(nav.navigated) != 1 || nav.navigated[0] != "https://accounts.example/auth?x=1" {
		t.Fatalf("navigated = %v", nav.navigated)
	}
	if rec.Count(MsgRedirecting) != 1 {
		t.Fatalf("notes = %+v", rec.All())
	}
}

func TestConnectAdvisories(t *testing.T) {
	tests := []struct {
		name      string
		resp      linkResponse
		wantMsg   string
		wantSev   domain.Severity
		refreshes int
	}{
		{"race", linkResponse{AlreadyConnected: true}, MsgAlreadyConnected, domain.SeverityInfo, 1},
		{"config", linkResponse{Message: "OAuth Client ID is not configured"}, MsgNotConfigured, domain.SeverityInfo, 0},
		{"generic", linkResponse{Message: "boom"}, "Gmail connection error: boom", domain.SeverityError, 0},
		{"empty", linkResponse{}, "Gmail connection error: Failed to initiate Gmail connection", domain.SeverityError, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{connect: tt.resp}
			rec := &notify.Recorder{}
			feed := &fakeFeed{}
			c := NewController(client, fakeSessions{token: "t"}, &fakeNav{}, rec, nil)

			if err := c.Connect(context.Background(), feed); err != nil {
				t.Fatalf("Connect: %v", err)
			}
			notes := rec.All()
			if len(notes) != 1 || notes[0].Message != tt.wantMsg || notes[0].Severity != tt.wantSev {
				t.Fatalf("notes = %+v", notes)
			}
			if feed.refreshes != tt.refreshes {
				t.Fatalf("refreshes = %d, want %d", feed.refreshes, tt.refreshes)
			}
		})
	}
}

func TestConnectWithoutSession(t *testing.T) {
	client := &fakeClient{}
	rec := &notify.Recorder{}
	c := NewController(client, fakeSessions{}, &fakeNav{}, rec, nil)

	if err := c.Connect(context.Background(), &fakeFeed{}); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if len(client.calls) != 0 || rec.Count(MsgLoginFirst) != 1 {
		t.Fatalf("calls = %v, notes = %+v", client.calls, rec.All())
	}
}

func TestConnectTransportFailure(t *testing.T) {
	client := &fakeClient{err: map[string]error{StatusPath: &shared.TransportError{Op: "GET", Err: errors.New("refused")}}}
	rec := &notify.Recorder{}
	c := NewController(client, fakeSessions{token: "t"}, &fakeNav{}, rec, nil)

	if err := c.Connect(context.Background(), &fakeFeed{}); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if rec.Count("Gmail connection error: "+shared.NetworkErrorMessage) != 1 {
		t.Fatalf("notes = %+v", rec.All())
	}
}
