package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/vjbollavarapu/sitebackend/internal/clients/ga4"
	"github.com/vjbollavarapu/sitebackend/internal/clients/mixpanel"
)

type stubGA4 struct {
	calls int32
	err   error
}

func (c *stubGA4) SendEvent(ctx context.Context, clientID, name string, params map[string]interface{}) error {
	atomic.AddInt32(&c.calls, 1)
	return c.err
}

var _ ga4.Client = (*stubGA4)(nil)

type stubMixpanel struct {
	calls int32
	err   error
}

func (c *stubMixpanel) Track(ctx context.Context, distinctID, event string, properties map[string]interface{}) error {
	atomic.AddInt32(&c.calls, 1)
	return c.err
}

var _ mixpanel.Client = (*stubMixpanel)(nil)

func TestExternalTrackFansOutToBoth(t *testing.T) {
	g, m := &stubGA4{}, &stubMixpanel{}
	svc := &externalAnalyticsService{log: testLogger(), ga4: g, mixpanel: m}
	if err := svc.Track(context.Background(), "visitor-1", "signup", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.calls != 1 || m.calls != 1 {
		t.Fatalf("deliveries = ga4:%d mixpanel:%d, want 1 each", g.calls, m.calls)
	}
}

func TestExternalTrackFailureDoesNotBlockOtherSide(t *testing.T) {
	g := &stubGA4{err: errors.New("ga4 down")}
	m := &stubMixpanel{}
	svc := &externalAnalyticsService{log: testLogger(), ga4: g, mixpanel: m}
	if err := svc.Track(context.Background(), "visitor-1", "signup", nil); err == nil {
		t.Fatal("expected the ga4 failure to surface")
	}
	if m.calls != 1 {
		t.Fatalf("mixpanel delivery skipped, calls = %d", m.calls)
	}
}

func TestExternalTrackSkipsEmptyIdentity(t *testing.T) {
	g, m := &stubGA4{}, &stubMixpanel{}
	svc := &externalAnalyticsService{log: testLogger(), ga4: g, mixpanel: m}
	if err := svc.Track(context.Background(), "", "signup", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.calls != 0 || m.calls != 0 {
		t.Fatal("empty visitor id should not be delivered")
	}
}
