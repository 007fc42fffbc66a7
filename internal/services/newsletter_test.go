package services

import (
	"context"
	"github.com/google/uuid"
	"github.com/vjbollavarapu/sitebackend/internal/logger"
	"github.com/vjbollavarapu/sitebackend/internal/repos"
	"github.com/vjbollavarapu/sitebackend/internal/types"
	"gorm.io/gorm"
	"testing"
	"time"
)

func testLogger() *logger.Logger {
	log, err := logger.New("development")
	if err != nil {
		panic(err)
	}
	return log
}

// stubNewsletterRepo holds a single subscription and applies UpdateFields to
// it in memory.
type stubNewsletterRepo struct {
	sub *types.NewsletterSubscription
}

func (r *stubNewsletterRepo) Create(ctx context.Context, tx *gorm.DB, sub *types.NewsletterSubscription) (*types.NewsletterSubscription, error) {
	return sub, nil
}

func (r *stubNewsletterRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.NewsletterSubscription, error) {
	if r.sub != nil && r.sub.ID == id {
		return r.sub, nil
	}
	return nil, nil
}

func (r *stubNewsletterRepo) GetByEmail(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email string) (*types.NewsletterSubscription, error) {
	if r.sub != nil && r.sub.SiteID == siteID && r.sub.Email == email {
		return r.sub, nil
	}
	return nil, nil
}

func (r *stubNewsletterRepo) GetByConfirmationToken(ctx context.Context, tx *gorm.DB, token string) (*types.NewsletterSubscription, error) {
	return nil, nil
}

func (r *stubNewsletterRepo) GetByUnsubscribeToken(ctx context.Context, tx *gorm.DB, token string) (*types.NewsletterSubscription, error) {
	return nil, nil
}

func (r *stubNewsletterRepo) ListBySite(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, status string, limit, offset int) ([]*types.NewsletterSubscription, int64, error) {
	return nil, 0, nil
}

func (r *stubNewsletterRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	if r.sub == nil || r.sub.ID != id {
		return nil
	}
	if v, ok := updates["status"].(string); ok {
		r.sub.Status = v
	}
	if v, ok := updates["bounce_count"].(int); ok {
		r.sub.BounceCount = v
	}
	if v, ok := updates["complaint_count"].(int); ok {
		r.sub.ComplaintCount = v
	}
	if v, ok := updates["last_bounce_at"].(time.Time); ok {
		r.sub.LastBounceAt = &v
	}
	if v, ok := updates["unsubscribed_at"].(time.Time); ok {
		r.sub.UnsubscribedAt = &v
	}
	return nil
}

func (r *stubNewsletterRepo) DeleteByEmail(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email string) (int64, error) {
	return 0, nil
}

func (r *stubNewsletterRepo) CountBySiteSince(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, since time.Time) (int64, error) {
	return 0, nil
}

var _ repos.NewsletterSubscriptionRepo = (*stubNewsletterRepo)(nil)

func newBounceFixture(status string, bounces int) (*newsletterService, *types.NewsletterSubscription) {
	sub := &types.NewsletterSubscription{
		ID:          uuid.New(),
		SiteID:      uuid.New(),
		Email:       "jane@acme.com",
		Status:      status,
		BounceCount: bounces,
	}
	svc := &newsletterService{newsletterRepo: &stubNewsletterRepo{sub: sub}, log: testLogger()}
	return svc, sub
}

func TestRecordDeliveryIssueComplaintUnsubscribes(t *testing.T) {
	svc, sub := newBounceFixture("active", 0)
	got, err := svc.RecordDeliveryIssue(context.Background(), sub.SiteID, sub.Email, "complaint")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != "unsubscribed" {
		t.Fatalf("status = %q, want unsubscribed", got.Status)
	}
	if got.ComplaintCount != 1 {
		t.Fatalf("complaint_count = %d, want 1", got.ComplaintCount)
	}
	if got.UnsubscribedAt == nil {
		t.Fatal("expected unsubscribed_at to be set")
	}
}

func TestRecordDeliveryIssueBounceAccumulates(t *testing.T) {
	svc, sub := newBounceFixture("active", 0)
	for i := 1; i <= maxBounces; i++ {
		got, err := svc.RecordDeliveryIssue(context.Background(), sub.SiteID, sub.Email, "bounce")
		if err != nil {
			t.Fatalf("bounce %d: unexpected error: %v", i, err)
		}
		if got.BounceCount != i {
			t.Fatalf("bounce %d: bounce_count = %d", i, got.BounceCount)
		}
		if i < maxBounces && got.Status != "active" {
			t.Fatalf("bounce %d: status flipped early to %q", i, got.Status)
		}
		if i == maxBounces && got.Status != "bounced" {
			t.Fatalf("status = %q after %d bounces, want bounced", got.Status, maxBounces)
		}
	}
}

func TestRecordDeliveryIssueRejectsUnknownKind(t *testing.T) {
	svc, sub := newBounceFixture("active", 0)
	if _, err := svc.RecordDeliveryIssue(context.Background(), sub.SiteID, sub.Email, "deferred"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestRecordDeliveryIssueUnknownAddress(t *testing.T) {
	svc, _ := newBounceFixture("active", 0)
	if _, err := svc.RecordDeliveryIssue(context.Background(), uuid.New(), "ghost@acme.com", "bounce"); err == nil {
		t.Fatal("expected error for unknown subscription")
	}
}
