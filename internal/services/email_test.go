package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/vjbollavarapu/sitebackend/internal/clients/sendgrid"
	"github.com/vjbollavarapu/sitebackend/internal/repos"
	"github.com/vjbollavarapu/sitebackend/internal/types"
	"gorm.io/gorm"
)

type stubSendgrid struct {
	sent []sendgrid.SendEmailRequest
}

func (c *stubSendgrid) Send(ctx context.Context, req sendgrid.SendEmailRequest) (*sendgrid.SendEmailResult, error) {
	c.sent = append(c.sent, req)
	return &sendgrid.SendEmailResult{StatusCode: 202}, nil
}

var _ sendgrid.Client = (*stubSendgrid)(nil)

type stubSiteRepo struct {
	site *types.Site
}

func (r *stubSiteRepo) Create(ctx context.Context, tx *gorm.DB, site *types.Site) (*types.Site, error) {
	return site, nil
}

func (r *stubSiteRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Site, error) {
	if r.site != nil && r.site.ID == id {
		return r.site, nil
	}
	return nil, nil
}

func (r *stubSiteRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Site, error) {
	return nil, nil
}

func (r *stubSiteRepo) GetByDomain(ctx context.Context, tx *gorm.DB, domain string) (*types.Site, error) {
	return nil, nil
}

func (r *stubSiteRepo) GetDefault(ctx context.Context, tx *gorm.DB) (*types.Site, error) {
	return r.site, nil
}

func (r *stubSiteRepo) ListActive(ctx context.Context, tx *gorm.DB) ([]*types.Site, error) {
	return nil, nil
}

func (r *stubSiteRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	return nil
}

func (r *stubSiteRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return nil
}

var _ repos.SiteRepo = (*stubSiteRepo)(nil)

func newEmailFixture() (*emailService, *stubSendgrid, *types.Site) {
	sg := &stubSendgrid{}
	site := &types.Site{ID: uuid.New(), Name: "Acme", Domain: "acme.com"}
	svc := &emailService{
		log:      testLogger(),
		sendgrid: sg,
		siteRepo: &stubSiteRepo{site: site},
	}
	return svc, sg, site
}

func TestSendContactConfirmation(t *testing.T) {
	svc, sg, site := newEmailFixture()
	sub := &types.ContactSubmission{
		ID:      uuid.New(),
		SiteID:  site.ID,
		Name:    "Jane Doe",
		Email:   "jane@acme.com",
		Message: "How much for 50 seats?",
	}
	svc.contactRepo = &stubContactRepo{sub: sub}

	err := svc.SendTemplate(context.Background(), site.ID, EmailTemplateContactConfirmation,
		map[string]interface{}{"submission_id": sub.ID.String()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sg.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(sg.sent))
	}
	msg := sg.sent[0]
	if msg.To[0].Email != "jane@acme.com" {
		t.Fatalf("confirmation went to %q, want the submitter", msg.To[0].Email)
	}
	if !strings.Contains(msg.Subject, "We received your message") {
		t.Fatalf("subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.Text, "How much for 50 seats?") {
		t.Fatalf("body does not quote the message: %q", msg.Text)
	}
}

func TestSendGDPRDeletionConfirmation(t *testing.T) {
	svc, sg, site := newEmailFixture()

	err := svc.SendTemplate(context.Background(), site.ID, EmailTemplateGDPRDeletion,
		map[string]interface{}{"email": "jane@acme.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sg.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(sg.sent))
	}
	msg := sg.sent[0]
	if msg.To[0].Email != "jane@acme.com" {
		t.Fatalf("deletion confirmation went to %q", msg.To[0].Email)
	}
	if !strings.Contains(msg.Text, "has been removed from Acme") {
		t.Fatalf("body = %q", msg.Text)
	}
}

func TestSendGDPRDeletionRequiresAddress(t *testing.T) {
	svc, sg, site := newEmailFixture()
	err := svc.SendTemplate(context.Background(), site.ID, EmailTemplateGDPRDeletion, map[string]interface{}{})
	if err == nil {
		t.Fatal("expected error when the payload carries no address")
	}
	if len(sg.sent) != 0 {
		t.Fatalf("sent %d emails, want none", len(sg.sent))
	}
}

func TestSendTemplateUnknown(t *testing.T) {
	svc, _, site := newEmailFixture()
	if err := svc.SendTemplate(context.Background(), site.ID, "weekly_digest", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
}
