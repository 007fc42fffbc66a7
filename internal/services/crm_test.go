package services

import (
	"context"
	"github.com/google/uuid"
	"github.com/vjbollavarapu/sitebackend/internal/clients/hubspot"
	"github.com/vjbollavarapu/sitebackend/internal/repos"
	"github.com/vjbollavarapu/sitebackend/internal/types"
	"gorm.io/gorm"
	"strings"
	"testing"
	"time"
)

// stubHubspot records what the service pushes at it.
type stubHubspot struct {
	contacts []hubspot.Contact
	notes    []string
	deals    []string
}

func (h *stubHubspot) UpsertContact(ctx context.Context, contact hubspot.Contact) (string, error) {
	h.contacts = append(h.contacts, contact)
	return "hs-contact-1", nil
}

func (h *stubHubspot) CreateNote(ctx context.Context, contactID, body string) (string, error) {
	h.notes = append(h.notes, body)
	return "hs-note-1", nil
}

func (h *stubHubspot) CreateDeal(ctx context.Context, contactID, name string) (string, error) {
	h.deals = append(h.deals, name)
	return "hs-deal-1", nil
}

var _ hubspot.Client = (*stubHubspot)(nil)

type stubContactRepo struct {
	sub *types.ContactSubmission
}

func (r *stubContactRepo) Create(ctx context.Context, tx *gorm.DB, sub *types.ContactSubmission) (*types.ContactSubmission, error) {
	return sub, nil
}

func (r *stubContactRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ContactSubmission, error) {
	if r.sub != nil && r.sub.ID == id {
		return r.sub, nil
	}
	return nil, nil
}

func (r *stubContactRepo) ListBySite(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, filter repos.ContactSubmissionFilter) ([]*types.ContactSubmission, int64, error) {
	return nil, 0, nil
}

func (r *stubContactRepo) ListByEmail(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email string) ([]*types.ContactSubmission, error) {
	return nil, nil
}

func (r *stubContactRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	if r.sub == nil || r.sub.ID != id {
		return nil
	}
	if v, ok := updates["crm_external_id"].(string); ok {
		r.sub.CRMExternalID = v
	}
	if v, ok := updates["crm_synced_at"].(time.Time); ok {
		r.sub.CRMSyncedAt = &v
	}
	return nil
}

func (r *stubContactRepo) CountByIPSince(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, ip string, since time.Time) (int64, error) {
	return 0, nil
}

func (r *stubContactRepo) CountBySiteSince(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, since time.Time, spam bool) (int64, error) {
	return 0, nil
}

func (r *stubContactRepo) DeleteByEmail(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email string) (int64, error) {
	return 0, nil
}

func (r *stubContactRepo) AnonymizeByEmail(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email string, anonymized string) (int64, error) {
	return 0, nil
}

func (r *stubContactRepo) DeleteOlderThan(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, cutoff time.Time) (int64, error) {
	return 0, nil
}

var _ repos.ContactSubmissionRepo = (*stubContactRepo)(nil)

type stubLeadRepo struct {
	lead *types.Lead
}

func (r *stubLeadRepo) Create(ctx context.Context, tx *gorm.DB, lead *types.Lead) (*types.Lead, error) {
	return lead, nil
}

func (r *stubLeadRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Lead, error) {
	if r.lead != nil && r.lead.ID == id {
		return r.lead, nil
	}
	return nil, nil
}

func (r *stubLeadRepo) GetByEmail(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email string) (*types.Lead, error) {
	return nil, nil
}

func (r *stubLeadRepo) ListBySite(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, filter repos.LeadFilter) ([]*types.Lead, int64, error) {
	return nil, 0, nil
}

func (r *stubLeadRepo) ListUnsynced(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, limit int) ([]*types.Lead, error) {
	return nil, nil
}

func (r *stubLeadRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	if r.lead == nil || r.lead.ID != id {
		return nil
	}
	if v, ok := updates["crm_external_id"].(string); ok {
		r.lead.CRMExternalID = v
	}
	return nil
}

func (r *stubLeadRepo) DeleteByEmail(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email string) (int64, error) {
	return 0, nil
}

func (r *stubLeadRepo) CountBySiteSince(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, since time.Time) (int64, error) {
	return 0, nil
}

var _ repos.LeadRepo = (*stubLeadRepo)(nil)

func newCRMFixture() (*crmService, *stubHubspot) {
	hs := &stubHubspot{}
	svc := &crmService{
		log:      testLogger(),
		provider: "hubspot",
		hubspot:  hs,
	}
	return svc, hs
}

func TestSyncContactSubmissionCreatesContactAndNote(t *testing.T) {
	svc, hs := newCRMFixture()
	sub := &types.ContactSubmission{
		ID:      uuid.New(),
		SiteID:  uuid.New(),
		Name:    "Jane Doe",
		Email:   "jane@acme.com",
		Subject: "Pricing question",
		Message: "How much for 50 seats?",
	}
	repo := &stubContactRepo{sub: sub}
	svc.contactRepo = repo

	if err := svc.SyncContactSubmission(context.Background(), sub.ID, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hs.contacts) != 1 || hs.contacts[0].Email != "jane@acme.com" {
		t.Fatalf("contact not pushed: %+v", hs.contacts)
	}
	if hs.contacts[0].Source != "contact_form" {
		t.Fatalf("source = %q, want contact_form", hs.contacts[0].Source)
	}
	if sub.CRMExternalID != "hs-contact-1" {
		t.Fatalf("external id not recorded, got %q", sub.CRMExternalID)
	}
	if len(hs.notes) != 1 {
		t.Fatalf("note not pushed: %v", hs.notes)
	}
	if !strings.Contains(hs.notes[0], "Subject: Pricing question") || !strings.Contains(hs.notes[0], "How much for 50 seats?") {
		t.Fatalf("note body missing subject/message: %q", hs.notes[0])
	}
}

func TestSyncContactSubmissionStatusNoteSkipsUpsert(t *testing.T) {
	svc, hs := newCRMFixture()
	sub := &types.ContactSubmission{
		ID:            uuid.New(),
		Email:         "jane@acme.com",
		CRMExternalID: "hs-existing",
	}
	svc.contactRepo = &stubContactRepo{sub: sub}

	if err := svc.SyncContactSubmission(context.Background(), sub.ID, "Marked as resolved by sam"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hs.contacts) != 0 {
		t.Fatalf("already-synced submission re-upserted the contact: %+v", hs.contacts)
	}
	if len(hs.notes) != 1 || !strings.Contains(hs.notes[0], "Marked as resolved by sam") {
		t.Fatalf("status note not pushed: %v", hs.notes)
	}
}

func TestSyncWaitlistEntryPushesContext(t *testing.T) {
	svc, hs := newCRMFixture()
	entry := &types.WaitlistEntry{
		ID:          uuid.New(),
		Email:       "jane@acme.com",
		Name:        "Jane Doe",
		Role:        "CTO",
		UseCase:     "Automate inbound funnels",
		CompanySize: "51-200",
	}
	svc.waitlistRepo = &stubWaitlistRepo{entry: entry}

	if err := svc.SyncWaitlistEntry(context.Background(), entry.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hs.contacts) != 1 || hs.contacts[0].Source != "waitlist" {
		t.Fatalf("waitlist contact not pushed: %+v", hs.contacts)
	}
	if hs.contacts[0].JobTitle != "CTO" {
		t.Fatalf("role not carried as job title: %+v", hs.contacts[0])
	}
	if len(hs.notes) != 1 {
		t.Fatalf("context note not pushed: %v", hs.notes)
	}
	if !strings.Contains(hs.notes[0], "Use case: Automate inbound funnels") ||
		!strings.Contains(hs.notes[0], "Company size: 51-200") {
		t.Fatalf("note body = %q", hs.notes[0])
	}
}

func TestCreateLeadDealSyncsUnsyncedLeadFirst(t *testing.T) {
	svc, hs := newCRMFixture()
	lead := &types.Lead{
		ID:    uuid.New(),
		Email: "jane@acme.com",
		Name:  "Jane Doe",
	}
	svc.leadRepo = &stubLeadRepo{lead: lead}

	if err := svc.CreateLeadDeal(context.Background(), lead.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hs.contacts) != 1 {
		t.Fatalf("lead was not synced before the deal: %+v", hs.contacts)
	}
	if len(hs.deals) != 1 || hs.deals[0] != "Jane Doe" {
		t.Fatalf("deal not created: %v", hs.deals)
	}
}
