package services

import (
	"context"
	"github.com/google/uuid"
	"github.com/vjbollavarapu/sitebackend/internal/repos"
	"github.com/vjbollavarapu/sitebackend/internal/types"
	"gorm.io/gorm"
	"testing"
	"time"
)

func TestPriorityScore(t *testing.T) {
	tests := []struct {
		name     string
		input    WaitlistJoinInput
		verified bool
		want     int
	}{
		{
			name:  "empty signup",
			input: WaitlistJoinInput{},
			want:  0,
		},
		{
			name: "small company engineer",
			input: WaitlistJoinInput{
				CompanySize: "1-10",
				Role:        "Software Engineer",
			},
			want: 20,
		},
		{
			name: "exec at large company in priority industry",
			input: WaitlistJoinInput{
				CompanySize: "1000+",
				Role:        "CEO",
				Industry:    "fintech",
				Company:     "BigBank",
			},
			want: 70,
		},
		{
			name: "manager in other industry",
			input: WaitlistJoinInput{
				CompanySize: "51-200",
				Role:        "Head of Marketing",
				Industry:    "retail",
			},
			want: 40,
		},
		{
			name: "long use case adds detail bonus",
			input: WaitlistJoinInput{
				UseCase: "We want to automate our entire inbound funnel across several regional marketing sites.",
			},
			want: 5,
		},
		{
			name: "verified email bonus",
			input: WaitlistJoinInput{
				CompanySize: "11-50",
			},
			verified: true,
			want:     20,
		},
		{
			name: "role hints are case insensitive",
			input: WaitlistJoinInput{
				Role: "FOUNDER",
			},
			want: 25,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := priorityScore(tt.input, tt.verified); got != tt.want {
				t.Fatalf("priorityScore() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPriorityScoreCapped(t *testing.T) {
	input := WaitlistJoinInput{
		CompanySize: "1000+",
		Role:        "Founder and CEO",
		Industry:    "saas",
		Company:     "Acme",
		UseCase:     "A very long use case description that easily exceeds the fifty character threshold for the bonus.",
	}
	got := priorityScore(input, true)
	if got > 100 {
		t.Fatalf("score %d exceeds cap", got)
	}
	if got != 80 {
		t.Fatalf("priorityScore() = %d, want 80", got)
	}
}

// stubWaitlistRepo serves one in-memory entry and applies UpdateFields to it.
type stubWaitlistRepo struct {
	entry *types.WaitlistEntry
}

func (r *stubWaitlistRepo) Create(ctx context.Context, tx *gorm.DB, entry *types.WaitlistEntry) (*types.WaitlistEntry, error) {
	return entry, nil
}

func (r *stubWaitlistRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.WaitlistEntry, error) {
	if r.entry != nil && r.entry.ID == id {
		return r.entry, nil
	}
	return nil, nil
}

func (r *stubWaitlistRepo) GetByEmail(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email string) (*types.WaitlistEntry, error) {
	return nil, nil
}

func (r *stubWaitlistRepo) GetByReferralCode(ctx context.Context, tx *gorm.DB, code string) (*types.WaitlistEntry, error) {
	return nil, nil
}

func (r *stubWaitlistRepo) GetByVerificationToken(ctx context.Context, tx *gorm.DB, token string) (*types.WaitlistEntry, error) {
	return nil, nil
}

func (r *stubWaitlistRepo) ListBySite(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, filter repos.WaitlistFilter) ([]*types.WaitlistEntry, int64, error) {
	return nil, 0, nil
}

func (r *stubWaitlistRepo) CountBySite(ctx context.Context, tx *gorm.DB, siteID uuid.UUID) (int64, error) {
	return 0, nil
}

func (r *stubWaitlistRepo) CountAheadOf(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, priorityScore int, createdAt time.Time) (int64, error) {
	return 0, nil
}

func (r *stubWaitlistRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	if r.entry == nil || r.entry.ID != id {
		return nil
	}
	if v, ok := updates["status"].(string); ok {
		r.entry.Status = v
	}
	if v, ok := updates["notes"].(string); ok {
		r.entry.Notes = v
	}
	if v, ok := updates["converted_at"].(time.Time); ok {
		r.entry.ConvertedAt = &v
	}
	return nil
}

func (r *stubWaitlistRepo) IncrementReferralCount(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return nil
}

func (r *stubWaitlistRepo) DeleteByEmail(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email string) (int64, error) {
	return 0, nil
}

func (r *stubWaitlistRepo) CountBySiteSince(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, since time.Time) (int64, error) {
	return 0, nil
}

var _ repos.WaitlistEntryRepo = (*stubWaitlistRepo)(nil)

func newWaitlistFixture(status string) (*waitlistService, *types.WaitlistEntry) {
	entry := &types.WaitlistEntry{
		ID:     uuid.New(),
		SiteID: uuid.New(),
		Email:  "jane@acme.com",
		Status: status,
	}
	svc := &waitlistService{waitlistRepo: &stubWaitlistRepo{entry: entry}, log: testLogger()}
	return svc, entry
}

func TestWaitlistUpdateStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to string
		wantErr  bool
	}{
		{"pending", "approved", false},
		{"pending", "declined", false},
		{"pending", "onboarded", true},
		{"invited", "approved", false},
		{"invited", "onboarded", false},
		{"approved", "onboarded", false},
		{"approved", "declined", false},
		{"declined", "approved", true},
		{"onboarded", "declined", true},
	}
	for _, tt := range tests {
		t.Run(tt.from+"_to_"+tt.to, func(t *testing.T) {
			svc, entry := newWaitlistFixture(tt.from)
			got, err := svc.UpdateStatus(context.Background(), entry.ID, tt.to, "")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected %s -> %s to be rejected", tt.from, tt.to)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Status != tt.to {
				t.Fatalf("status = %q, want %q", got.Status, tt.to)
			}
		})
	}
}

func TestWaitlistUpdateStatusOnboardedStampsConversion(t *testing.T) {
	svc, entry := newWaitlistFixture("approved")
	got, err := svc.UpdateStatus(context.Background(), entry.ID, "onboarded", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ConvertedAt == nil {
		t.Fatal("expected converted_at to be stamped on onboarding")
	}
}

func TestWaitlistUpdateStatusNotesOnly(t *testing.T) {
	svc, entry := newWaitlistFixture("pending")
	got, err := svc.UpdateStatus(context.Background(), entry.ID, "", "spoke at the meetup")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != "pending" {
		t.Fatalf("status changed unexpectedly to %q", got.Status)
	}
	if got.Notes != "spoke at the meetup" {
		t.Fatalf("notes = %q", got.Notes)
	}
}

func TestContainsAny(t *testing.T) {
	if !containsAny("vp of engineering", execRoleHints) {
		t.Error("expected vp to match exec hints")
	}
	if containsAny("student", execRoleHints) {
		t.Error("did not expect student to match exec hints")
	}
}
