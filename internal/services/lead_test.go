package services

import (
	"github.com/vjbollavarapu/sitebackend/internal/types"
	"testing"
)

func TestLeadScore(t *testing.T) {
	tests := []struct {
		name string
		lead types.Lead
		want int
	}{
		{"bare email", types.Lead{}, 0},
		{"company only", types.Lead{Company: "Acme"}, 10},
		{"title only", types.Lead{JobTitle: "CTO"}, 10},
		{"phone only", types.Lead{Phone: "+15551234567"}, 5},
		{"industry only", types.Lead{Industry: "saas"}, 5},
		{
			"complete profile",
			types.Lead{Company: "Acme", JobTitle: "CTO", Phone: "+15551234567", Industry: "saas"},
			30,
		},
		{"whitespace does not count", types.Lead{Company: "   "}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := leadScore(&tt.lead); got != tt.want {
				t.Fatalf("leadScore() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLeadLifecycleStage(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{"new", "lead"},
		{"lost", "lead"},
		{"qualified", "marketing_qualified"},
		{"contacted", "marketing_qualified"},
		{"converted", "customer"},
	}
	for _, tt := range tests {
		if got := leadLifecycleStage(tt.status); got != tt.want {
			t.Errorf("leadLifecycleStage(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		in        string
		wantFirst string
		wantLast  string
	}{
		{"", "", ""},
		{"Jane", "Jane", ""},
		{"Jane Doe", "Jane", "Doe"},
		{"Jane van der Berg", "Jane", "van der Berg"},
		{"  Jane   Doe  ", "Jane", "Doe"},
	}
	for _, tt := range tests {
		first, last := splitName(tt.in)
		if first != tt.wantFirst || last != tt.wantLast {
			t.Errorf("splitName(%q) = (%q, %q), want (%q, %q)", tt.in, first, last, tt.wantFirst, tt.wantLast)
		}
	}
}
