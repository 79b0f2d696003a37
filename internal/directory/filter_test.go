package directory

import (
	"testing"

	"github.com/dropDatabas3/tenantdesk/internal/upstream"
)

func sample() []upstream.Tenant {
	return []upstream.Tenant{
		{TenantID: 1, CompanyName: "Acme Corp", ContactPersonName: "Jane Roe", ContactEmail: "jane@acme.test", Status: "active", SubscriptionPlan: "enterprise"},
		{TenantID: 2, CompanyName: "Globex", ContactPersonName: "John Doe", ContactEmail: "john@globex.test", Status: "suspended", SubscriptionPlan: "standard"},
		{TenantID: 3, CompanyName: "Initech", ContactPersonName: "Peter G", ContactEmail: "peter@initech.test", Status: "active", SubscriptionPlan: "free"},
		{TenantID: 4, CompanyName: "acme labs", ContactPersonName: "Ana M", ContactEmail: "ana@acmelabs.test", Status: "inactive", SubscriptionPlan: "standard"},
	}
}

func ids(ts []upstream.Tenant) []int64 {
	out := make([]int64, len(ts))
	for i, t := range ts {
		out[i] = t.TenantID
	}
	return out
}

func TestFilter_QueryIsCaseInsensitiveAcrossFields(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  []int64
	}{
		{"company name", "ACME", []int64{1, 4}},
		{"contact person", "doe", []int64{2}},
		{"contact email", "peter@", []int64{3}},
		{"no match", "umbrella", []int64{}},
		{"empty query keeps all", "", []int64{1, 2, 3, 4}},
		{"whitespace trimmed", "  globex  ", []int64{2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(Filter(sample(), tc.query, "", ""))
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("got %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestFilter_StatusAndPlan(t *testing.T) {
	got := ids(Filter(sample(), "", "active", ""))
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("status filter: %v", got)
	}

	got = ids(Filter(sample(), "", "", "standard"))
	if len(got) != 2 || got[0] != 2 || got[1] != 4 {
		t.Fatalf("plan filter: %v", got)
	}

	// "all" and "" behave the same: no filtering.
	if n := len(Filter(sample(), "", "all", "All")); n != 4 {
		t.Fatalf("all/All: got %d", n)
	}
}

func TestFilter_Combined(t *testing.T) {
	got := ids(Filter(sample(), "acme", "inactive", "standard"))
	if len(got) != 1 || got[0] != 4 {
		t.Fatalf("combined: %v", got)
	}
}

func TestPage_Bounds(t *testing.T) {
	ts := sample()

	p, total := Page(ts, 1, 3)
	if total != 4 || len(p) != 3 {
		t.Fatalf("page 1: len=%d total=%d", len(p), total)
	}

	p, _ = Page(ts, 2, 3)
	if len(p) != 1 || p[0].TenantID != 4 {
		t.Fatalf("page 2: %v", ids(p))
	}

	// Page past the end is empty, not a panic.
	p, total = Page(ts, 9, 3)
	if len(p) != 0 || total != 4 {
		t.Fatalf("page out of range: len=%d total=%d", len(p), total)
	}

	// Zero values fall back to page 1, perPage 5.
	p, _ = Page(ts, 0, 0)
	if len(p) != 4 {
		t.Fatalf("defaults: len=%d", len(p))
	}
}
