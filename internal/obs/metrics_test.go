package obs

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"taskgate.org/internal/policy"
)

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                             "/",
		"/metrics":                     "/metrics",
		"/v1/tasks":                    "/v1/tasks",
		"/v1/tasks/abc":                "/v1/tasks/:id",
		"/v1/tasks/abc/status":         "/v1/tasks/:id/status",
		"/v1/tasks/abc/extra":          "/v1/tasks/abc/extra",
		"/v1/users/u1":                 "/v1/users/:id",
		"/v1/organizations/o1?x=1":     "/v1/organizations/:id",
		"/v1/audit":                    "/v1/audit",
		"/v1/auth/login":               "/v1/auth/login",
		"/v1/organizations/o1/members": "/v1/organizations/o1/members",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}

func TestObserveDecisionCounts(t *testing.T) {
	Init()
	Init()
	counter := authzDecisions.WithLabelValues("task", "delete", "modify", "deny")
	before := testutil.ToFloat64(counter)
	ObserveDecision(policy.ResourceTask, policy.ActionDelete, policy.Decision{Check: policy.CheckModify})
	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Fatalf("expected counter to grow by one, got %v -> %v", before, got)
	}
}
