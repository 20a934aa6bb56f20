package prometheus

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	meshauth "github.com/meshtrust/meshauth"
	prom "github.com/prometheus/client_golang/prometheus"
)

type fakeSource struct {
	snapshot meshauth.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() meshauth.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                      { return f.dropped }

func testSource() fakeSource {
	return fakeSource{
		snapshot: meshauth.MetricsSnapshot{
			Counters: map[meshauth.MetricID]uint64{
				meshauth.MetricAuthorizedUser: 7,
				meshauth.MetricGuestIssued:    2,
			},
			Histograms: map[meshauth.MetricID][]uint64{
				meshauth.MetricAuthorizeLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	}
}

func TestCollectorGathersAllDefinitions(t *testing.T) {
	collector := NewCollectorFromSource(testSource())

	registry := prom.NewPedanticRegistry()
	if err := registry.Register(collector); err != nil {
		t.Fatalf("register collector: %v", err)
	}

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	byName := make(map[string]float64, len(families))
	var sawHistogram bool
	for _, fam := range families {
		name := fam.GetName()
		if name == "meshauth_authorize_latency_seconds" {
			sawHistogram = true
			h := fam.GetMetric()[0].GetHistogram()
			if h.GetSampleCount() != 36 {
				t.Fatalf("histogram sample count = %d, want 36", h.GetSampleCount())
			}
			continue
		}
		byName[name] = fam.GetMetric()[0].GetCounter().GetValue()
	}

	if !sawHistogram {
		t.Fatal("expected latency histogram family")
	}
	if byName["meshauth_authorized_user_total"] != 7 {
		t.Fatalf("authorized_user = %v, want 7", byName["meshauth_authorized_user_total"])
	}
	if byName["meshauth_guest_issued_total"] != 2 {
		t.Fatalf("guest_issued = %v, want 2", byName["meshauth_guest_issued_total"])
	}
	if byName["meshauth_audit_dropped_total"] != 2 {
		t.Fatalf("audit_dropped = %v, want 2", byName["meshauth_audit_dropped_total"])
	}
}

func TestHandlerServesExposition(t *testing.T) {
	collector := NewCollectorFromSource(testSource())

	server := httptest.NewServer(collector.Handler())
	defer server.Close()

	resp, err := server.Client().Get(server.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	out := string(body)

	if !strings.Contains(out, "meshauth_authorized_user_total 7") {
		t.Fatalf("expected authorized_user counter in output, got:\n%s", out)
	}
	if !strings.Contains(out, "meshauth_authorize_latency_seconds_bucket{le=\"0.005\"} 1") {
		t.Fatalf("expected first histogram bucket in output, got:\n%s", out)
	}
	if !strings.Contains(out, "meshauth_authorize_latency_seconds_count 36") {
		t.Fatalf("expected histogram count in output, got:\n%s", out)
	}
}
