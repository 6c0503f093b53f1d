package metrics

import (
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jet/privy/status"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newMetrics() *Metrics {
	m := &Metrics{
		Namespace: "privy",
		Labels:    map[string]string{"computer": "test"},
	}
	m.Init()
	return m
}

func TestOnResult(t *testing.T) {
	m := newMetrics()
	m.OnResult(status.FromWin32("GetTokenInformation", false, status.ERROR_INSUFFICIENT_BUFFER, 40))
	m.OnResult(status.FromWin32("GetTokenInformation", true, 0, 40))
	m.OnResult(status.FromNTStatus("LsaOpenPolicy", status.STATUS_ACCESS_DENIED))

	tests := []struct {
		op, outcome string
		expected    float64
	}{
		{"GetTokenInformation", "retry_with_buffer", 1},
		{"GetTokenInformation", "success", 1},
		{"LsaOpenPolicy", "denied", 1},
		{"LsaOpenPolicy", "success", 0},
	}
	for _, test := range tests {
		t.Run(test.op+"/"+test.outcome, func(t *testing.T) {
			got := testutil.ToFloat64(m.nativeCalls.WithLabelValues(test.op, test.outcome))
			if got != test.expected {
				t.Errorf("expected %v but got %v", test.expected, got)
			}
		})
	}
	if got := testutil.ToFloat64(m.bufferResizes.WithLabelValues("GetTokenInformation")); got != 1 {
		t.Errorf("buffer resizes: expected 1 but got %v", got)
	}
}

func TestObserver(t *testing.T) {
	m := newMetrics()
	status.SetObserver(m)
	defer status.SetObserver(nil)
	status.FromNTStatus("LsaClose", status.STATUS_SUCCESS)
	if got := testutil.ToFloat64(m.nativeCalls.WithLabelValues("LsaClose", "success")); got != 1 {
		t.Errorf("expected 1 but got %v", got)
	}
}

func TestChanges(t *testing.T) {
	m := newMetrics()
	m.OnPrivilegeChange("enable", 2)
	m.OnRightChange("add", 3)
	m.OnRightChange("add", 1)
	if got := testutil.ToFloat64(m.privilegeChanges.WithLabelValues("enable")); got != 2 {
		t.Errorf("privilege changes: expected 2 but got %v", got)
	}
	if got := testutil.ToFloat64(m.rightChanges.WithLabelValues("add")); got != 4 {
		t.Errorf("right changes: expected 4 but got %v", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	m := newMetrics()
	m.OnRightChange("remove", 1)
	path := filepath.Join(t.TempDir(), "privy.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatal(err)
	}
	b, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := `privy_right_changes_total{action="remove",computer="test"} 1`
	if !strings.Contains(string(b), want) {
		t.Errorf("expected %s in:\n%s", want, b)
	}
}
