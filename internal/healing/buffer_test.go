package healing

import (
	"testing"

	"patternforge/internal/types"
)

func TestFailureBuffer_CaptureNeverFails(t *testing.T) {
	buf := NewFailureBuffer()

	rec := buf.Capture(types.Submission{Name: "broken", Language: "javascript"},
		"coherency below acceptance threshold", types.ValidationReport{})

	if rec == nil {
		t.Fatal("Capture returned nil")
	}
	if rec.ID == "" {
		t.Error("record has no ID")
	}
	if rec.Status != types.StatusPending {
		t.Errorf("Status = %q, want pending", rec.Status)
	}
	if rec.CapturedAt.IsZero() {
		t.Error("CapturedAt should be set")
	}
	if buf.Len() != 1 {
		t.Errorf("Len = %d, want 1", buf.Len())
	}

	// Even an empty submission is captured.
	if buf.Capture(types.Submission{}, "", types.ValidationReport{}) == nil {
		t.Error("Capture of empty submission returned nil")
	}
	if buf.Len() != 2 {
		t.Errorf("Len = %d, want 2", buf.Len())
	}
}

func TestFailureBuffer_FilterByStatusAndLanguage(t *testing.T) {
	buf := NewFailureBuffer()
	a := buf.Capture(types.Submission{Name: "a", Language: "javascript"}, "x", types.ValidationReport{})
	buf.Capture(types.Submission{Name: "b", Language: "python"}, "x", types.ValidationReport{})
	buf.Capture(types.Submission{Name: "c", Language: "javascript"}, "x", types.ValidationReport{})

	a.Status = types.StatusHealing
	a.Status = types.StatusRecycled

	pending := buf.GetCaptured(Filter{Status: types.StatusPending})
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}

	js := buf.GetCaptured(Filter{Status: types.StatusPending, Language: "javascript"})
	if len(js) != 1 || js[0].Submission.Name != "c" {
		t.Errorf("javascript pending = %v, want [c]", names(js))
	}

	all := buf.GetCaptured(Filter{})
	if len(all) != 3 {
		t.Errorf("unfiltered = %d, want 3", len(all))
	}
}

func TestFailureBuffer_CaptureOrderPreserved(t *testing.T) {
	buf := NewFailureBuffer()
	for _, name := range []string{"first", "second", "third"} {
		buf.Capture(types.Submission{Name: name}, "x", types.ValidationReport{})
	}

	got := names(buf.GetCaptured(Filter{}))
	want := []string{"first", "second", "third"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestFailureBuffer_CountByStatus(t *testing.T) {
	buf := NewFailureBuffer()
	a := buf.Capture(types.Submission{Name: "a"}, "x", types.ValidationReport{})
	buf.Capture(types.Submission{Name: "b"}, "x", types.ValidationReport{})

	a.Status = types.StatusHealing
	a.Status = types.StatusExhausted

	counts := buf.CountByStatus()
	if counts[types.StatusPending] != 1 {
		t.Errorf("pending = %d, want 1", counts[types.StatusPending])
	}
	if counts[types.StatusExhausted] != 1 {
		t.Errorf("exhausted = %d, want 1", counts[types.StatusExhausted])
	}
}

func names(recs []*types.FailureRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Submission.Name
	}
	return out
}
