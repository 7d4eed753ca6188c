package registry

import (
	"testing"
	"time"

	"quest/internal/schedule"
)

func TestUpsertAndGet(t *testing.T) {
	t.Parallel()
	r := New()

	replaced := r.Upsert(Job{Name: "a", Spec: schedule.Interval{Every: time.Second}})
	if replaced {
		t.Fatal("first upsert reported replacement")
	}
	j, ok := r.Get("a")
	if !ok || j.Name != "a" {
		t.Fatalf("Get = %+v, %v", j, ok)
	}
	if j.Overlap != OverlapSkipIfRunning {
		t.Fatal("default overlap policy must be skip-if-running")
	}

	if !r.Upsert(Job{Name: "a", Spec: schedule.Interval{Every: 2 * time.Second}}) {
		t.Fatal("second upsert did not report replacement")
	}
	j, _ = r.Get("a")
	if iv, ok := j.Spec.(schedule.Interval); !ok || iv.Every != 2*time.Second {
		t.Fatalf("descriptor not replaced: %+v", j.Spec)
	}
}

func TestListIsRegistrationOrder(t *testing.T) {
	t.Parallel()
	r := New()
	for _, name := range []string{"c", "a", "b"} {
		r.Upsert(Job{Name: name})
	}
	// Replacing keeps the original position.
	r.Upsert(Job{Name: "c", Paused: true})

	got := r.Names()
	want := []string{"c", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("Names = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Names = %v, want %v", got, want)
		}
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()
	r := New()
	r.Upsert(Job{Name: "a"})
	r.Upsert(Job{Name: "b"})

	if !r.Remove("a") {
		t.Fatal("Remove existing returned false")
	}
	if r.Remove("a") {
		t.Fatal("Remove twice returned true")
	}
	if _, ok := r.Get("a"); ok {
		t.Fatal("removed job still present")
	}
	if names := r.Names(); len(names) != 1 || names[0] != "b" {
		t.Fatalf("Names = %v, want [b]", names)
	}
}

func TestSetPaused(t *testing.T) {
	t.Parallel()
	r := New()
	r.Upsert(Job{Name: "a"})

	if !r.SetPaused("a", true) {
		t.Fatal("SetPaused existing returned false")
	}
	if j, _ := r.Get("a"); !j.Paused {
		t.Fatal("job not paused")
	}
	if !r.SetPaused("a", false) {
		t.Fatal("SetPaused existing returned false")
	}
	if j, _ := r.Get("a"); j.Paused {
		t.Fatal("job still paused")
	}
	if r.SetPaused("nope", true) {
		t.Fatal("SetPaused unknown returned true")
	}
}

func TestGetReturnsCopies(t *testing.T) {
	t.Parallel()
	r := New()
	r.Upsert(Job{Name: "a", Inputs: map[string]any{"x": 1}})

	j, _ := r.Get("a")
	j.Inputs["x"] = 99

	j2, _ := r.Get("a")
	if j2.Inputs["x"] != 1 {
		t.Fatal("mutating a returned descriptor leaked into the registry")
	}
}

func TestUpsertEmptyName(t *testing.T) {
	t.Parallel()
	r := New()
	r.Upsert(Job{Name: "  "})
	if r.Len() != 0 {
		t.Fatal("blank name was registered")
	}
}
