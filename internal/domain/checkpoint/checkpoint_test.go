package checkpoint

import (
	"testing"
	"time"
)

func TestIsZero(t *testing.T) {
	if !(Checkpoint{Name: "nightly"}).IsZero() {
		t.Error("fresh checkpoint reported progress")
	}
	if (Checkpoint{Name: "nightly", Consumed: 100}).IsZero() {
		t.Error("consumed ignored")
	}
	if (Checkpoint{Name: "nightly", UpdatedAt: time.Now()}).IsZero() {
		t.Error("updated_at ignored")
	}
}
