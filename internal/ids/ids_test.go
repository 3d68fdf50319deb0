package ids

import "testing"

func TestNewIsSortableAndValid(t *testing.T) {
	prev := New()
	for i := 0; i < 50; i++ {
		next := New()
		if next <= prev {
			t.Fatalf("ids not monotonic: %s then %s", prev, next)
		}
		if !Valid(next) {
			t.Fatalf("generated id %q not valid", next)
		}
		prev = next
	}
	if Valid("not-an-id") {
		t.Fatalf("expected invalid id")
	}
	if Token() == Token() {
		t.Fatalf("expected distinct tokens")
	}
}
