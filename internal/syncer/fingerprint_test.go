package syncer

import "testing"

func TestFingerprintStableAcrossInsertionOrder(t *testing.T) {
	a := map[string]any{"name": "Shady Oaks", "city": "Tulsa", "beds": float64(3)}
	b := map[string]any{"beds": float64(3), "city": "Tulsa", "name": "Shady Oaks"}

	fa, fb := Fingerprint(a), Fingerprint(b)
	if fa == "" {
		t.Fatal("fingerprint is empty")
	}
	if fa != fb {
		t.Fatalf("fingerprints differ for identical fields: %s vs %s", fa, fb)
	}
}

func TestFingerprintChangesWithContent(t *testing.T) {
	a := map[string]any{"name": "Shady Oaks", "price": int64(8490000)}
	b := map[string]any{"name": "Shady Oaks", "price": int64(8500000)}
	if Fingerprint(a) == Fingerprint(b) {
		t.Fatal("fingerprint did not change with field value")
	}
}
