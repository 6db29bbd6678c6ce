package registry

import (
	"testing"

	"github.com/Joshua-96/MVG-tracker/internal/models"
)

func testRegistry() *Registry {
	stations := []models.Station{
		{ID: 91626, Name: "Pasing", Direction: models.DirectionUnknown},
		{ID: 92401, Name: "Ostbahnhof", Direction: models.DirectionInbound},
		{ID: 95123, Name: "Herrsching", Direction: models.DirectionOutbound},
	}
	lines := []models.Line{
		{Label: "S8", ID: 8},
		{Label: "S20", ID: 20},
	}
	return New(stations, lines)
}

func TestGlobalID(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{91626, "de:09162:6"},
		{916210, "de:09162:10"},
		{1234, "de:00123:4"},
	}
	for _, tc := range tests {
		if got := GlobalID(tc.code); got != tc.expected {
			t.Errorf("GlobalID(%d) = %q, expected %q", tc.code, got, tc.expected)
		}
	}
}

func TestStationCodeRoundTrip(t *testing.T) {
	for _, code := range []int{91626, 916210, 92401} {
		parsed, err := StationCode(GlobalID(code))
		if err != nil {
			t.Fatalf("StationCode(%q): %v", GlobalID(code), err)
		}
		if parsed != code {
			t.Errorf("round trip %d -> %q -> %d", code, GlobalID(code), parsed)
		}
	}

	if _, err := StationCode("not:a:real:id"); err == nil {
		t.Error("expected error for malformed global id")
	}
}

func TestRegistryLookups(t *testing.T) {
	reg := testRegistry()

	st, ok := reg.Station(91626)
	if !ok || st.Name != "Pasing" {
		t.Fatalf("Station(91626) = %+v, %v", st, ok)
	}
	if st.GlobalID != "de:09162:6" {
		t.Errorf("GlobalID not derived on load: %q", st.GlobalID)
	}
	if _, ok := reg.Station(1); ok {
		t.Error("unknown station id should not resolve")
	}

	if dir := reg.Direction(92401); dir != models.DirectionInbound {
		t.Errorf("Direction(92401) = %q", dir)
	}
	if dir := reg.Direction(404); dir != models.DirectionUnknown {
		t.Errorf("Direction of unknown station = %q", dir)
	}
}

func TestLineNormalization(t *testing.T) {
	reg := testRegistry()

	if line := reg.Line("S8"); line.ID != 8 || line.Invalid {
		t.Errorf("table lookup failed: %+v", line)
	}
	// Unknown labels fall back to parse-derivation.
	if line := reg.Line("S4"); line.ID != 4 || line.Invalid {
		t.Errorf("fallback parse failed: %+v", line)
	}
	if line := reg.Line("SEV"); !line.Invalid {
		t.Errorf("unparsable label should be flagged invalid: %+v", line)
	}
}

func TestResolveDestination(t *testing.T) {
	reg := testRegistry()

	tests := []struct {
		destination string
		id          int
		matched     bool
	}{
		{"Ostbahnhof", 92401, true},
		{"München Ostbahnhof", 92401, true}, // substring match
		{"Herrsching", 95123, true},
		{"ostbahnhof", 0, false}, // case sensitive
		{"Nowhere", 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.destination, func(t *testing.T) {
			id, matched := reg.ResolveDestination(tc.destination)
			if id != tc.id || matched != tc.matched {
				t.Errorf("ResolveDestination(%q) = (%d, %v), expected (%d, %v)",
					tc.destination, id, matched, tc.id, tc.matched)
			}
		})
	}
}
