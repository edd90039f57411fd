package cart

import "testing"

func TestResolveKey(t *testing.T) {
	t.Parallel()

	m, black, blank := "M", "Black", "  "
	cases := []struct {
		name  string
		size  *string
		color *string
		want  string
	}{
		{name: "both selected", size: &m, color: &black, want: "P1-M-Black"},
		{name: "no selections", want: "P1-no-size-no-color"},
		{name: "size only", size: &m, want: "P1-M-no-color"},
		{name: "color only", color: &black, want: "P1-no-size-Black"},
		{name: "blank selections are absent", size: &blank, color: &blank, want: "P1-no-size-no-color"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ResolveKey("P1", tc.size, tc.color); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestResolveKeyIsDeterministic(t *testing.T) {
	t.Parallel()

	l := "L"
	first := ResolveKey("P9", &l, nil)
	for i := 0; i < 10; i++ {
		if got := ResolveKey("P9", &l, nil); got != first {
			t.Fatalf("key changed between calls: %q vs %q", first, got)
		}
	}
	if first == ResolveKey("P9", nil, nil) {
		t.Fatal("a real variant must not collide with the canonical key")
	}
}
