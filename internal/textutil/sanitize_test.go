package textutil

import "testing"

func TestTitleCase(t *testing.T) {
	if got := TitleCase("  ngôi   nhà hoang "); got != "Ngôi Nhà Hoang" {
		t.Fatalf("unexpected title %q", got)
	}
	if TitleCase("   ") != "" {
		t.Fatal("expected empty title")
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"Đêm khuya ở nghĩa trang", 10, "Đêm khu..."},
		{"abcdef", 3, "abc"},
		{"abc", 0, "abc"},
	}
	for _, tc := range cases {
		if got := Truncate(tc.in, tc.limit); got != tc.want {
			t.Fatalf("Truncate(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
		}
	}
}
