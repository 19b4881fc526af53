package version

import "testing"

func TestString(t *testing.T) {
	Version, Commit, BuildTime = "1.2.0", "abc1234", "2025-05-20T18:00:00Z"
	t.Cleanup(func() { Version, Commit, BuildTime = "dev", "unknown", "unknown" })

	if got, want := String(), "1.2.0 (abc1234) built 2025-05-20T18:00:00Z"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got, want := UserAgent(), "Mozilla/5.0 (compatible; b3-data/1.2.0)"; got != want {
		t.Errorf("UserAgent() = %q, want %q", got, want)
	}
}
