package log

import "testing"

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"DEBUG":   LevelDebug,
		" error ": LevelError,
		"info":    LevelInfo,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestEnabled(t *testing.T) {
	defer SetLevel(LevelInfo)

	SetLevel(LevelError)
	if enabled(LevelInfo) {
		t.Error("INFO must be suppressed at ERROR level")
	}
	if !enabled(LevelError) {
		t.Error("ERROR must always pass")
	}

	SetLevel(LevelDebug)
	if !enabled(LevelDebug) {
		t.Error("DEBUG must pass at DEBUG level")
	}
}

func TestFatalCallsExit(t *testing.T) {
	orig := exit
	defer func() { exit = orig }()

	code := -1
	exit = func(c int) { code = c }

	Fatal("boom", nil)
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}
