package telegram

import (
	"testing"

	"haulbot/pkg/logx"
)

func TestSetLogger(t *testing.T) {
	t.Parallel()
	a := &Adapter{}

	a.SetLogger(logx.Nop())
	if a.log.IsZero() {
		t.Fatal("SetLogger did not replace the logger")
	}

	// A zero logger must not clobber an already-wired one.
	a.SetLogger(logx.Logger{})
	if a.log.IsZero() {
		t.Fatal("zero logger replaced the live one")
	}
}

func TestIsAdmin(t *testing.T) {
	t.Parallel()
	a := &Adapter{cfg: Config{AdminIDs: []int64{10, 20}}}

	if !a.isAdmin(10) || !a.isAdmin(20) {
		t.Fatal("configured admin rejected")
	}
	if a.isAdmin(30) || a.isAdmin(0) {
		t.Fatal("non-admin accepted")
	}
}

func TestCommandArg(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]string{
		"/addcity Miami":        "Miami",
		"/addcity  Fort Myers ": "Fort Myers",
		"/addcity":              "",
		"  /addcity  ":          "",
	} {
		if got := commandArg(in); got != want {
			t.Errorf("commandArg(%q) = %q, want %q", in, got, want)
		}
	}
}
