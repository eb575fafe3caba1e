package obslog

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"off": Off, "error": Error, "warn": Warn, "warning": Warn,
		"info": Info, "debug": Debug, "trace": Trace, "bogus": Info,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestLoggerSuppressesBelowConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Warn, &buf)
	l.Debug("should not appear")
	l.Info("should not appear either")
	l.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Errorf("suppressed messages leaked into output: %q", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("expected WARN message in output: %q", out)
	}
}

func TestOffSuppressesEverything(t *testing.T) {
	var buf bytes.Buffer
	l := New(Off, &buf)
	l.Error("nope")
	if buf.Len() != 0 {
		t.Errorf("expected no output at Off level, got %q", buf.String())
	}
}

func TestWithFieldsCarriesAcrossCalls(t *testing.T) {
	var buf bytes.Buffer
	l := New(Info, &buf).WithField("region", 3)
	l.Info("cell built")
	if !strings.Contains(buf.String(), "region=3") {
		t.Errorf("expected region=3 field in output: %q", buf.String())
	}
}
