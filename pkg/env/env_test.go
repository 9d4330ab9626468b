package env

import "testing"

func TestGetFallsBackWhenUnset(t *testing.T) {
	t.Setenv("MURAQQA_TEST_VALUE", "")
	if got := Get("MURAQQA_TEST_VALUE", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("MURAQQA_TEST_VALUE", " set ")
	if got := Get("MURAQQA_TEST_VALUE", "fallback"); got != "set" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
}

func TestFirstPrefersEarlierKeys(t *testing.T) {
	t.Setenv("MURAQQA_PORT_A", "")
	t.Setenv("MURAQQA_PORT_B", "9090")
	if got := First("8080", "MURAQQA_PORT_A", "MURAQQA_PORT_B"); got != "9090" {
		t.Fatalf("expected 9090, got %q", got)
	}
	t.Setenv("MURAQQA_PORT_A", "7070")
	if got := First("8080", "MURAQQA_PORT_A", "MURAQQA_PORT_B"); got != "7070" {
		t.Fatalf("expected 7070, got %q", got)
	}
}
