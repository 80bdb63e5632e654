package config

import (
	"reflect"
	"testing"
	"time"
)

func TestPort(t *testing.T) {
	t.Setenv("PORT", "8083")
	if p, err := Port("PORT", "80"); err != nil || p != "8083" {
		t.Fatalf("expected 8083, got %q (%v)", p, err)
	}
	t.Setenv("PORT", "70000")
	if _, err := Port("PORT", "80"); err == nil {
		t.Fatal("expected error for out of range port")
	}
}

func TestInt(t *testing.T) {
	t.Setenv("MIN_NOTICE", "")
	if n, err := Int("MIN_NOTICE", 2); err != nil || n != 2 {
		t.Fatalf("expected fallback 2, got %d (%v)", n, err)
	}
	t.Setenv("MIN_NOTICE", "5")
	if n, err := Int("MIN_NOTICE", 2); err != nil || n != 5 {
		t.Fatalf("expected 5, got %d (%v)", n, err)
	}
	t.Setenv("MIN_NOTICE", "-1")
	if _, err := Int("MIN_NOTICE", 2); err == nil {
		t.Fatal("expected error for negative value")
	}
}

func TestBool(t *testing.T) {
	t.Setenv("FLAG", "yes")
	if v, err := Bool("FLAG", false); err != nil || !v {
		t.Fatalf("expected true, got %v (%v)", v, err)
	}
	t.Setenv("FLAG", "maybe")
	if _, err := Bool("FLAG", false); err == nil {
		t.Fatal("expected error for invalid bool")
	}
}

func TestSeconds(t *testing.T) {
	t.Setenv("TTL", "90")
	if d, err := Seconds("TTL", time.Minute); err != nil || d != 90*time.Second {
		t.Fatalf("expected 90s, got %s (%v)", d, err)
	}
}

func TestList(t *testing.T) {
	t.Setenv("ORIGINS", " https://a.example , ,https://b.example")
	got := List("ORIGINS")
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
