package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestGenKey(t *testing.T) {
	cmd := newRoot()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"gen-key"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("gen-key: %v", err)
	}
	if key := strings.TrimSpace(out.String()); len(key) != 44 {
		t.Fatalf("expected a 44 char base64 key, got %q", key)
	}
}

func TestDatabaseCommandsNeedURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	for _, args := range [][]string{{"migrate"}, {"slots", "--shop", "x"}, {"sweep"}, {"sync-calendar", "x"}} {
		cmd := newRoot()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs(args)
		if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
			t.Fatalf("%v: expected DATABASE_URL error, got %v", args, err)
		}
	}
}

func TestSlotsRequiresShop(t *testing.T) {
	cmd := newRoot()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"slots"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected missing --shop to fail")
	}
}
