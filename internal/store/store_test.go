package store

import "testing"

func TestMemory(t *testing.T) {
	m := NewMemory()
	if _, ok, err := m.Get("list"); ok || err != nil {
		t.Fatalf("Get on empty store = ok:%v err:%v", ok, err)
	}
	if err := m.Set("list", "[]"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := m.Set("list", `[{"text":"a","done":false,"id":1}]`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := m.Get("list")
	if err != nil || !ok {
		t.Fatalf("Get = ok:%v err:%v", ok, err)
	}
	if v != `[{"text":"a","done":false,"id":1}]` {
		t.Errorf("Get = %q", v)
	}
	if err := m.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
