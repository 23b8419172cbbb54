package reportview

import "testing"

func TestDebouncer_OnlyLatestFires(t *testing.T) {
	var d Debouncer
	g1 := d.Input("ker")
	g2 := d.Input("kern")
	g3 := d.Input("kernel")

	if d.Raw() != "kernel" || !d.Pending() {
		t.Fatalf("Raw/Pending = %q/%v, want kernel/true", d.Raw(), d.Pending())
	}
	for _, g := range []uint64{g1, g2} {
		if v, ok := d.Fire(g); ok {
			t.Errorf("superseded Fire(%d) committed %q", g, v)
		}
	}
	v, ok := d.Fire(g3)
	if !ok || v != "kernel" {
		t.Errorf("Fire(latest) = %q/%v, want kernel/true", v, ok)
	}
	if _, ok := d.Fire(g3); ok {
		t.Error("Fire(latest) committed twice")
	}
}

func TestDebouncer_ClearCancelsPending(t *testing.T) {
	var d Debouncer
	g := d.Input("kernel")

	if v := d.Clear(); v != "" {
		t.Errorf("Clear() = %q, want empty", v)
	}
	if d.Pending() {
		t.Error("Pending() = true after Clear()")
	}
	if _, ok := d.Fire(g); ok {
		t.Error("timer armed before Clear() still fired")
	}
}

func TestDebouncer_Submit(t *testing.T) {
	var d Debouncer
	g := d.Input("ker")
	if v := d.Submit("kernel"); v != "kernel" || d.Raw() != "kernel" {
		t.Errorf("Submit() = %q raw %q", v, d.Raw())
	}
	if _, ok := d.Fire(g); ok {
		t.Error("timer armed before Submit() still fired")
	}
}
