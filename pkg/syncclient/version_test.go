package syncclient

import "testing"

func TestVersionGateFirstPayloadAlwaysApplies(t *testing.T) {
	var g versionGate
	apply, resync := g.observe(7, false)
	if !apply || resync {
		t.Fatalf("first payload: apply=%v resync=%v", apply, resync)
	}
}

func TestVersionGateSequentialPatchesApply(t *testing.T) {
	var g versionGate
	g.observe(1, true)

	apply, resync := g.observe(2, false)
	if !apply || resync {
		t.Fatalf("v2 after v1: apply=%v resync=%v", apply, resync)
	}
}

func TestVersionGateStaleAndDuplicateSkipped(t *testing.T) {
	var g versionGate
	g.observe(5, true)

	if apply, _ := g.observe(5, false); apply {
		t.Fatalf("duplicate version must not apply")
	}
	if apply, _ := g.observe(3, false); apply {
		t.Fatalf("stale version must not apply")
	}
}

func TestVersionGateGapAppliesAndRequestsResync(t *testing.T) {
	var g versionGate
	g.observe(1, true)

	apply, resync := g.observe(4, false)
	if !apply || !resync {
		t.Fatalf("gap: apply=%v resync=%v", apply, resync)
	}

	// Gate caught up to 4; the next sequential patch is normal again.
	apply, resync = g.observe(5, false)
	if !apply || resync {
		t.Fatalf("post-gap: apply=%v resync=%v", apply, resync)
	}
}

func TestVersionGateSnapshotOverridesHistory(t *testing.T) {
	var g versionGate
	g.observe(9, true)

	// Eviction restarts server versions; the recovery snapshot may carry
	// a lower number and must still apply.
	apply, resync := g.observe(1, true)
	if !apply || resync {
		t.Fatalf("snapshot: apply=%v resync=%v", apply, resync)
	}
	if apply, _ := g.observe(2, false); !apply {
		t.Fatalf("patch after rebasing snapshot must apply")
	}
}

func TestVersionGateResetForgetsHistory(t *testing.T) {
	var g versionGate
	g.observe(9, true)
	g.reset()

	apply, resync := g.observe(2, false)
	if !apply || resync {
		t.Fatalf("post-reset: apply=%v resync=%v", apply, resync)
	}
}
