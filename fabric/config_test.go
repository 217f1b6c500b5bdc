package fabric

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTempFabricYAML(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fabric.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing temp fabric config: %v", err)
	}
	return path
}

func TestLoadFabricBundle_ValidYAML(t *testing.T) {
	yaml := `
seed: 99
routers:
  r0:
    num_ports: 4
    vcs_per_port: 2
    vc_allocator:
      type: r_separable
      resource_arbiter:
        type: lslp
    crossbar:
      allocator:
        type: rc_separable
        iterations: 2
        resource_arbiter:
          type: lslp
        client_arbiter:
          type: lslp
    output_crossbar:
      allocator:
        type: rc_separable
        iterations: 2
        resource_arbiter:
          type: lslp
        client_arbiter:
          type: lslp
`
	path := writeTempFabricYAML(t, yaml)
	bundle, err := LoadFabricBundle(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bundle.Seed != 99 {
		t.Errorf("expected seed 99, got %d", bundle.Seed)
	}
	r0, ok := bundle.Routers["r0"]
	if !ok {
		t.Fatalf("expected router r0 to be present")
	}
	if r0.NumPorts != 4 || r0.VcsPerPort != 2 {
		t.Errorf("unexpected router dimensions: %+v", r0)
	}
	if err := bundle.Validate(); err != nil {
		t.Errorf("expected a valid bundle, got error: %v", err)
	}
}

func TestLoadFabricBundle_RejectsUnknownField(t *testing.T) {
	yaml := `
seed: 1
routers:
  r0:
    num_ports: 2
    vcs_per_port: 1
    totally_bogus_field: true
`
	path := writeTempFabricYAML(t, yaml)
	_, err := LoadFabricBundle(path)
	if err == nil {
		t.Fatalf("expected strict decoding to reject an unknown field")
	}
}

func TestFabricBundle_ValidateRejectsEmptyRouters(t *testing.T) {
	bundle := &FabricBundle{Seed: 1}
	if err := bundle.Validate(); err == nil {
		t.Fatalf("expected an error when no routers are defined")
	}
}

func TestFabricBundle_ValidateRejectsUnknownArbiterType(t *testing.T) {
	bundle := &FabricBundle{
		Seed: 1,
		Routers: map[string]RouterConfig{
			"r0": {
				NumPorts:   2,
				VcsPerPort: 1,
				VCAllocator: AllocatorConfig{
					Type:            AllocatorRSeparable,
					ResourceArbiter: &ArbiterConfig{Type: "not-a-real-arbiter"},
				},
			},
		},
	}
	if err := bundle.Validate(); err == nil {
		t.Fatalf("expected an error for an unknown arbiter type")
	}
}

func TestFabricBundle_ValidateRejectsIdleUnlockWithoutPacketLock(t *testing.T) {
	bundle := &FabricBundle{
		Seed: 1,
		Routers: map[string]RouterConfig{
			"r0": {
				NumPorts:   2,
				VcsPerPort: 1,
				VCAllocator: AllocatorConfig{
					Type:            AllocatorRSeparable,
					ResourceArbiter: &ArbiterConfig{Type: ArbiterLSLP},
				},
				Crossbar: CrossbarSchedulerConfig{
					IdleUnlock: true,
					Allocator: AllocatorConfig{
						Type:            AllocatorRSeparable,
						ResourceArbiter: &ArbiterConfig{Type: ArbiterLSLP},
					},
				},
			},
		},
	}
	if err := bundle.Validate(); err == nil {
		t.Fatalf("expected an error when idle_unlock is set without packet_lock")
	}
}

func TestValidArbiterTypeNames_IsSortedAndComplete(t *testing.T) {
	names := ValidArbiterTypeNames()
	want := []string{"comparing", "lru", "lslp", "random", "random_priority", "two_stage"}
	require.Equal(t, want, names)
}
