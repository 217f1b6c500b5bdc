package fabric

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// FabricBundle is the top-level YAML-loadable configuration for one router
// (or, via Routers, a small fixed set of them), following the teacher's
// bundle.go shape: strict decoding, a Validate() pass, and IsValidX/ValidXNames
// registries for every closed-variant field (SPEC_FULL §10).
type FabricBundle struct {
	Seed    int64                   `yaml:"seed"`
	Routers map[string]RouterConfig `yaml:"routers"`
}

// LoadFabricBundle reads and parses a YAML fabric configuration file. Uses
// strict parsing: unrecognized keys (typos) are rejected, matching
// sim/bundle.go's LoadPolicyBundle.
func LoadFabricBundle(path string) (*FabricBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fabric config: %w", err)
	}
	var bundle FabricBundle
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&bundle); err != nil {
		return nil, fmt.Errorf("parsing fabric config: %w", err)
	}
	return &bundle, nil
}

// Valid variant-name registries. Unexported to prevent external mutation;
// read through IsValidX/ValidXNames.
var (
	validArbiterTypes = map[string]bool{
		string(ArbiterLSLP): true, string(ArbiterComparing): true, string(ArbiterRandom): true,
		string(ArbiterRandomPriority): true, string(ArbiterLRU): true, string(ArbiterTwoStage): true,
	}
	validAllocatorTypes = map[string]bool{
		string(AllocatorRSeparable): true, string(AllocatorRCSeparable): true,
		string(AllocatorCRSeparable): true, string(AllocatorWavefront): true,
	}
	validCongestionModes = map[string]bool{
		string(CongestionOutput): true, string(CongestionDownstream): true, string(CongestionOutputAndDownstream): true,
	}
	validWavefrontSchemes = map[string]bool{
		"": true, string(WavefrontSequential): true, string(WavefrontRandom): true,
	}
	validOutputModes = map[string]bool{
		"": true, string(OutputModeFlit): true, string(OutputModePacket): true,
	}
)

// IsValidArbiterType returns true if name is a recognized arbiter type.
func IsValidArbiterType(name string) bool { return validArbiterTypes[name] }

// IsValidAllocatorType returns true if name is a recognized allocator type.
func IsValidAllocatorType(name string) bool { return validAllocatorTypes[name] }

// IsValidCongestionMode returns true if name is a recognized congestion mode.
func IsValidCongestionMode(name string) bool { return validCongestionModes[name] }

// ValidArbiterTypeNames returns the sorted list of recognized arbiter types.
func ValidArbiterTypeNames() []string { return validNamesList(validArbiterTypes) }

// ValidAllocatorTypeNames returns the sorted list of recognized allocator types.
func ValidAllocatorTypeNames() []string { return validNamesList(validAllocatorTypes) }

// ValidCongestionModeNames returns the sorted list of recognized congestion modes.
func ValidCongestionModeNames() []string { return validNamesList(validCongestionModes) }

func validNamesList(m map[string]bool) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		if k != "" {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

func validNames(m map[string]bool) string {
	return strings.Join(validNamesList(m), ", ")
}

// Validate checks that every variant tag and nested configuration in the
// bundle is recognized, without constructing any component (construction
// itself, via New*, is the authoritative check for size/compatibility
// errors). Routers are checked in name order, and Validate returns the
// first problem it finds; it does not collect every bad tag.
func (b *FabricBundle) Validate() error {
	if len(b.Routers) == 0 {
		return fmt.Errorf("fabric config defines no routers")
	}
	names := make([]string, 0, len(b.Routers))
	for name := range b.Routers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cfg := b.Routers[name]
		if err := validateRouterConfig(name, cfg); err != nil {
			return err
		}
	}
	return nil
}

func validateRouterConfig(path string, cfg RouterConfig) error {
	if cfg.NumPorts <= 0 {
		return fmt.Errorf("%s: num_ports must be positive, got %d", path, cfg.NumPorts)
	}
	if cfg.VcsPerPort <= 0 {
		return fmt.Errorf("%s: vcs_per_port must be positive, got %d", path, cfg.VcsPerPort)
	}
	if !validOutputModes[string(cfg.OutputMode)] {
		return fmt.Errorf("%s: unknown output_mode %q; valid options: %s", path, cfg.OutputMode, validNames(validOutputModes))
	}
	if cfg.Congestion != "" && !IsValidCongestionMode(string(cfg.Congestion)) {
		return fmt.Errorf("%s: unknown congestion_mode %q; valid options: %s", path, cfg.Congestion, validNames(validCongestionModes))
	}
	if err := validateAllocatorConfig(path+".vc_allocator", cfg.VCAllocator); err != nil {
		return err
	}
	if err := validateCrossbarConfig(path+".crossbar", cfg.Crossbar); err != nil {
		return err
	}
	return validateCrossbarConfig(path+".output_crossbar", cfg.OutputCrossbar)
}

func validateCrossbarConfig(path string, cfg CrossbarSchedulerConfig) error {
	if cfg.IdleUnlock && !cfg.PacketLock {
		return fmt.Errorf("%s: idle_unlock requires packet_lock", path)
	}
	return validateAllocatorConfig(path+".allocator", cfg.Allocator)
}

func validateAllocatorConfig(path string, cfg AllocatorConfig) error {
	if !IsValidAllocatorType(string(cfg.Type)) {
		return fmt.Errorf("%s: unknown allocator type %q; valid options: %s", path, cfg.Type, validNames(validAllocatorTypes))
	}
	if cfg.Type == AllocatorWavefront {
		if !validWavefrontSchemes[string(cfg.Scheme)] {
			return fmt.Errorf("%s: unknown wavefront scheme %q", path, cfg.Scheme)
		}
		return nil
	}
	if cfg.Iterations <= 0 && cfg.Type != AllocatorRSeparable {
		return fmt.Errorf("%s: iterations must be positive, got %d", path, cfg.Iterations)
	}
	if cfg.ResourceArbiter != nil {
		if err := validateArbiterConfig(path+".resource_arbiter", *cfg.ResourceArbiter); err != nil {
			return err
		}
	}
	if cfg.ClientArbiter != nil {
		if err := validateArbiterConfig(path+".client_arbiter", *cfg.ClientArbiter); err != nil {
			return err
		}
	}
	return nil
}

func validateArbiterConfig(path string, cfg ArbiterConfig) error {
	if !IsValidArbiterType(string(cfg.Type)) {
		return fmt.Errorf("%s: unknown arbiter type %q; valid options: %s", path, cfg.Type, validNames(validArbiterTypes))
	}
	if cfg.Type == ArbiterTwoStage {
		if cfg.NumClasses <= 0 {
			return fmt.Errorf("%s: num_classes must be positive for a two_stage arbiter", path)
		}
		if cfg.Stage1 == nil || cfg.Stage2 == nil {
			return fmt.Errorf("%s: two_stage arbiter requires stage1 and stage2", path)
		}
		if err := validateArbiterConfig(path+".stage1", *cfg.Stage1); err != nil {
			return err
		}
		return validateArbiterConfig(path+".stage2", *cfg.Stage2)
	}
	return nil
}
