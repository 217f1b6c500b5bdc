// cmd/demo.go
package cmd

import (
	"fmt"

	"github.com/netfabric/fabricsim/fabric"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	demoConfigPath string
	demoCycles     int64
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a small fixed router with a synthetic injection and print a summary",
	RunE:  runDemo,
}

func init() {
	demoCmd.Flags().StringVar(&demoConfigPath, "config", "", "Path to a fabric YAML config (defaults to a built-in 4-port, 2-VC router)")
	demoCmd.Flags().Int64Var(&demoCycles, "cycles", 20, "Number of simulated cycles to run")
}

func defaultDemoBundle() *fabric.FabricBundle {
	return &fabric.FabricBundle{
		Seed: 1,
		Routers: map[string]fabric.RouterConfig{
			"r0": {
				NumPorts:   4,
				VcsPerPort: 2,
				InputQueue: fabric.InputQueueConfig{Depth: 8},
				VCAllocator: fabric.AllocatorConfig{
					Type:            fabric.AllocatorRSeparable,
					ResourceArbiter: &fabric.ArbiterConfig{Type: fabric.ArbiterLSLP},
				},
				Crossbar: fabric.CrossbarSchedulerConfig{
					Allocator: fabric.AllocatorConfig{
						Type:            fabric.AllocatorRCSeparable,
						Iterations:      2,
						ResourceArbiter: &fabric.ArbiterConfig{Type: fabric.ArbiterLSLP},
						ClientArbiter:   &fabric.ArbiterConfig{Type: fabric.ArbiterLSLP},
					},
				},
				OutputCrossbar: fabric.CrossbarSchedulerConfig{
					Allocator: fabric.AllocatorConfig{
						Type:            fabric.AllocatorRCSeparable,
						Iterations:      2,
						ResourceArbiter: &fabric.ArbiterConfig{Type: fabric.ArbiterLSLP},
						ClientArbiter:   &fabric.ArbiterConfig{Type: fabric.ArbiterLSLP},
					},
				},
				OutputMode:      fabric.OutputModeFlit,
				ChannelCredits:  8,
				CreditLatency:   1,
				TransferLatency: 1,
				MetricsEnabled:  true,
			},
		},
	}
}

func runDemo(cmd *cobra.Command, args []string) error {
	bundle := defaultDemoBundle()
	if demoConfigPath != "" {
		loaded, err := fabric.LoadFabricBundle(demoConfigPath)
		if err != nil {
			return err
		}
		bundle = loaded
	}
	if err := bundle.Validate(); err != nil {
		return err
	}

	cfg, ok := bundle.Routers["r0"]
	if !ok {
		return fmt.Errorf("demo requires a router named %q in the config", "r0")
	}

	sim := fabric.NewSimulator(fabric.SimulationSeed(bundle.Seed))
	routing := &fabric.StaticRoute{Candidates: []fabric.RouteCandidate{{Port: 3, VC: 0}}}
	router := fabric.NewRouter(sim, "r0", cfg, routing)

	msglog := fabric.NewLogrusMessageLog()
	router.OnSendFlit = func(port int, flit *fabric.Flit) {
		if flit.IsTail {
			msglog.LogMessage(flit.Packet.Message)
		}
	}

	msg := fabric.NewMessage(1, 1, 3)
	packet := fabric.NewPacket(1)
	msg.AddPacket(packet)
	const numFlits = 4
	for i := 0; i < numFlits; i++ {
		packet.AddFlit(fabric.NewFlit(uint64(i)))
	}
	packet.Finalize()
	msg.InjectionTime = 0

	for i, flit := range packet.Flits {
		t := int64(i)
		flit := flit
		flit.VC = 0
		sim.Schedule(fabric.NewFuncEvent(t, fabric.EpsilonCredit, "demo.inject", func(sim *fabric.Simulator) {
			router.ReceiveFlit(1, flit)
		}))
	}

	sim.Run(demoCycles)

	logrus.WithField("cycles", demoCycles).Info("demo run complete")
	fmt.Printf("congestion snapshot: %v\n", router.CongestionSnapshot())
	return nil
}
