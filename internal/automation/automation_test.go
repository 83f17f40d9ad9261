package automation_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/xpbdsim/internal/automation"
	"github.com/san-kum/xpbdsim/internal/config"
	"github.com/san-kum/xpbdsim/internal/experiment"
)

const script = `
name: smoke
description: two short runs
steps:
  - scene: rope
    preset: short
    duration: 0.5
    set:
      rope.compliance: 0.01
    save_as: soft-rope
  - scene: drop
    duration: 0.25
    seed: 7
`

var _ = Describe("Scenario", func() {
	var registry *experiment.Registry

	BeforeEach(func() {
		registry = experiment.NewRegistry()
	})

	writeScript := func(body string) string {
		path := filepath.Join(GinkgoT().TempDir(), "scenario.yaml")
		Expect(os.WriteFile(path, []byte(body), 0644)).To(Succeed())
		return path
	}

	It("loads and runs every step", func() {
		scenario, err := automation.LoadScenario(writeScript(script))
		Expect(err).NotTo(HaveOccurred())
		Expect(scenario.Name).To(Equal("smoke"))
		Expect(scenario.Steps).To(HaveLen(2))

		results, err := automation.RunScenario(context.Background(), scenario, registry)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))

		Expect(results[0].Name).To(Equal("soft-rope"))
		Expect(results[0].Config.Rope.Compliance).To(Equal(0.01))
		Expect(results[0].Config.Rope.Segments).To(Equal(8))
		Expect(results[0].Result.StepsTaken).To(Equal(results[0].Config.Steps()))
		Expect(results[0].Edges).NotTo(BeEmpty())

		Expect(results[1].Name).To(Equal("drop-2"))
		Expect(results[1].Config.Seed).To(Equal(int64(7)))
		Expect(results[1].Result.Metrics).To(HaveKey("contacts"))
	})

	It("rejects empty scenarios", func() {
		_, err := automation.LoadScenario(writeScript("name: empty\n"))
		Expect(err).To(HaveOccurred())
	})

	It("stops at the first bad step and keeps earlier results", func() {
		scenario := &automation.Scenario{Steps: []automation.ScenarioStep{
			{Scene: "rope", Preset: "short", Duration: 0.1},
			{Scene: "rope", Set: map[string]float64{"rope.colour": 1}},
			{Scene: "rope", Duration: 0.1},
		}}
		results, err := automation.RunScenario(context.Background(), scenario, registry)
		Expect(err).To(MatchError(ContainSubstring("step 2")))
		Expect(results).To(HaveLen(1))
	})

	It("reports unknown presets", func() {
		_, err := automation.ScenarioStep{Scene: "rope", Preset: "frayed"}.Config()
		Expect(err).To(MatchError(ContainSubstring("unknown preset")))
	})
})

var _ = Describe("MonteCarlo", func() {
	It("keeps a jittered rope stable", func() {
		base := config.GetPreset("rope", "short")
		base.Duration = 0.5

		results, err := automation.RunMonteCarlo(context.Background(), &automation.MonteCarloConfig{
			Base:         base,
			Perturbation: 0.05,
			NumTrials:    3,
			Seed:         1,
		}, experiment.NewRegistry())
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))

		stable, unstable := automation.MonteCarloStats(results)
		Expect(stable).To(Equal(3))
		Expect(unstable).To(BeZero())
		Expect(results[0].MaxStretch).To(BeNumerically(">", 0))
	})

	It("flags trials that leave the limit", func() {
		base := config.GetPreset("rope", "short")
		base.Duration = 0.5

		results, err := automation.RunMonteCarlo(context.Background(), &automation.MonteCarloConfig{
			Base:      base,
			NumTrials: 1,
			Limit:     0.5,
			Seed:      1,
		}, experiment.NewRegistry())
		Expect(err).NotTo(HaveOccurred())
		Expect(results[0].Stable).To(BeFalse())
	})

	It("needs a base config", func() {
		_, err := automation.RunMonteCarlo(context.Background(), &automation.MonteCarloConfig{NumTrials: 1}, experiment.NewRegistry())
		Expect(err).To(HaveOccurred())
	})

	It("stops when cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{
			Base:      config.GetPreset("rope", "short"),
			NumTrials: 2,
		}, experiment.NewRegistry())
		Expect(err).To(MatchError(context.Canceled))
	})
})
