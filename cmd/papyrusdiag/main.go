// Command papyrusdiag loads a raw Papyrus savegame block, runs the
// cross-reference engine and the integrity auditor over it, and prints a
// diagnostic report. It is ambient tooling around the CORE, not the spec's
// out-of-scope "restringer" string-editing utility (§1 Non-goals): it never
// mutates the graph, only reports on it.
package main

import (
	"bufio"
	"fmt"
	"os"
	"reflect"

	"github.com/fatih/color"
	"github.com/naoina/toml"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/papyrus-core/common"
	"github.com/probechain/papyrus-core/log"
	"github.com/probechain/papyrus-core/papyrus"
	"github.com/probechain/papyrus-core/worrier"
	"github.com/probechain/papyrus-core/xref"
)

var (
	blockFlag = cli.StringFlag{
		Name:  "block",
		Usage: "path to a raw Papyrus block (headerless, already decompressed)",
	}
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML file describing the EssContext facts normally supplied by the outer ESS reader",
	}
	variantFlag = cli.StringFlag{
		Name:  "variant",
		Usage: "game variant, when the config file doesn't set one (skyrim|fallout4)",
		Value: "skyrim",
	}
)

// tomlSettings mirrors the teacher's dumpconfig convention: TOML keys match
// Go field names exactly, no case-folding surprises.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string { return key },
	FieldToKey:    func(rt reflect.Type, field string) string { return field },
}

func main() {
	app := cli.NewApp()
	app.Name = "papyrusdiag"
	app.Usage = "decode a Papyrus savegame block and print its cross-reference and integrity diagnostics"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{blockFlag, configFlag, variantFlag}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Crit("papyrusdiag: %v", err)
		os.Exit(1)
	}
}

// diagConfig is the CLI's sole substitute for the outer ESS reader: every
// fact papyrus.EssContext and worrier.EssFacts need that this core doesn't
// decode itself (§1 "appears here only as collaborators with named
// interfaces").
type diagConfig struct {
	Variant             string
	EidIs64Bit          bool
	StringIndexIs32Bit  bool
	Plugins             map[uint32]string

	GameName             string
	SaveNumber           int
	PluginCount          int
	EssTruncated         bool
	FormIDArrayTruncated bool
	DataSize             int
}

func loadConfig(path string) (*diagConfig, error) {
	cfg := &diagConfig{StringIndexIs32Bit: true}
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// cliContext adapts a diagConfig into papyrus.EssContext. LookupChangeForm
// and BroadSpectrumSearch have no config-file representation here; they
// always report "not found", which only weakens the namespace-loss
// classifier, never the core decode.
type cliContext struct {
	cfg     *diagConfig
	variant common.GameVariant
}

func (c *cliContext) GameVariant() common.GameVariant { return c.variant }
func (c *cliContext) EidIs64Bit() bool                { return c.cfg.EidIs64Bit }
func (c *cliContext) StringIndexIs32Bit() bool        { return c.cfg.StringIndexIs32Bit }

func (c *cliContext) LookupChangeForm(uint32) (papyrus.ChangeFormRef, bool) { return nil, false }

func (c *cliContext) PluginForRefID(refID uint32) (string, bool) {
	p, ok := c.cfg.Plugins[refID]
	return p, ok
}

func (c *cliContext) BroadSpectrumSearch(uint64) []papyrus.ChangeFormRef { return nil }

func run(ctx *cli.Context) error {
	blockPath := ctx.String(blockFlag.Name)
	if blockPath == "" {
		return fmt.Errorf("missing -block")
	}

	cfg, err := loadConfig(ctx.String(configFlag.Name))
	if err != nil {
		return err
	}
	if cfg.Variant == "" {
		cfg.Variant = ctx.String(variantFlag.Name)
	}
	variant := common.VariantSkyrim
	if cfg.Variant == "fallout4" {
		variant = common.VariantFallout4
	}

	buf, err := os.ReadFile(blockPath)
	if err != nil {
		return err
	}

	ec := &cliContext{cfg: cfg, variant: variant}
	graph, err := papyrus.Decode(buf, ec)
	if err != nil {
		return err
	}

	report, _ := worrier.Audit(graph, ec, worrier.EssFacts{
		PluginCount:          cfg.PluginCount,
		EssTruncated:         cfg.EssTruncated,
		FormIDArrayTruncated: cfg.FormIDArrayTruncated,
		GameName:             cfg.GameName,
		SaveNumber:           cfg.SaveNumber,
		DataSize:             cfg.DataSize,
	}, nil)

	printReport(report)
	printSummary(graph)
	printPluginReachability(graph, ec, cfg.Plugins)

	if report.DisableSaving {
		os.Exit(1)
	}
	return nil
}

func printReport(r *worrier.Report) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Severity", "Message"})

	red := color.New(color.FgRed, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	for _, m := range r.Fatal {
		table.Append([]string{red("FATAL"), m})
	}
	for _, m := range r.Warning {
		table.Append([]string{yellow("WARN"), m})
	}
	if len(r.Fatal) == 0 && len(r.Warning) == 0 {
		table.Append([]string{"OK", "no anomalies detected"})
	}
	table.Render()
}

func printSummary(graph *papyrus.Papyrus) {
	fmt.Printf("scripts=%d instances=%d references=%d arrays=%d threads=%d\n",
		graph.Scripts.Len(), graph.ScriptInstances.Len(), graph.References.Len(),
		graph.Arrays.Len(), graph.ActiveScripts.Len())
}

// printPluginReachability exercises the cross-reference engine's plugin-
// reachability index for every plugin the config file names, reporting how
// many graph nodes each one is the sole owner of after Clean/Extend.
func printPluginReachability(graph *papyrus.Papyrus, ec papyrus.EssContext, plugins map[uint32]string) {
	if len(plugins) == 0 {
		return
	}
	engine := xref.NewEngine(graph, ec)
	seen := map[string]bool{}
	for _, name := range plugins {
		if seen[name] {
			continue
		}
		seen[name] = true
		set := engine.PluginSet(name)
		if set == nil {
			continue
		}
		fmt.Printf("plugin %-24s reachable=%d\n", name, set.Cardinality())
	}
	fmt.Printf("eliminated (shared across plugins) = %d\n", engine.Eliminated().Cardinality())
}
