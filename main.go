// Command zincc compiles a single source file down to bytecode plus one
// input/output JSON template pair per entry point (each `pub fn`, and
// `main` whether public or not), as a single
// static binary driven by urfave/cli/v2.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/codeassociates/zincc/bytecode"
	"github.com/codeassociates/zincc/lexer"
	"github.com/codeassociates/zincc/parser"
	"github.com/codeassociates/zincc/semantic/analyzer"
	"github.com/codeassociates/zincc/value"
	"github.com/codeassociates/zincc/zerror"
	"github.com/codeassociates/zincc/zlog"
)

const version = "0.1.0"

var errColor = color.New(color.FgRed, color.Bold)

func main() {
	app := &cli.App{
		Name:    "zincc",
		Usage:   "compile a source file to stack-VM bytecode",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:      "build",
				Usage:     "compile <input.zn> into <output-dir>",
				ArgsUsage: "<input.zn>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Value: "build"},
					&cli.BoolFlag{Name: "verbose", Usage: "print the emitted instruction stream"},
				},
				Action: runBuild,
			},
		},
		Action: runBuild, // `zincc <file>` with no subcommand defaults to build
	}

	if err := app.Run(os.Args); err != nil {
		errColor.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runBuild(c *cli.Context) error {
	if c.Bool("verbose") {
		zlog.SetLevel(zlog.LevelTrace)
	}

	input := c.Args().First()
	if input == "" {
		return cli.Exit("usage: zincc build [-o output-dir] <input.zn>", 1)
	}
	outDir := c.String("output-dir")
	if outDir == "" {
		outDir = "build" // the root command has no output-dir flag of its own
	}

	src, err := os.ReadFile(input)
	if err != nil {
		return cli.Exit(fmt.Sprintf("reading %s: %s", input, err), 1)
	}

	l := lexer.New(input, string(src))
	p := parser.New(input, l)
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return reportErrors(errs)
	}

	bc := bytecode.New()
	a := analyzer.New(input, bc)
	entries := a.AnalyzeProgram(program)
	if errs := a.Errors(); len(errs) > 0 {
		return reportErrors(errs)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	for _, id := range entries {
		name := bc.EntryName(id)
		inputBytes, err := bc.InputTemplateBytes(id, value.RenderTemplate)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		outputBytes, err := bc.OutputTemplateBytes(id, value.RenderTemplate)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		programBytes, err := bc.EntryToBytes(id)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}

		if err := writeArtifact(outDir, name+".znb", programBytes); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		if err := writeArtifact(outDir, name+"_input.json", inputBytes); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		if err := writeArtifact(outDir, name+"_output.json", outputBytes); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		fmt.Printf("%s -> %s\n", name, filepath.Join(outDir, name+".znb"))
	}
	return nil
}

func writeArtifact(dir, name string, data []byte) error {
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}

func reportErrors(errs []*zerror.Error) error {
	for _, e := range errs {
		errColor.Fprintln(os.Stderr, e.Error())
	}
	return cli.Exit(fmt.Sprintf("%d error(s)", len(errs)), 1)
}
