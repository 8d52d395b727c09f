// Command uregexdump compiles a pattern and dumps its bytecode, capture map
// and start-type metadata as YAML -- useful for understanding why a pattern
// picked the find() strategy it did, or for diffing bytecode across changes.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"

	"github.com/coregx/uregex/compiler"
	"github.com/coregx/uregex/opcode"
)

// runnerConfig holds defaults loaded from the environment, the same
// caarlos0/env pattern this corpus's runner configs use for knobs that are
// more often set once (in CI/dev env) than passed per-invocation.
type runnerConfig struct {
	StackLimit int   `env:"UREGEXDUMP_STACK_LIMIT" envDefault:"0"`
	TimeLimit  int64 `env:"UREGEXDUMP_TIME_LIMIT" envDefault:"0"`
}

type instDump struct {
	Index   int    `yaml:"index"`
	Op      string `yaml:"op"`
	Operand int    `yaml:"operand"`
}

type patternDump struct {
	Source      string          `yaml:"source"`
	GroupCount  int             `yaml:"group_count"`
	GroupNames  []string        `yaml:"group_names,omitempty"`
	MinMatchLen int             `yaml:"min_match_len"`
	StartType   string          `yaml:"start_type"`
	DataSize    int             `yaml:"data_size"`
	FrameSize   int             `yaml:"frame_size"`
	Code        []instDump      `yaml:"code"`
	RunnerConfig runnerConfig   `yaml:"runner_config"`
}

var startTypeNames = map[compiler.StartType]string{
	compiler.StartNoInfo:  "NO_INFO",
	compiler.StartAtStart: "START",
	compiler.StartLine:    "LINE",
	compiler.StartChar:    "CHAR",
	compiler.StartString:  "STRING",
	compiler.StartSet:     "SET",
}

func main() {
	pattern := flag.String("pattern", "", "pattern source to compile and dump")
	flagsStr := flag.String("flags", "", "mode flags: i=CaseInsensitive x=Comments s=DotAll m=Multiline d=UnixLines")
	flag.Parse()

	if *pattern == "" {
		fmt.Fprintln(os.Stderr, "usage: uregexdump -pattern PATTERN [-flags ixsmd]")
		os.Exit(2)
	}

	var cfg runnerConfig
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, "uregexdump: reading env config:", err)
		os.Exit(1)
	}

	p, err := compiler.Compile(*pattern, parseModeFlags(*flagsStr))
	if err != nil {
		fmt.Fprintln(os.Stderr, "uregexdump: compile error:", err)
		os.Exit(1)
	}

	out, err := yaml.Marshal(buildDump(p, cfg))
	if err != nil {
		fmt.Fprintln(os.Stderr, "uregexdump: marshal error:", err)
		os.Exit(1)
	}
	os.Stdout.Write(out)
}

func parseModeFlags(s string) compiler.Flags {
	var f compiler.Flags
	for _, c := range s {
		switch c {
		case 'i':
			f |= compiler.CaseInsensitive
		case 'x':
			f |= compiler.Comments
		case 's':
			f |= compiler.DotAll
		case 'm':
			f |= compiler.Multiline
		case 'd':
			f |= compiler.UnixLines
		}
	}
	return f
}

func buildDump(p *compiler.Pattern, cfg runnerConfig) patternDump {
	code := make([]instDump, 0, len(p.Code))
	for i, word := range p.Code {
		op, operand := opcode.Decode(word)
		code = append(code, instDump{Index: i, Op: op.String(), Operand: operand})
	}

	return patternDump{
		Source:       p.Source,
		GroupCount:   p.GroupCount(),
		GroupNames:   p.SubexpNames(),
		MinMatchLen:  p.MinMatchLen,
		StartType:    startTypeNames[p.StartType],
		DataSize:     p.DataSize,
		FrameSize:    p.FrameSize,
		Code:         code,
		RunnerConfig: cfg,
	}
}
