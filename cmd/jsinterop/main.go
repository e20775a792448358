package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"

	"github.com/nooga/jsinterop/pkg/driver"
	"github.com/nooga/jsinterop/pkg/types"
)

func main() {
	os.Exit(run(afero.NewOsFs(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr, environ()))
}

func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// run converts a JSON document, read from -e, a file on fs or stdin, to the
// host type named by -type and prints the result. The config file is read
// from fs too.
func run(fs afero.Fs, args []string, stdin io.Reader, stdout, stderr io.Writer, env map[string]string) int {
	flags := flag.NewFlagSet("jsinterop", flag.ContinueOnError)
	flags.SetOutput(stderr)
	exprFlag := flags.String("e", "", "Convert the given JSON text and exit")
	typeFlag := flags.String("type", "any", "Target type: bool, int, int64, uint8, float64, string, any, []T or List[T]")
	configFlag := flags.String("config", "", "JSON config file")
	tryFlag := flags.Bool("try", false, "Use the cached TryConvert path and report convertibility")
	cacheStatsFlag := flags.Bool("cache-stats", false, "Show conversion cache statistics after the conversion")
	if err := flags.Parse(args); err != nil {
		return 64 // command line usage error
	}

	target, err := parseType(*typeFlag)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 64
	}

	var input []byte
	switch {
	case *exprFlag != "":
		input = []byte(*exprFlag)
	case flags.NArg() == 1:
		input, err = afero.ReadFile(fs, flags.Arg(0))
	case flags.NArg() == 0:
		input, err = io.ReadAll(stdin)
	default:
		fmt.Fprintf(stderr, "Usage: jsinterop [-type T] [-e json | file]\n")
		return 64
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error reading input: %v\n", err)
		return 66 // cannot open input
	}

	engine, err := driver.NewFromEnvironment(fs, *configFlag, env)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 78 // configuration error
	}

	var doc interface{}
	if err := json.Unmarshal(input, &doc); err != nil {
		fmt.Fprintf(stderr, "Error parsing JSON: %v\n", err)
		return 65 // data format error
	}
	value := engine.ToValue(doc)

	if *tryFlag {
		out, ok := engine.TryConvert(value, target)
		if !ok {
			fmt.Fprintf(stdout, "not convertible to %s\n", target)
			return 1
		}
		fmt.Fprintf(stdout, "%#v\n", out)
	} else {
		out, err := engine.Convert(value, target)
		if err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "%#v\n", out)
	}

	if *cacheStatsFlag {
		stats := engine.CacheStats()
		fmt.Fprintf(stdout, "cache: %d hits, %d misses, %d entries\n", stats.Hits, stats.Misses, stats.Entries)
	}
	return 0
}

var scalarTypes = map[string]types.Type{
	"bool":    types.Bool,
	"int":     types.Int,
	"int64":   types.Int64,
	"uint8":   types.Uint8,
	"float64": types.Float64,
	"string":  types.String,
	"any":     types.Any,
}

func parseType(name string) (types.Type, error) {
	name = strings.TrimSpace(name)
	if t, ok := scalarTypes[name]; ok {
		return t, nil
	}
	if elem, ok := strings.CutPrefix(name, "[]"); ok {
		et, err := parseType(elem)
		if err != nil {
			return nil, err
		}
		return types.NewArrayType(et), nil
	}
	if elem, ok := strings.CutPrefix(name, "List["); ok && strings.HasSuffix(elem, "]") {
		switch strings.TrimSuffix(elem, "]") {
		case "string":
			return types.SequenceOf[string]()
		case "int":
			return types.SequenceOf[int]()
		case "float64":
			return types.SequenceOf[float64]()
		case "any":
			return types.SequenceOf[interface{}]()
		}
	}
	return nil, fmt.Errorf("unknown type %q", name)
}
