// snofokk-config-check validates a station configuration file and prints
// which thresholds differ from the built-in defaults, so a tuned config
// can be reviewed at a glance before deployment.
package main

import (
	"flag"
	"fmt"
	"os"
	"reflect"

	"github.com/toro68/snofokk-analyse-sub002/pkg/config"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to YAML configuration file")
		preset     = flag.String("preset", "", "Named preset to check instead of a file")
	)
	flag.Parse()

	if (*configFile == "") == (*preset == "") {
		fmt.Fprintf(os.Stderr, "Usage: %s -config <station.yaml> | -preset <name>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	var (
		cfg config.Config
		err error
	)
	if *configFile != "" {
		fmt.Printf("Loading configuration: %s\n", *configFile)
		cfg, err = config.LoadFile(*configFile)
	} else {
		fmt.Printf("Loading preset: %s\n", *preset)
		cfg, err = config.Preset(*preset)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ Configuration is valid")

	def := config.Default()
	changed := 0
	changed += diffSection("derive", def.Derive, cfg.Derive)
	changed += diffSection("snowdrift", def.Snowdrift, cfg.Snowdrift)
	changed += diffSection("slippery", def.Slippery, cfg.Slippery)
	changed += diffSection("episode", def.Episode, cfg.Episode)

	if changed == 0 {
		fmt.Println("All thresholds match the built-in defaults")
	} else {
		fmt.Printf("%d threshold(s) differ from the built-in defaults\n", changed)
	}
}

// diffSection prints every field of a parameter struct whose value
// differs from the default, keyed by its yaml tag.
func diffSection(name string, def, got interface{}) int {
	dv := reflect.ValueOf(def)
	gv := reflect.ValueOf(got)
	t := dv.Type()

	changed := 0
	for i := 0; i < t.NumField(); i++ {
		d := dv.Field(i).Interface()
		g := gv.Field(i).Interface()
		if d == g {
			continue
		}
		key := t.Field(i).Tag.Get("yaml")
		if key == "" {
			key = t.Field(i).Name
		}
		fmt.Printf("  %s.%s: %v (default %v)\n", name, key, g, d)
		changed++
	}
	return changed
}
