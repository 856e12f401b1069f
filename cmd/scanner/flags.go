package main

import (
	"flag"
	"strings"
	"time"

	"nr_scanner/internal/platform/config"
)

// options are command-line overrides. Only flags that were set replace config defaults.
type options struct {
	configPath string
	out        string
	refresh    bool
	timeout    time.Duration

	mode           string
	topN           int
	tickers        string
	granularity    string
	windows        string
	closeMode      string
	minVolume      float64
	dropStables    bool
	includeInRange bool

	set map[string]bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("scanner", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "YAML config file (default $NR_CONFIG)")
	fs.StringVar(&o.out, "out", "", "CSV output file (default stdout)")
	fs.BoolVar(&o.refresh, "refresh", false, "clear cached rankings, instruments and candles first")
	fs.DurationVar(&o.timeout, "timeout", 0, "stop after this long; symbols already fetched are reported")

	fs.StringVar(&o.mode, "mode", "", "universe: top, list or intersection")
	fs.IntVar(&o.topN, "top", 0, "number of ranked assets")
	fs.StringVar(&o.tickers, "tickers", "", "tickers separated by commas or spaces")
	fs.StringVar(&o.granularity, "granularity", "", "4h, 1d or 1w")
	fs.StringVar(&o.windows, "windows", "", "NR windows, e.g. NR4,NR7,NR10")
	fs.StringVar(&o.closeMode, "close", "", "exchange or utc")
	fs.Float64Var(&o.minVolume, "min-volume", 0, "minimum 24h volume")
	fs.BoolVar(&o.dropStables, "drop-stables", false, "exclude stablecoins")
	fs.BoolVar(&o.includeInRange, "in-range", false, "also report closes inside the last NR range")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	o.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

// apply overwrites d with every flag given on the command line.
func (o options) apply(d *config.ScanDefaults) {
	if o.set["mode"] {
		d.Mode = o.mode
	}
	if o.set["top"] {
		d.TopN = o.topN
	}
	if o.set["tickers"] {
		d.Tickers = []string{o.tickers}
	}
	if o.set["granularity"] {
		d.Granularity = o.granularity
	}
	if o.set["windows"] {
		d.Windows = splitList(o.windows)
	}
	if o.set["close"] {
		d.CloseMode = o.closeMode
	}
	if o.set["min-volume"] {
		d.MinVolume = o.minVolume
	}
	if o.set["drop-stables"] {
		d.DropStables = o.dropStables
	}
	if o.set["in-range"] {
		d.IncludeInRange = o.includeInRange
	}
}

func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
}
