package cli

import (
	"flag"
	"time"
)

type Options struct {
	ChannelBufferSize int
	NumWorkers        int
	PidFile           string
	PrintHelp         bool
	RequeueTimeout    time.Duration
}

var opts = Options{}
var defaultBufSize = 20
var defaultWorkers = 3
var defaultTimeout = 1 * time.Minute

var EnvMessage = `If you don't set -config-dir and -config-name on the command line,
this requires the following environment vars:

PHOTO_CONFIG_DIR - Path to the directory containing the .env settings file.

PHOTO_SERVICES_CONFIG - Name of the configuration to load. For example:
    test - Loads .env.test from PHOTO_CONFIG_DIR
    demo - Loads .env.demo from PHOTO_CONFIG_DIR
`

func Init() {
	flag.IntVar(&opts.ChannelBufferSize, "bufsize", defaultBufSize, "Channel buffer size for go workers")
	flag.IntVar(&opts.NumWorkers, "workers", defaultWorkers, "Number of go routines to handle main processing work")
	flag.StringVar(&opts.PidFile, "pidfile", "", "Path to pid file. If set and another live process holds it, this process refuses to start")
	flag.BoolVar(&opts.PrintHelp, "help", false, "Print help message")
	flag.DurationVar(&opts.RequeueTimeout, "requeue-timeout", defaultTimeout, "Requeue timeout for retrying tasks whose metadata store was unreachable. Format examples: 500ms, 12s, 10m, 3m30s, 3h")
}

func ParseOpts() Options {
	flag.Parse()
	return opts
}

func PrintDefaults() {
	flag.PrintDefaults()
}
