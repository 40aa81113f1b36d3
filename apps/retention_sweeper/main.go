package main

import (
	"fmt"
	"os"

	"github.com/anecdotario/photo-services/util"
	"github.com/anecdotario/photo-services/util/cli"
	"github.com/anecdotario/photo-services/workers"
)

func main() {
	cli.Init()
	opts := cli.ParseOpts()
	if opts.PrintHelp {
		printHelp()
		cli.PrintDefaults()
		os.Exit(0)
	}

	if opts.PidFile != "" {
		if util.IsRunningInOtherProcess(opts.PidFile) {
			fmt.Fprintf(os.Stderr, "Another retention sweeper holds pid file %s\n", opts.PidFile)
			os.Exit(1)
		}
		if err := util.WritePidFile(opts.PidFile); err != nil {
			fmt.Fprintf(os.Stderr, "Cannot write pid file %s: %v\n", opts.PidFile, err)
			os.Exit(1)
		}
		defer util.DeletePidFile(opts.PidFile)
	}

	// If anything goes wrong, this panics.
	// Otherwise, it starts handling NSQ messages immediately.
	sweeper := workers.NewRetentionSweeper(
		opts.ChannelBufferSize,
		opts.NumWorkers,
		opts.RequeueTimeout,
	)

	// This channel blocks until we get an interrupt,
	// so our program does not exit without Control-C
	// or other kill signal.
	<-sweeper.NSQConsumer.StopChan
}

func printHelp() {
	message := `
retention_sweeper runs as a service to enforce photo retention. It reads
retention tasks from the NSQ photo_retention topic and, for each
(entity_type, entity_id, photo_type) tuple, keeps the newest K active
photos and removes the rest from both the photo bucket and the metadata
store.
`
	fmt.Println(message)
	fmt.Println(cli.EnvMessage)
}
