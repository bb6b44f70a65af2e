// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../../LICENSE.md.

package main

import (
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/op/go-logging"
	"github.com/urfave/cli/v2"

	"github.com/msimiste/dhxfer/crypting"
	"github.com/msimiste/dhxfer/engine"
)

var log = logging.MustGetLogger("dhxfer/server")

const progName = "dhxfer_server"

func writeUsageError(w io.Writer, c *cli.Context, detail string) {
	fmt.Fprintf(w, "%s: %s\n\n", progName, detail)
	c.App.Writer = w
	_ = cli.ShowAppHelp(c)
}

// usageErrorf reports a malformed invocation along with the usage text, then exits.
func usageErrorf(c *cli.Context, detailFmt string, detailArgs ...interface{}) {
	writeUsageError(os.Stderr, c, fmt.Sprintf(detailFmt, detailArgs...))
	os.Exit(64)
}

func exitError(err error) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", progName, err.Error())
	os.Exit(1)
}

func startLogging(debug bool) {
	backend := logging.NewLogBackend(os.Stderr, progName+": ", 0)
	formatSpec := "%{level:8s} %{module:-20s} | %{message}"
	formatter := logging.MustStringFormatter(formatSpec)
	formatted := logging.NewBackendFormatter(backend, formatter)
	leveled := logging.AddModuleLevel(formatted)

	level := logging.INFO
	if debug {
		level = logging.DEBUG
	}
	leveled.SetLevel(level, "")
	for _, module := range engine.LogModules {
		leveled.SetLevel(level, module)
	}
	leveled.SetLevel(level, "dhxfer/server")
	logging.SetBackend(leveled)
}

func run(c *cli.Context) error {
	startLogging(c.Bool("debug"))

	if c.NArg() != 1 {
		usageErrorf(c, "expected PORT, got %d argument(s)", c.NArg())
	}
	port := c.Args().First()
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		usageErrorf(c, "bad port %q", port)
	}

	dir := c.String("dir")
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		usageErrorf(c, "%q is not a directory", dir)
	}

	config := engine.DefaultServerConfig(dir)
	config.Crypting.MinModulusBits = c.Int("min-bits")
	config.Crypting.LegacyKeys = c.Bool("legacy-keys")
	config.Transfer.StrictSize = !c.Bool("lenient-size")
	if c.Bool("keep-serving") {
		config.Policy = engine.KeepServing
	}
	if err := config.Crypting.Validate(); err != nil {
		usageErrorf(c, "minimum modulus size %d out of range", config.Crypting.MinModulusBits)
	}

	l, err := net.Listen("tcp", net.JoinHostPort(c.String("bind"), port))
	if err != nil {
		exitError(err)
	}

	srv := engine.NewServer(config)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigs:
			srv.Shutdown(sig)
		case <-srv.Done():
		}
		signal.Stop(sigs)
	}()

	if err := srv.Serve(l); err != nil {
		exitError(err)
	}
	return nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:      progName,
		Usage:     "receive files from dhxfer clients over Diffie-Hellman keyed channels",
		ArgsUsage: "PORT",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "bind",
				Usage: "listen on this host address only",
			},
			&cli.StringFlag{
				Name:  "dir",
				Value: ".",
				Usage: "directory to store received files in",
			},
			&cli.BoolFlag{
				Name:  "keep-serving",
				Usage: "keep accepting connections after the first transfer completes",
			},
			&cli.IntFlag{
				Name:  "min-bits",
				Value: crypting.DefaultMinModulusBits,
				Usage: "refuse moduli shorter than this",
			},
			&cli.BoolFlag{
				Name:  "legacy-keys",
				Usage: "use one key for both encryption and authentication",
			},
			&cli.BoolFlag{
				Name:  "lenient-size",
				Usage: "accept a payload whose length differs from the declared size",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "log every protocol step, including key material",
			},
		},
		OnUsageError: func(c *cli.Context, err error, isSubcommand bool) error {
			usageErrorf(c, "%v", err)
			return err
		},
		Action: run,
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		exitError(err)
	}
}
