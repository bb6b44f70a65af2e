// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../../LICENSE.md.

package main

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/op/go-logging"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/msimiste/dhxfer/crypting"
	"github.com/msimiste/dhxfer/engine"
)

var log = logging.MustGetLogger("dhxfer/client")

const progName = "dhxfer_client"

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
	for _, module := range append(engine.LogModules, "dhxfer/client") {
		leveled.SetLevel(level, module)
	}
	logging.SetBackend(leveled)
}

// prompt asks for a value on the terminal.  Without one there is nobody to ask, which is a usage error.
func prompt(c *cli.Context, in *bufio.Reader, question string) string {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		usageErrorf(c, "%s not given and standard input is not a terminal", strings.ToLower(question))
	}
	fmt.Fprintf(os.Stderr, "%s: ", question)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		exitError(err)
	}
	answer := strings.TrimSpace(line)
	if answer == "" {
		usageErrorf(c, "empty %s", strings.ToLower(question))
	}
	return answer
}

func run(c *cli.Context) error {
	startLogging(c.Bool("debug"))

	if c.NArg() != 2 {
		usageErrorf(c, "expected HOST PORT, got %d argument(s)", c.NArg())
	}
	host, port := c.Args().Get(0), c.Args().Get(1)
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		usageErrorf(c, "bad port %q", port)
	}

	params := crypting.DefaultParams()
	params.ModulusBits = c.Int("bits")
	params.SafeModulus = c.Bool("safe-modulus")
	params.LegacyKeys = c.Bool("legacy-keys")
	if err := params.Validate(); err != nil {
		usageErrorf(c, "modulus size %d out of range [%d, %d]", params.ModulusBits, crypting.MinModulusBits, crypting.MaxModulusBits)
	}

	in := bufio.NewReader(os.Stdin)
	source := c.String("source")
	if source == "" {
		source = prompt(c, in, "Source file")
	}
	dest := c.String("dest")
	if dest == "" {
		dest = prompt(c, in, "Destination file")
	}

	client := engine.NewClient(params)
	client.DialTimeout = c.Duration("timeout")

	addr := net.JoinHostPort(host, port)
	log.Infof("sending %s to %s as %s", source, addr, dest)
	if err := client.SendFile(addr, source, dest); err != nil {
		exitError(err)
	}
	log.Noticef("%s stored as %s", source, dest)
	return nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:      progName,
		Usage:     "send one file to a dhxfer server over a Diffie-Hellman keyed channel",
		ArgsUsage: "HOST PORT",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "bits",
				Aliases: []string{"b"},
				Value:   crypting.DefaultParams().ModulusBits,
				Usage:   "bit length of the generated modulus",
			},
			&cli.StringFlag{
				Name:    "source",
				Aliases: []string{"s"},
				Usage:   "local file to send (prompted for if omitted)",
			},
			&cli.StringFlag{
				Name:    "dest",
				Aliases: []string{"o"},
				Usage:   "name to store the file under on the server (prompted for if omitted)",
			},
			&cli.BoolFlag{
				Name:  "safe-modulus",
				Usage: "use the safe prime 2s+1 as the modulus",
			},
			&cli.BoolFlag{
				Name:  "legacy-keys",
				Usage: "use one key for both encryption and authentication",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: engine.DefaultDialTimeout,
				Usage: "give up connecting after this long",
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
