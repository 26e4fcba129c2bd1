// Package cli 实现 sbctl 命令行：直接连接一块音频板执行单条指令或演出脚本。
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/k0kubun/pp/v3"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/taoyao-code/soundboard-gateway/internal/app"
	cfgpkg "github.com/taoyao-code/soundboard-gateway/internal/config"
	"github.com/taoyao-code/soundboard-gateway/internal/cue"
	"github.com/taoyao-code/soundboard-gateway/internal/soundboard"
)

// 退出码
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

var errUsage = errors.New("usage")

const usageText = `usage: sbctl [flags] <command> [args]

commands:
  play <file>       play a file on --channel (--repeat to loop)
  stop              stop --channel
  volume <0-9>      set volume
  up | down         step volume by one
  status            query --channel (0 = device responded)
  run <cue.yaml>    execute a cue script

flags:
`

type options struct {
	board     cfgpkg.BoardConfig
	channel   int
	repeat    bool
	verbose   bool
	opTimeout time.Duration
}

// Run 解析参数并执行，返回进程退出码
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("sbctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		opts options
		addr uint8
	)
	fs.StringVarP(&opts.board.Transport, "transport", "t", cfgpkg.TransportSim, "transport: sim|i2c|tcp|serial")
	fs.StringVar(&opts.board.Bus, "bus", "/dev/i2c-1", "i2c device or serial port")
	fs.Uint8Var(&addr, "addr", 0, "7-bit bus address (0 = 0x55)")
	fs.StringVar(&opts.board.Endpoint, "endpoint", "", "bus bridge host:port for --transport tcp")
	fs.IntVar(&opts.board.Baud, "baud", 115200, "serial baud rate")
	fs.DurationVar(&opts.board.Timeout, "io-timeout", time.Second, "per-transfer timeout")
	fs.DurationVar(&opts.opTimeout, "timeout", 5*time.Second, "overall timeout for a single command")
	fs.IntVarP(&opts.channel, "channel", "c", 0, "channel 0-3")
	fs.BoolVarP(&opts.repeat, "repeat", "r", false, "loop playback")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "log bus traffic and dump full outcomes")
	fs.Usage = func() {
		fmt.Fprint(stderr, usageText)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitOK
		}
		return ExitUsage
	}
	opts.board.Name = "sbctl"
	opts.board.Address = addr

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return ExitUsage
	}

	logger := zap.NewNop()
	if opts.verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			logger = l
			defer func() { _ = l.Sync() }()
		}
	}

	err := execute(ctx, opts, rest, stdout, logger)
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, errUsage):
		fmt.Fprintln(stderr, err)
		fs.Usage()
		return ExitUsage
	default:
		fmt.Fprintln(stderr, "error:", err)
		return ExitError
	}
}

func execute(ctx context.Context, opts options, args []string, stdout io.Writer, logger *zap.Logger) error {
	cmd, params := args[0], args[1:]

	var (
		req    soundboard.Request
		script *cue.Script
	)
	switch cmd {
	case "run":
		if len(params) != 1 {
			return fmt.Errorf("%w: run needs a cue file", errUsage)
		}
		s, err := cue.Load(params[0])
		if err != nil {
			return err
		}
		script = s
	default:
		r, err := parseRequest(cmd, params, opts)
		if err != nil {
			return err
		}
		req = r
	}

	tr, err := app.NewTransport(opts.board)
	if err != nil {
		return err
	}
	b := soundboard.New(tr, soundboard.WithName(opts.board.Name), soundboard.WithLogger(logger))
	defer b.Close()

	if err := b.Begin(ctx, opts.board.Address); err != nil {
		return err
	}

	if script != nil {
		outs, err := cue.Run(ctx, b, script)
		for _, o := range outs {
			printOutcome(stdout, o, opts.verbose)
		}
		return err
	}

	opCtx, cancel := context.WithTimeout(ctx, opts.opTimeout)
	defer cancel()
	out, err := soundboard.Apply(opCtx, b, req)
	printOutcome(stdout, out, opts.verbose)
	return err
}

func parseRequest(cmd string, params []string, opts options) (soundboard.Request, error) {
	req := soundboard.Request{Op: soundboard.Op(cmd), Channel: opts.channel}
	switch req.Op {
	case soundboard.OpPlay:
		if len(params) != 1 {
			return req, fmt.Errorf("%w: play needs exactly one file", errUsage)
		}
		req.File = params[0]
		req.Repeat = opts.repeat
	case soundboard.OpVolume:
		if len(params) != 1 {
			return req, fmt.Errorf("%w: volume needs a level", errUsage)
		}
		lv, err := strconv.Atoi(params[0])
		if err != nil {
			return req, fmt.Errorf("%w: bad volume level %q", errUsage, params[0])
		}
		req.Level = &lv
	case soundboard.OpStop, soundboard.OpUp, soundboard.OpDown, soundboard.OpStatus:
		if len(params) != 0 {
			return req, fmt.Errorf("%w: %s takes no arguments", errUsage, cmd)
		}
	default:
		return req, fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	return req, req.Validate()
}

func printOutcome(w io.Writer, o soundboard.Outcome, verbose bool) {
	if verbose {
		p := pp.New()
		p.SetOutput(w)
		p.SetColoringEnabled(false)
		p.Println(o)
		return
	}
	line := fmt.Sprintf("%s %s ch=%d result=%s volume=%d status=0x%02x", o.Board, o.Op, o.Channel, o.Result, o.Volume, o.Status)
	if o.Active != nil {
		line += " active=" + strconv.FormatBool(*o.Active)
	}
	if o.Error != "" {
		line += " error=" + strconv.Quote(o.Error)
	}
	fmt.Fprintln(w, line)
}
