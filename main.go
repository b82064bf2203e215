package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gwos/zbxctl/config"
	"github.com/gwos/zbxctl/sdk/clients"
	tcgerr "github.com/gwos/zbxctl/sdk/errors"
	"github.com/gwos/zbxctl/services"
	"github.com/gwos/zbxctl/tracing"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "zbxctl:", err)
		}
		os.Exit(1)
	}
}

type options struct {
	cmd     services.Command
	version bool
}

func parseFlags(args []string, output io.Writer) (*options, error) {
	opts := new(options)
	flags := pflag.NewFlagSet("zbxctl", pflag.ContinueOnError)
	flags.SetOutput(output)
	flags.BoolVar(&opts.cmd.Pause, "pause", false, "pause monitoring of host or group")
	flags.BoolVar(&opts.cmd.Unpause, "unpause", false, "resume monitoring of host or group")
	flags.StringVar(&opts.cmd.Host, "host", "", `host name, "group:" prefix selects a host group`)
	flags.StringVar(&opts.cmd.Group, "group", "", "host group name")
	flags.IntVar(&opts.cmd.Hours, "hours", 0, "pause duration in hours")
	flags.StringVar(&opts.cmd.Trigger, "trigger", "", "print events of trigger id")
	flags.StringSliceVar(&opts.cmd.Ack, "ack", nil, "acknowledge event ids, repeatable or comma separated")
	flags.StringVar(&opts.cmd.Message, "m", "", "acknowledge message")
	flags.StringVar(&opts.cmd.Username, "username", "", "user name recorded on maintenance and acknowledge")
	flags.BoolVar(&opts.cmd.MaintenanceName, "maintenancename", false, "print maintenance name of host or group")
	flags.BoolVar(&opts.version, "version", false, "print version and exit")
	config.BindFlags(flags)

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected arguments: %v", services.ErrUsage, flags.Args())
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}
	if opts.version {
		_, err := fmt.Fprintln(stdout, config.GetBuildInfo())
		return err
	}

	cfg := config.GetConfig()
	if err := cfg.Connection.LoadCredentials(); err != nil {
		log.Err(err).Str("credentialsFile", cfg.Connection.CredentialsFile).
			Msg("could not load credentials")
		return err
	}
	if tp := initOTEL(cfg); tp != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				log.Warn().Err(err).Msg("could not flush traces")
			}
		}()
	}

	client := clients.NewZabbixClient(cfg.Connection.AsClient())
	if client.OwnsSession() {
		defer func() {
			if err := client.Logout(context.Background()); err != nil {
				log.Warn().Err(err).Msg("could not logout")
			}
		}()
	}

	log.Debug().Str("operation", opts.cmd.Operation()).Msg("dispatching")
	result, err := services.NewDispatcher(client).Dispatch(ctx, opts.cmd)
	if err != nil {
		msg := "could not complete"
		if tcgerr.IsTransient(err) {
			msg = "could not reach the API, try again later"
		}
		log.Err(err).Str("operation", opts.cmd.Operation()).Msg(msg)
		return err
	}
	_, err = fmt.Fprintln(stdout, result)
	return err
}

// initOTEL inits open telemetry, returns nil if telemetry is not configured
func initOTEL(cfg *config.Config) *tracesdk.TracerProvider {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))
	clients.HookRequestContext = tracing.HookRequestContext

	tp, err := cfg.InitTracerProvider()
	if err != nil {
		return nil
	}
	otel.SetTracerProvider(tp)
	return tp
}
