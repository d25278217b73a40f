// Command switch-led polls two push-buttons over GPIO and drives a red LED
// and a tri-color LED from their state.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/switch-led/internal/config"
	"github.com/sweeney/switch-led/internal/control"
	"github.com/sweeney/switch-led/internal/gpio"
	"github.com/sweeney/switch-led/internal/logic"
	"github.com/sweeney/switch-led/internal/metrics"
	"github.com/sweeney/switch-led/internal/mqtt"
	"github.com/sweeney/switch-led/internal/status"
	"github.com/sweeney/switch-led/internal/web"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	opts := config.Defaults()

	cmd := &cobra.Command{
		Use:           "switch-led",
		Short:         "Drive LEDs from push-buttons over GPIO",
		Long:          `Polls SW1 and SW2 and lights LED1 when exactly one is pressed. LED2 shows red when idle, green for SW1, blue for SW2 and green+blue for both.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(&opts, cmd.Flags()); err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return run(opts)
		},
	}
	config.RegisterFlags(cmd.Flags(), &opts)
	return cmd
}

func run(opts config.Options) error {
	// Initialize GPIO
	port1, err := gpio.NewRealPort(opts.Chip, opts.Port1Pins())
	if err != nil {
		return fmt.Errorf("open port 1: %w", err)
	}
	defer port1.Close()

	port2, err := gpio.NewRealPort(opts.Chip, opts.Port2Pins())
	if err != nil {
		return fmt.Errorf("open port 2: %w", err)
	}
	defer port2.Close()

	ctrl := control.New(port1, port2)

	// Print state mode
	if opts.PrintState {
		return printState(os.Stdout, ctrl)
	}

	if err := ctrl.Init(); err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}

	// Initialize MQTT
	var publisher mqtt.Publisher = mqtt.NopPublisher{}
	var mqttStatus mqtt.ConnectionStatus
	if opts.Broker != "" {
		rp, err := mqtt.NewRealPublisher(opts.Broker)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		publisher, mqttStatus = rp, rp
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:   opts.Poll.Milliseconds(),
		Chip:     opts.Chip,
		Broker:   opts.Broker,
		HTTPAddr: opts.HTTP,
	})

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	}

	// Start HTTP status server
	if opts.HTTP != "" {
		srv := web.New(opts.HTTP, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", opts.HTTP)
	}

	log.Printf("started: poll=%v chip=%s broker=%q", opts.Poll, opts.Chip, opts.Broker)

	ticker := time.NewTicker(opts.Poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(ctrl, publisher, mqttStatus, tracker, time.Now, ticker.C, sigCh)
}

// printState samples the switches once and reports the LED state they map
// to, without driving the outputs.
func printState(w io.Writer, ctrl *control.Controller) error {
	if err := ctrl.InitializeInputPort(); err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	sw, err := ctrl.ReadSwitches()
	if err != nil {
		return err
	}
	out := logic.ComputeOutputs(sw)
	fmt.Fprintf(w, "SW1: %s, SW2: %s -> LED1: %s, LED2: %s\n",
		status.SwitchString(sw.SW1), status.SwitchString(sw.SW2),
		status.LEDString(out.LED1), out.LED2)
	return nil
}

// runLoop steps the controller on every tick until a signal arrives.
// A failed step is logged and the next tick tries again.
func runLoop(ctrl *control.Controller, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}

			if err := ctrl.Off(); err != nil {
				log.Printf("failed to turn LEDs off: %v", err)
			} else {
				metrics.SetOutputs(ctrl.Outputs())
				if tracker != nil {
					tracker.SetOutputs(ctrl.Outputs())
				}
			}

			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			sample, err := ctrl.Step(now())
			if err != nil {
				log.Printf("gpio error: %v", err)
				metrics.ObserveError()
				if tracker != nil {
					tracker.RecordError()
				}
				continue
			}

			metrics.ObserveSample(sample)
			if tracker != nil {
				tracker.Record(sample)
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

			if !sample.Changed {
				continue
			}
			log.Printf("change: SW1=%s SW2=%s LED1=%s LED2=%s",
				status.SwitchString(sample.Switches.SW1), status.SwitchString(sample.Switches.SW2),
				status.LEDString(sample.Outputs.LED1), sample.Outputs.LED2)
			if err := publisher.Publish(sample); err != nil {
				log.Printf("publish error: %v", err)
				// Don't crash on publish failure
			}
		}
	}
}
