// Command timeprop-relay drives slow relay outputs by time-proportioning:
// power requests arrive over MQTT and each output is switched on and off
// within a fixed cycle so its duty ratio matches the requested fraction.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/timeprop-relay/internal/config"
	"github.com/sweeney/timeprop-relay/internal/gpio"
	"github.com/sweeney/timeprop-relay/internal/metrics"
	"github.com/sweeney/timeprop-relay/internal/mqtt"
	"github.com/sweeney/timeprop-relay/internal/status"
	"github.com/sweeney/timeprop-relay/internal/timeprop"
	"github.com/sweeney/timeprop-relay/internal/web"
)

func main() {
	configPath := flag.String("config", "", "Config file path (default: timeprop.yaml in . or /etc/timeprop-relay)")
	broker := flag.String("broker", "", "MQTT broker address (overrides config)")
	httpAddr := flag.String("http", "", `HTTP status address (overrides config, "off" disables)`)
	heartbeat := flag.Duration("heartbeat", 0, "Heartbeat interval (overrides config when set)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")

	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if err := run(*configPath, *broker, *httpAddr, *heartbeat, log); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(configPath, brokerOverride, httpOverride string, heartbeatOverride time.Duration, log *logrus.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if brokerOverride != "" {
		cfg.Broker = brokerOverride
	}
	if httpOverride != "" {
		cfg.HTTPAddr = httpOverride
	}
	if cfg.HTTPAddr == "off" {
		cfg.HTTPAddr = ""
	}
	heartbeat := time.Duration(cfg.HeartbeatSeconds) * time.Second
	if heartbeatOverride > 0 {
		heartbeat = heartbeatOverride
	}

	// Tick time is a plain counter, not wall-clock: the bank sees second 0
	// at startup and one increment per ticker fire.
	bank, err := timeprop.NewBank(cfg.ControlConfigs(), 0)
	if err != nil {
		return fmt.Errorf("init controllers: %w", err)
	}

	driver, err := gpio.NewRealDriver(cfg.Pins())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer driver.Close()

	client, err := mqtt.NewRealClient(cfg.Broker, cfg.TopicPrefix, log)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer client.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		Broker:           cfg.Broker,
		TopicPrefix:      cfg.TopicPrefix,
		HTTPAddr:         cfg.HTTPAddr,
		HeartbeatSeconds: int(heartbeat / time.Second),
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := client.PublishSystem(startupEvent); err != nil {
		log.Warnf("failed to publish startup event: %v", err)
	} else {
		log.Info("published startup event")
	}

	// Start HTTP status server
	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.WithField("addr", cfg.HTTPAddr).Info("http status server listening")
	}

	log.WithFields(logrus.Fields{
		"outputs":   bank.Len(),
		"broker":    cfg.Broker,
		"prefix":    cfg.TopicPrefix,
		"heartbeat": heartbeat,
	}).Info("started")

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(bank, cfg.Names(), driver, client, client, tracker, heartbeat, log, time.Now, ticker.C, client.Commands(), sigCh)
}

// runLoop is the single thread of control: the 1 Hz ticker, incoming power
// commands and shutdown signals are all serialized here, so the bank needs
// no locking.
func runLoop(bank *timeprop.Bank, names []string, driver gpio.Driver, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, log *logrus.Logger, now func() time.Time, tick <-chan time.Time, cmds <-chan mqtt.Command, sig <-chan os.Signal) error {
	var tickTime int64 // seconds since startup, advanced by the ticker
	var prev []bool    // last applied physical states, nil before first tick
	lastHeartbeat := now()

	for {
		select {
		case s := <-sig:
			log.Infof("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}

			// De-energize every relay before announcing shutdown. State does
			// not persist across restarts, so off is the only safe level.
			if prev != nil {
				if err := driver.Apply(make([]bool, bank.Len())); err != nil {
					log.Errorf("failed to clear outputs: %v", err)
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
				log.Warnf("failed to publish shutdown event: %v", err)
			} else {
				log.Info("published shutdown event")
			}
			return nil

		case cmd := <-cmds:
			t := now()
			if !bank.DispatchSetPower(cmd.Index, cmd.Power, tickTime) {
				log.WithFields(logrus.Fields{"index": cmd.Index, "power": cmd.Power}).
					Warn("ignoring command for unknown output")
				metrics.CommandsTotal.WithLabelValues("rejected").Inc()
				if tracker != nil {
					tracker.CommandRejected()
				}
				continue
			}
			log.WithFields(logrus.Fields{"index": cmd.Index, "power": cmd.Power}).Info("power set")
			metrics.CommandsTotal.WithLabelValues("accepted").Inc()
			if tracker != nil {
				tracker.CommandAccepted()
			}
			if err := publisher.PublishAck(mqtt.Ack{Timestamp: t, Index: cmd.Index, Power: cmd.Power}); err != nil {
				log.Warnf("ack publish error: %v", err)
			}

		case <-tick:
			t := now()
			states := bank.TickAll(tickTime)
			snaps := bank.Snapshots(tickTime)
			metrics.TicksTotal.Inc()

			if err := driver.Apply(states); err != nil {
				log.Errorf("gpio apply error: %v", err)
				// Keep ticking; the controller must keep producing decisions.
			}

			for i, on := range states {
				if prev == nil || prev[i] != on {
					change := mqtt.StateChange{Timestamp: t, Index: i, On: on, Power: snaps[i].Power}
					if err := publisher.PublishState(change); err != nil {
						log.Warnf("state publish error: %v", err)
					}
					if prev != nil {
						metrics.TransitionsTotal.WithLabelValues(names[i], stateString(on)).Inc()
					}
				}
				metrics.ObserveOutput(names[i], on, snaps[i].Power, snaps[i].Stale)
			}
			prev = states
			tickTime++

			if tracker != nil {
				tracker.UpdateOutputs(outputStatuses(names, states, snaps))
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}

			// Check for heartbeat
			if heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				hbEvent := mqtt.SystemEvent{
					Timestamp: t,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				log.Debug("publishing heartbeat")
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Warnf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

func outputStatuses(names []string, states []bool, snaps []timeprop.Snapshot) []status.OutputStatus {
	out := make([]status.OutputStatus, len(states))
	for i := range states {
		out[i] = status.OutputStatus{
			Name:     names[i],
			Power:    snaps[i].Power,
			State:    stateString(states[i]),
			Stale:    snaps[i].Stale,
			OnCount:  snaps[i].Counts.On,
			OffCount: snaps[i].Counts.Off,
		}
	}
	return out
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

func stateString(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
