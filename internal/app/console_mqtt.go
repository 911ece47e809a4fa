// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/piezo_walk/internal/config"
	"github.com/relabs-tech/piezo_walk/internal/walk"
)

// RunConsoleMQTT prints the walk events published by another process until
// interrupted.
func RunConsoleMQTT(cfg *config.Config, env Env) error {
	env = env.withDefaults()
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required for the console")
	}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientID+"-console")
	if err != nil {
		return err
	}
	env.Logger.Info("console: connected to MQTT broker", "broker", cfg.MQTTBroker)

	for _, topic := range []string{cfg.TopicStep, cfg.TopicSpeed, cfg.TopicStopped} {
		if topic == "" {
			continue
		}
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			line, err := consoleLine(msg.Payload())
			if err != nil {
				env.Logger.Warn("console: event unmarshal error", "topic", msg.Topic(), "err", err)
				return
			}
			fmt.Fprintln(env.Stdout, line)
		})
		token.Wait()
		if token.Error() != nil {
			client.Disconnect(250)
			return token.Error()
		}
		env.Logger.Info("console: subscribed", "topic", topic)
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	env.Logger.Info("console: shutting down")
	client.Disconnect(250)
	return nil
}

// consoleLine renders a published event with a fixed-width tag.
func consoleLine(payload []byte) (string, error) {
	var e walk.Event
	if err := json.Unmarshal(payload, &e); err != nil {
		return "", err
	}

	switch e.Kind {
	case walk.Step:
		return fmt.Sprintf("[STEP ] t=%9.4f", e.Timestamp), nil
	case walk.Speed:
		return fmt.Sprintf("[SPEED] t=%9.4f  spm=%4d", e.Timestamp, e.StepsPerMinute), nil
	case walk.Stopped:
		return fmt.Sprintf("[STOP ] t=%9.4f", e.Timestamp), nil
	default:
		return "", fmt.Errorf("unexpected event kind %s", e.Kind)
	}
}
