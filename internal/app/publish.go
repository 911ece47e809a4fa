// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/piezo_walk/internal/config"
	"github.com/relabs-tech/piezo_walk/internal/walk"
)

const publishTimeout = 2 * time.Second

// Publisher is the part of mqtt.Client the sink needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Topics maps event kinds to MQTT topics. An empty topic disables that kind.
type Topics struct {
	Step    string
	Speed   string
	Stopped string
}

func topicsFrom(cfg *config.Config) Topics {
	return Topics{Step: cfg.TopicStep, Speed: cfg.TopicSpeed, Stopped: cfg.TopicStopped}
}

func (t Topics) forKind(k walk.EventKind) string {
	switch k {
	case walk.Step:
		return t.Step
	case walk.Speed:
		return t.Speed
	case walk.Stopped:
		return t.Stopped
	}
	return ""
}

// MQTTSink publishes each event as JSON. Speed samples are retained so a
// late subscriber sees the current pace immediately.
type MQTTSink struct {
	pub    Publisher
	topics Topics
}

func NewMQTTSink(pub Publisher, topics Topics) *MQTTSink {
	return &MQTTSink{pub: pub, topics: topics}
}

func (s *MQTTSink) Emit(e walk.Event) error {
	topic := s.topics.forKind(e.Kind)
	if topic == "" {
		return nil
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("%s JSON marshal: %w", e.Kind, err)
	}

	token := s.pub.Publish(topic, 0, e.Kind == walk.Speed, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

func connectMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return client, nil
}
