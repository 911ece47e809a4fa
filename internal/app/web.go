// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/piezo_walk/internal/config"
	"github.com/relabs-tech/piezo_walk/internal/walk"
)

// clientBuffer is how many events a slow websocket client may lag behind
// before events are dropped for it.
const clientBuffer = 32

// WalkStatus is served at /api/walk.
type WalkStatus struct {
	StepsPerMinute int      `json:"spm"`
	UpdatedAt      float64  `json:"t"`
	Steps          int      `json:"steps"` // steps seen since the server started
	StoppedAt      *float64 `json:"stopped_at,omitempty"`
}

// walkState is the latest picture of the walker, fed by MQTT callbacks and
// read by HTTP handlers.
type walkState struct {
	mu        sync.RWMutex
	status    WalkStatus
	haveSpeed bool
	clients   map[chan walk.Event]struct{}
}

func newWalkState() *walkState {
	return &walkState{clients: make(map[chan walk.Event]struct{})}
}

func (s *walkState) observe(e walk.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e.Kind {
	case walk.Step:
		s.status.Steps++
		s.status.StoppedAt = nil
	case walk.Speed:
		s.status.StepsPerMinute = e.StepsPerMinute
		s.status.UpdatedAt = e.Timestamp
		s.haveSpeed = true
	case walk.Stopped:
		ts := e.Timestamp
		s.status.StoppedAt = &ts
	}

	for ch := range s.clients {
		select {
		case ch <- e:
		default:
		}
	}
}

func (s *walkState) snapshot() (WalkStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status, s.haveSpeed
}

func (s *walkState) subscribe() chan walk.Event {
	ch := make(chan walk.Event, clientBuffer)
	s.mu.Lock()
	s.clients[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *walkState) unsubscribe(ch chan walk.Event) {
	s.mu.Lock()
	delete(s.clients, ch)
	s.mu.Unlock()
}

func (s *walkState) clientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

func newWebHandler(state *walkState, log *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	// JSON API endpoint: latest pace
	mux.HandleFunc("/api/walk", func(w http.ResponseWriter, r *http.Request) {
		status, ok := state.snapshot()
		if !ok {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Warn("json encode error", "err", err)
		}
	})

	// Live event stream
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("websocket upgrade failed", "err", err)
			return
		}
		defer conn.Close()

		events := state.subscribe()
		defer state.unsubscribe(events)

		// The reader only exists to notice the client going away.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case e := <-events:
				if err := conn.WriteJSON(e); err != nil {
					log.Debug("websocket write failed", "err", err)
					return
				}
			case <-gone:
				return
			}
		}
	})

	return mux
}

// RunWeb subscribes to the walk topics and serves the current pace over
// HTTP and a websocket event stream.
func RunWeb(cfg *config.Config, env Env) error {
	env = env.withDefaults()
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required for the web server")
	}

	state := newWalkState()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientID+"-web")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	env.Logger.Info("connected to MQTT broker", "broker", cfg.MQTTBroker)

	for _, topic := range []string{cfg.TopicStep, cfg.TopicSpeed, cfg.TopicStopped} {
		if topic == "" {
			continue
		}
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			var e walk.Event
			if err := json.Unmarshal(msg.Payload(), &e); err != nil {
				env.Logger.Warn("MQTT payload unmarshal error", "topic", msg.Topic(), "err", err)
				return
			}
			state.observe(e)
		})
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		env.Logger.Info("subscribed to MQTT topic", "topic", topic)
	}

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	env.Logger.Info("web server listening", "addr", addr)
	return http.ListenAndServe(addr, newWebHandler(state, env.Logger))
}
