// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/piezo_walk/internal/walk"
)

type fakeToken struct {
	err      error
	timedOut bool
}

func (t *fakeToken) Wait() bool { return !t.timedOut }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.timedOut }
func (t *fakeToken) Error() error { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if !t.timedOut {
		close(ch)
	}
	return ch
}

type published struct {
	topic    string
	retained bool
	payload  string
}

type fakePublisher struct {
	msgs  []published
	token *fakeToken
}

func (p *fakePublisher) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	p.msgs = append(p.msgs, published{topic: topic, retained: retained, payload: string(payload.([]byte))})
	if p.token != nil {
		return p.token
	}
	return &fakeToken{}
}

var testTopics = Topics{Step: "piezo/step", Speed: "piezo/speed", Stopped: "piezo/stopped"}

func TestMQTTSinkPublishesEvents(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewMQTTSink(pub, testTopics)

	require.NoError(t, sink.Emit(walk.Event{Kind: walk.Step, Timestamp: 0.5}))
	require.NoError(t, sink.Emit(walk.Event{Kind: walk.Speed, Timestamp: 1, StepsPerMinute: 20}))
	require.NoError(t, sink.Emit(walk.Event{Kind: walk.Stopped, Timestamp: 4.5}))

	require.Len(t, pub.msgs, 3)
	assert.Equal(t, "piezo/step", pub.msgs[0].topic)
	assert.False(t, pub.msgs[0].retained)
	assert.JSONEq(t, `{"kind":"step","t":0.5}`, pub.msgs[0].payload)

	assert.Equal(t, "piezo/speed", pub.msgs[1].topic)
	assert.True(t, pub.msgs[1].retained)
	assert.JSONEq(t, `{"kind":"speed","t":1,"spm":20}`, pub.msgs[1].payload)

	assert.Equal(t, "piezo/stopped", pub.msgs[2].topic)
}

func TestMQTTSinkSkipsDisabledTopics(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewMQTTSink(pub, Topics{Speed: "piezo/speed"})

	require.NoError(t, sink.Emit(walk.Event{Kind: walk.Step, Timestamp: 0.5}))
	assert.Empty(t, pub.msgs)
}

func TestMQTTSinkErrors(t *testing.T) {
	pub := &fakePublisher{token: &fakeToken{err: errors.New("not connected")}}
	err := NewMQTTSink(pub, testTopics).Emit(walk.Event{Kind: walk.Step})
	assert.ErrorContains(t, err, "not connected")

	pub = &fakePublisher{token: &fakeToken{timedOut: true}}
	err = NewMQTTSink(pub, testTopics).Emit(walk.Event{Kind: walk.Step})
	assert.ErrorContains(t, err, "timed out")
}
