// Package natstest provides in-memory stand-ins for the jetstream and
// key value interfaces used by the server and the worker.
package natstest

import (
	"sync"

	"github.com/nats-io/nats.go"
)

type Entry struct {
	nats.KeyValueEntry
	key   string
	value []byte
}

func (e *Entry) Key() string   { return e.key }
func (e *Entry) Value() []byte { return e.value }

// KeyValue is a map backed nats.KeyValue. Calling a method that is not
// implemented panics.
type KeyValue struct {
	nats.KeyValue

	mu      sync.Mutex
	entries map[string][]byte
	GetErr  error
	PutErr  error
}

func NewKeyValue() *KeyValue {
	return &KeyValue{entries: make(map[string][]byte)}
}

func (kv *KeyValue) Get(key string) (nats.KeyValueEntry, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.GetErr != nil {
		return nil, kv.GetErr
	}
	v, ok := kv.entries[key]
	if !ok {
		return nil, nats.ErrKeyNotFound
	}
	return &Entry{key: key, value: v}, nil
}

func (kv *KeyValue) Put(key string, value []byte) (uint64, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.PutErr != nil {
		return 0, kv.PutErr
	}
	kv.entries[key] = append([]byte(nil), value...)
	return uint64(len(kv.entries)), nil
}

func (kv *KeyValue) PutString(key, value string) (uint64, error) {
	return kv.Put(key, []byte(value))
}

func (kv *KeyValue) Len() int {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return len(kv.entries)
}

// JetStream records every published message.
type JetStream struct {
	nats.JetStreamContext

	mu         sync.Mutex
	Messages   []*nats.Msg
	PublishErr error
}

func (js *JetStream) PublishMsgAsync(m *nats.Msg, _ ...nats.PubOpt) (nats.PubAckFuture, error) {
	js.mu.Lock()
	defer js.mu.Unlock()
	if js.PublishErr != nil {
		return nil, js.PublishErr
	}
	js.Messages = append(js.Messages, m)
	return nil, nil
}

func (js *JetStream) Publish(subj string, data []byte, _ ...nats.PubOpt) (*nats.PubAck, error) {
	js.mu.Lock()
	defer js.mu.Unlock()
	if js.PublishErr != nil {
		return nil, js.PublishErr
	}
	js.Messages = append(js.Messages, &nats.Msg{Subject: subj, Data: data})
	return &nats.PubAck{Sequence: uint64(len(js.Messages))}, nil
}

func (js *JetStream) PublishMsg(m *nats.Msg, _ ...nats.PubOpt) (*nats.PubAck, error) {
	js.mu.Lock()
	defer js.mu.Unlock()
	if js.PublishErr != nil {
		return nil, js.PublishErr
	}
	js.Messages = append(js.Messages, m)
	return &nats.PubAck{Sequence: uint64(len(js.Messages))}, nil
}

func (js *JetStream) Published() []*nats.Msg {
	js.mu.Lock()
	defer js.mu.Unlock()
	return append([]*nats.Msg(nil), js.Messages...)
}
