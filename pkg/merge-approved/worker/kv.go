package worker

import (
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
)

// hashForKV builds a kv key from the given parts.
func hashForKV(parts ...string) string {
	h := sha512.New()
	for i, part := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// getCached returns nil if there is no entry for the key.
func getCached[T any](kv nats.KeyValue, key string) (*T, error) {
	entry, err := kv.Get(key)
	if errors.Is(err, nats.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "unable to get entry from kv bucket")
	}
	if entry == nil || len(entry.Value()) == 0 {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(entry.Value(), &v); err != nil {
		return nil, errors.Wrap(err, "unable to decode entry from kv bucket")
	}
	return &v, nil
}

func putCached(kv nats.KeyValue, key string, v any) error {
	buf, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "unable to encode entry")
	}
	if _, err := kv.Put(key, buf); err != nil {
		return errors.Wrap(err, "unable to store entry in kv bucket")
	}
	return nil
}
