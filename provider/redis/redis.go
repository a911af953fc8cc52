package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pr "github.com/unkn0wn-root/trvl/provider"
)

var ErrNilClient = errors.New("redis provider: nil client")

// Redis shares cached keyframes between processes, e.g. a relay that fans a
// stream out to receivers connected to different nodes.
//
// With Config.Channel set, every stored keyframe is announced on that Pub/Sub
// channel (the message is the key), so waiting receivers can bootstrap as soon
// as a keyframe lands instead of polling.
type Redis struct {
	rdb         goredis.UniversalClient
	channel     string
	maxValue    int
	closeClient bool
}

var _ pr.Provider = (*Redis)(nil)

type Config struct {
	Client goredis.UniversalClient

	// Channel enables keyframe announcements; empty disables them.
	Channel string

	// MaxValueSize rejects larger values with ok=false; 0 disables the check.
	MaxValueSize int

	CloseClient bool // set true only if this provider exclusively owns the client
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Redis{
		rdb:         cfg.Client,
		channel:     cfg.Channel,
		maxValue:    cfg.MaxValueSize,
		closeClient: cfg.CloseClient,
	}, nil
}

func (p *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := p.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

// Set stores value and, when announcements are enabled, publishes key in the
// same round trip.
func (p *Redis) Set(ctx context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	if p.maxValue > 0 && len(value) > p.maxValue {
		return false, nil
	}
	if ttl < 0 {
		ttl = 0 // no expiry
	}
	if p.channel == "" {
		if err := p.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
			return false, err
		}
		return true, nil
	}

	_, err := p.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, key, value, ttl)
		pipe.Publish(ctx, p.channel, key)
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *Redis) Del(ctx context.Context, key string) error {
	return p.rdb.Del(ctx, key).Err()
}

// Announcements delivers the keys of keyframes stored by any node until ctx
// is done. It returns once the subscription is confirmed, so no keyframe
// stored afterwards is missed. With announcements disabled it returns
// (nil, nil).
func (p *Redis) Announcements(ctx context.Context) (<-chan string, error) {
	if p.channel == "" {
		return nil, nil
	}
	sub := p.rdb.Subscribe(ctx, p.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan string, 16)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- m.Payload:
				default: // slow reader; the next keyframe will be announced again
				}
			}
		}
	}()
	return out, nil
}

// Close releases the underlying redis client only when this provider owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (p *Redis) Close(context.Context) error {
	if p.closeClient {
		if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
