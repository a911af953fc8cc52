package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/unkn0wn-root/trvl"
	"github.com/unkn0wn-root/trvl/genstore"
	"github.com/unkn0wn-root/trvl/internal/util"
	"github.com/unkn0wn-root/trvl/internal/wire"
	pr "github.com/unkn0wn-root/trvl/provider"
)

const defaultMaxChain = 1024

// CacheOptions configure a KeyframeCache.
type CacheOptions struct {
	// Namespace separates unrelated deployments sharing one provider.
	Namespace string
	Provider  pr.Provider

	// GenStore holds the per-device epochs. Defaults to an in-process store;
	// use genstore.RedisGenStore when senders and receivers run on
	// different nodes.
	GenStore genstore.GenStore

	TTL time.Duration // default 10s; must outlast one keyframe interval

	// MaxChain bounds how many diffs Chain follows after the keyframe
	// (default 1024).
	MaxChain int

	Logger trvl.Logger
	Hooks  trvl.Hooks
}

// KeyframeCache keeps, per device, the latest keyframe packet and the diff
// packets sent after it. Replaying that chain puts a late joiner exactly where
// the live stream is, so it can apply the next live packet.
//
// Entries are stamped with the device's epoch. Invalidate bumps the epoch,
// so packets produced before a reconfiguration are never handed to a late
// joiner even if the delete of the old entry was lost. Corrupt and stale
// entries are deleted when read and reported as misses.
//
// Diffs are stored under their own keys and never rewritten; the ones left
// behind by an older keyframe simply expire.
type KeyframeCache struct {
	ns       string
	provider pr.Provider
	gen      genstore.GenStore
	ttl      time.Duration
	maxChain int
	log      trvl.Logger
	hooks    trvl.Hooks
}

func NewKeyframeCache(opts CacheOptions) (*KeyframeCache, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("stream: provider is required")
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("stream: namespace is required")
	}

	c := &KeyframeCache{
		ns:       opts.Namespace,
		provider: opts.Provider,
		ttl:      coalesce(opts.TTL, defaultKeyframeTTL),
		maxChain: coalesce(opts.MaxChain, defaultMaxChain),
		log:      coalesce[trvl.Logger](opts.Logger, trvl.NopLogger{}),
		hooks:    coalesce[trvl.Hooks](opts.Hooks, trvl.NopHooks{}),
	}
	if opts.GenStore != nil {
		c.gen = opts.GenStore
	} else {
		c.gen = genstore.NewLocalGenStore(defaultSweep, defaultGenRetention)
	}
	return c, nil
}

// Close releases the epoch store and the provider.
func (c *KeyframeCache) Close(ctx context.Context) error {
	return errors.Join(c.gen.Close(ctx), c.provider.Close(ctx))
}

// Put stores packet as the latest keyframe of device, stamped with the
// current epoch. Non-keyframe packets are rejected.
func (c *KeyframeCache) Put(ctx context.Context, device uint16, packet []byte) error {
	h, _, err := wire.DecodePacket(packet)
	if err != nil {
		return fmt.Errorf("stream: keyframe cache put: %w", err)
	}
	if !h.Keyframe || h.Device != device {
		return fmt.Errorf("stream: keyframe cache put: not a keyframe of device %d", device)
	}
	return c.store(ctx, c.key(device), h, packet)
}

// Append stores a diff packet of device so that Chain can replay it after
// the keyframe it builds on. Keyframe packets are rejected; use Put.
func (c *KeyframeCache) Append(ctx context.Context, device uint16, packet []byte) error {
	h, _, err := wire.DecodePacket(packet)
	if err != nil {
		return fmt.Errorf("stream: keyframe cache append: %w", err)
	}
	if h.Keyframe || h.Device != device {
		return fmt.Errorf("stream: keyframe cache append: not a diff of device %d", device)
	}
	return c.store(ctx, c.diffKey(device, h.Seq), h, packet)
}

func (c *KeyframeCache) store(ctx context.Context, k string, h Header, packet []byte) error {
	epoch, err := c.gen.Snapshot(ctx, c.stream(h.Device))
	if err != nil {
		return err
	}
	entry := wire.EncodeEntry(epoch, packet)
	ok, err := c.provider.Set(ctx, k, entry, int64(len(entry)), c.ttl)
	if err != nil {
		return err
	}
	if !ok {
		c.log.Debug("packet rejected by provider (pressure)", trvl.Fields{"device": h.Device, "seq": h.Seq, "keyframe": h.Keyframe})
	}
	return nil
}

// Latest returns a copy of the cached keyframe packet of device. A miss is
// (nil, false, nil); only provider and epoch store failures are errors.
func (c *KeyframeCache) Latest(ctx context.Context, device uint16) ([]byte, bool, error) {
	packet, _, _, err := c.latest(ctx, device)
	if err != nil || packet == nil {
		return nil, false, err
	}
	return bytes.Clone(packet), true, nil
}

// Chain returns copies of the cached keyframe of device followed by the
// consecutive diffs cached after it, in sequence order. It stops at the first
// missing, stale or corrupt diff. A miss is an empty chain.
func (c *KeyframeCache) Chain(ctx context.Context, device uint16) ([][]byte, error) {
	key, kh, epoch, err := c.latest(ctx, device)
	if err != nil || key == nil {
		return nil, err
	}

	chain := [][]byte{bytes.Clone(key)}
	for seq := kh.Seq + 1; len(chain) <= c.maxChain; seq++ {
		if seq == 0 {
			break // wrapped
		}
		k := c.diffKey(device, seq)
		raw, ok, err := c.provider.Get(ctx, k)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		e, packet, err := wire.DecodeEntry(raw)
		if err == nil {
			var h Header
			h, _, err = wire.DecodePacket(packet)
			if err == nil && (h.Keyframe || h.Device != device || h.Seq != seq ||
				h.Method != kh.Method || h.Width != kh.Width || h.Height != kh.Height) {
				err = wire.ErrCorrupt
			}
		}
		if err != nil || e != epoch {
			_ = c.provider.Del(ctx, k) // self-heal
			c.log.Debug("chain cut at unusable diff", trvl.Fields{"device": device, "seq": seq, "err": err})
			break
		}
		chain = append(chain, bytes.Clone(packet))
	}
	return chain, nil
}

// latest returns the keyframe packet aliasing provider memory, its header and
// the epoch it was validated against. packet is nil on a miss.
func (c *KeyframeCache) latest(ctx context.Context, device uint16) (packet []byte, h Header, epoch uint64, err error) {
	k := c.key(device)
	raw, ok, err := c.provider.Get(ctx, k)
	if err != nil {
		c.hooks.KeyframeCacheMiss(device, "error")
		return nil, Header{}, 0, err
	}
	if !ok {
		c.hooks.KeyframeCacheMiss(device, "miss")
		return nil, Header{}, 0, nil
	}

	epoch, packet, err = wire.DecodeEntry(raw)
	if err == nil {
		h, _, err = wire.DecodePacket(packet)
		if err == nil && (!h.Keyframe || h.Device != device) {
			err = wire.ErrCorrupt
		}
	}
	if err != nil {
		_ = c.provider.Del(ctx, k) // self-heal corrupt
		c.hooks.KeyframeCacheMiss(device, "corrupt")
		c.log.Warn("dropped corrupt cached keyframe", trvl.Fields{"device": device, "err": err})
		return nil, Header{}, 0, nil
	}

	cur, err := c.gen.Snapshot(ctx, c.stream(device))
	if err != nil {
		c.hooks.KeyframeCacheMiss(device, "error")
		return nil, Header{}, 0, err
	}
	if epoch != cur {
		_ = c.provider.Del(ctx, k)
		c.hooks.KeyframeCacheMiss(device, "stale_epoch")
		return nil, Header{}, 0, nil
	}
	return packet, h, epoch, nil
}

// Invalidate bumps the device's epoch and drops its cached keyframe, which
// also orphans every cached diff. Called by a Sender when a session starts
// and whenever the frame geometry changes.
func (c *KeyframeCache) Invalidate(ctx context.Context, device uint16) (uint64, error) {
	epoch, err := c.gen.Bump(ctx, c.stream(device))
	if err != nil {
		return 0, err
	}
	_ = c.provider.Del(ctx, c.key(device))
	c.log.Debug("invalidated cached keyframe", trvl.Fields{"device": device, "epoch": epoch})
	return epoch, nil
}

func (c *KeyframeCache) stream(device uint16) string { return util.StreamKey(c.ns, device) }
func (c *KeyframeCache) key(device uint16) string    { return util.KeyframeKey(c.ns, device) }
func (c *KeyframeCache) diffKey(device uint16, seq uint32) string {
	return util.DiffKey(c.ns, device, seq)
}
