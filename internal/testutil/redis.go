package testutil

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

// ErrConnectionDropped is what a FaultHook reports in place of a reply
var ErrConnectionDropped = errors.New("connection dropped")

// FaultHook fails the next command whose name starts with Command, so
// "eval" covers both EVAL and EVALSHA. With
// AfterSend set, the command still runs on the server and only the reply
// is lost; otherwise it never leaves the client.
type FaultHook struct {
	Command   string
	AfterSend bool

	armed atomic.Bool
	fired atomic.Int32
}

// Arm makes the hook fail the next matching command
func (h *FaultHook) Arm() { h.armed.Store(true) }

// Fired reports how many commands the hook has failed
func (h *FaultHook) Fired() int { return int(h.fired.Load()) }

func (h *FaultHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *FaultHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (h *FaultHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if !strings.HasPrefix(cmd.Name(), strings.ToLower(h.Command)) || !h.armed.Load() {
			return next(ctx, cmd)
		}
		if !h.AfterSend {
			if h.armed.CompareAndSwap(true, false) {
				h.fired.Add(1)
				return ErrConnectionDropped
			}
			return next(ctx, cmd)
		}
		if err := next(ctx, cmd); err != nil {
			return err
		}
		if h.armed.CompareAndSwap(true, false) {
			h.fired.Add(1)
			return ErrConnectionDropped
		}
		return nil
	}
}
