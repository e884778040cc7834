// Cratedig
// Copyright (c) 2026 The Cratedig Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Cratedig.
//
// Cratedig is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Cratedig is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Cratedig.  If not, see <http://www.gnu.org/licenses/>.

package metadata

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/cratedig-project/cratedig/pkg/metadata/musicbrainz"
	"github.com/rs/zerolog/log"
)

// isRetryable classifies a fetch failure. Network errors, timeouts and the
// transient upstream status codes are retried; everything else is fatal.
func isRetryable(err error) bool {
	var statusErr *musicbrainz.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded)
}

// callWithRetry runs op with global request pacing before each attempt and
// exponential backoff between retryable failures. After max_retries retries
// the last underlying error is surfaced behind ErrServiceUnavailable.
func (c *Coordinator) callWithRetry(ctx context.Context, op func(context.Context) error) error {
	maxRetries := c.cfg.MaxRetries()

	var lastErr error
	for attempt := 0; ; attempt++ {
		c.pace()

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
		if attempt >= maxRetries {
			break
		}

		backoff := time.Duration(1<<attempt) * time.Second
		log.Warn().
			Err(lastErr).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Msg("retryable metadata service failure")
		c.clock.Sleep(backoff)
	}

	log.Error().
		Err(lastErr).
		Int("attempts", maxRetries+1).
		Msg("metadata service call failed after retries")
	return fmt.Errorf("%w: %w", ErrServiceUnavailable, lastErr)
}

// pace blocks until the configured spacing has elapsed since the last
// outbound request, then claims the slot. The spacing is global, not
// per-entity: the metadata service's rate limit is account-wide.
func (c *Coordinator) pace() {
	for {
		c.mu.Lock()
		now := c.clock.Now()
		next := c.lastRequest.Add(c.cfg.RateLimit())
		if c.lastRequest.IsZero() || !now.Before(next) {
			c.lastRequest = now
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		c.clock.Sleep(next.Sub(now))
		// Re-check after waking: another caller may have taken the slot.
	}
}
