package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/mc2048/board"
	"github.com/domino14/mc2048/move"
	"github.com/domino14/mc2048/position"
)

const (
	DefaultRequestTimeout = 10 * time.Second
	DefaultAttempts       = 3
)

type Client struct {
	// NATS connection
	nc       *nats.Conn
	channel  string
	timeout  time.Duration
	attempts uint
}

func NewClient(nc *nats.Conn, channel string) *Client {
	return &Client{
		nc:       nc,
		channel:  channel,
		timeout:  DefaultRequestTimeout,
		attempts: DefaultAttempts,
	}
}

func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

func (c *Client) SetAttempts(n uint) {
	c.attempts = n
}

// retryable is true for failures where nobody answered in time, as opposed
// to a reply we could not use.
func retryable(err error) bool {
	return errors.Is(err, nats.ErrNoResponders) ||
		errors.Is(err, nats.ErrTimeout) ||
		errors.Is(err, context.DeadlineExceeded)
}

func backoff(logger *zerolog.Logger) retry.DelayTypeFunc {
	return func(n uint, err error, config *retry.Config) time.Duration {
		logger.Err(err).Uint("n", n).Msg("did-not-receive-reply-try-again")
		return retry.BackOffDelay(n, err, config)
	}
}

// Request sends data to subject and waits for the reply, retrying with
// backoff while nobody answers.
func Request(ctx context.Context, nc *nats.Conn, subject string, data []byte,
	timeout time.Duration, attempts uint) (*nats.Msg, error) {

	logger := zerolog.Ctx(ctx)
	return retry.DoWithData(
		func() (*nats.Msg, error) {
			rctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return nc.RequestWithContext(rctx, subject, data)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.RetryIf(retryable),
		retry.DelayType(backoff(logger)),
		retry.LastErrorOnly(true),
	)
}

// RequestMove sends b to the bot. It returns the position after the bot
// played its move, and the move.
func (c *Client) RequestMove(ctx context.Context, b *board.Board) (*board.Board, move.Direction, error) {
	res, err := Request(ctx, c.nc, c.channel, position.Encode(b), c.timeout, c.attempts)
	if err != nil {
		if c.nc.LastError() != nil {
			log.Error().Msgf("%v for request", c.nc.LastError())
		}
		log.Error().Msgf("%v for request", err)
		return nil, move.Left, err
	}
	log.Debug().Msgf("res: %d bytes", len(res.Data))
	return parseReply(res.Data)
}

func parseReply(data []byte) (*board.Board, move.Direction, error) {
	var resp position.Message
	if err := resp.Unmarshal(data); err != nil {
		return nil, move.Left, err
	}
	if resp.Error != "" {
		return nil, move.Left, errors.New("bot returned: " + resp.Error)
	}
	d, ok, err := resp.Direction()
	if err != nil {
		return nil, move.Left, err
	}
	if !ok {
		return nil, move.Left, errors.New("bot reply carries no move")
	}
	after, err := resp.ToBoard()
	if err != nil {
		return nil, move.Left, fmt.Errorf("bot reply: %w", err)
	}
	return after, d, nil
}
