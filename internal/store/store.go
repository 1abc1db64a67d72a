// Package store issues the INFO command against a Redis server.
package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrConnection marks failures to reach the server, as opposed to error
// replies sent by a server that was reached.
var ErrConnection = errors.New("redis connection failed")

// Options configures a Client.
type Options struct {
	Addr     string
	Username string
	Password string
	Timeout  time.Duration
}

// Client fetches INFO text over a pooled go-redis connection.
type Client struct {
	addr string
	rdb  *redis.Client
}

// ConnectionURL assembles a redis:// URL from an address and optional credentials.
func ConnectionURL(addr, username, password string) string {
	u := url.URL{Scheme: "redis", Host: addr}
	if username != "" || password != "" {
		u.User = url.UserPassword(username, password)
	}
	return u.String()
}

// New creates a client. No connection is made until the first Info call.
func New(opts Options) (*Client, error) {
	redisOpts, err := redis.ParseURL(ConnectionURL(opts.Addr, opts.Username, opts.Password))
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis address %q: %w", opts.Addr, err)
	}

	if opts.Timeout > 0 {
		redisOpts.DialTimeout = opts.Timeout
		redisOpts.ReadTimeout = opts.Timeout
		redisOpts.WriteTimeout = opts.Timeout
	}

	return &Client{
		addr: opts.Addr,
		rdb:  redis.NewClient(redisOpts),
	}, nil
}

// Info runs a parameterless INFO command and returns the raw reply.
// Errors that are not server replies, and rejected logins, are wrapped with
// ErrConnection.
func (c *Client) Info(ctx context.Context) (string, error) {
	text, err := c.rdb.Info(ctx).Result()
	if err != nil {
		return "", classify(c.addr, err)
	}
	return text, nil
}

// Close releases pooled connections.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// loginReplies are reply prefixes of a server rejecting the connection
// handshake (HELLO or AUTH) or the missing credentials.
var loginReplies = []string{
	"WRONGPASS",
	"NOAUTH",
	"NOPERM",
	"ERR AUTH",
	"ERR invalid password",
	"ERR Client sent AUTH",
}

// classify wraps err with ErrConnection unless the server was reached and
// replied with an error to the command itself.
func classify(addr string, err error) error {
	var replyErr redis.Error
	if errors.As(err, &replyErr) && !isLoginReply(replyErr.Error()) {
		return fmt.Errorf("INFO on %s: %w", addr, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrConnection, addr, err)
}

func isLoginReply(msg string) bool {
	for _, prefix := range loginReplies {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}
