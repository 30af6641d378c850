// Package mongo wraps the official driver with connection setup, health
// probing and the few collection helpers the lab needs.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/upcschool/mongolab/pkg/config"
)

type Client struct {
	client *mongo.Client
	db     *mongo.Database
	cfg    config.MongoConfig
}

// New connects to MongoDB using the configured URI. It does not ping; a model
// run against an unreachable server must fail at its own first operation so
// the remaining models still get their turn.
func New(ctx context.Context, cfg config.MongoConfig) (*Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URI()).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	return &Client{
		client: client,
		db:     client.Database(cfg.Database),
		cfg:    cfg,
	}, nil
}

// Ping verifies the server is reachable. Used by readiness checks and the
// startup preflight; query paths skip it and surface their own errors.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("pinging mongodb: %w", err)
	}
	return nil
}

func (c *Client) Database() *mongo.Database {
	return c.db
}

func (c *Client) Collection(name string) *mongo.Collection {
	return c.db.Collection(name)
}

// DropCollections drops each named collection. Dropping a collection that
// does not exist is not an error.
func (c *Client) DropCollections(ctx context.Context, names ...string) error {
	for _, name := range names {
		if err := c.db.Collection(name).Drop(ctx); err != nil {
			return fmt.Errorf("dropping collection %s: %w", name, err)
		}
	}
	return nil
}

// CreateCollection creates a collection explicitly so empty namespaces
// exist before the first insert. A NamespaceExists error is ignored.
func (c *Client) CreateCollection(ctx context.Context, name string) error {
	err := c.db.CreateCollection(ctx, name)
	if err == nil {
		return nil
	}
	// 48 is NamespaceExists.
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == 48 {
		return nil
	}
	return fmt.Errorf("creating collection %s: %w", name, err)
}

func (c *Client) Close(ctx context.Context) error {
	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnecting from mongodb: %w", err)
	}
	return nil
}

// IsUnavailable reports whether an error means the server could not be
// reached, as opposed to a query-level failure.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsTimeout(err) {
		return true
	}
	return errors.Is(err, mongo.ErrClientDisconnected) ||
		errors.Is(err, context.DeadlineExceeded)
}
