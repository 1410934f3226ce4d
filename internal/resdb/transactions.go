package resdb

import (
	"context"
	"time"

	"resdb-mcp/internal/toolerr"
)

const getTransactionQuery = `query GetTransaction($id: ID!) {
  getTransaction(id: $id) {
    id
    version
    amount
    uri
    type
    publicKey
    operation
    metadata
    asset
    signerPublicKey
  }
}`

const postTransactionMutation = `mutation PostTransaction($data: PrepareAsset!) {
  postTransaction(data: $data) {
    id
  }
}`

// RequiredTransactionFields lists the PrepareAsset members the node rejects a
// transaction without, in the order they are reported.
var RequiredTransactionFields = []string{
	"operation",
	"amount",
	"signerPublicKey",
	"signerPrivateKey",
	"recipientPublicKey",
	"asset",
}

// CreateAccount always fails: ResilientDB has no account registry. A key pair
// is generated offline and the public key is the account.
func (c *Client) CreateAccount(ctx context.Context, accountID string) (any, error) {
	return nil, toolerr.New(toolerr.Policy,
		"account creation is not supported by ResilientDB: generate a key pair offline (for example with the rescontract CLI) and use its public key as the account")
}

// GetTransaction fetches a committed transaction by id.
func (c *Client) GetTransaction(ctx context.Context, id string) (any, error) {
	if id == "" {
		return nil, toolerr.New(toolerr.Validation, "transaction id is required")
	}
	return c.Execute(ctx, getTransactionQuery, map[string]any{"id": id})
}

// PostTransaction commits a new asset transaction. Every field in
// RequiredTransactionFields must be present; missing ones are reported
// together without contacting the node.
func (c *Client) PostTransaction(ctx context.Context, data map[string]any) (any, error) {
	var missing []string
	for _, field := range RequiredTransactionFields {
		if value, ok := data[field]; !ok || value == nil {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, toolerr.MissingFields("transaction data", missing)
	}
	return c.Execute(ctx, postTransactionMutation, map[string]any{"data": data})
}

// UpdateTransaction always fails: committed transactions are immutable.
func (c *Client) UpdateTransaction(ctx context.Context, id string, data map[string]any) (any, error) {
	return nil, toolerr.New(toolerr.Policy,
		"transaction %s cannot be updated: ResilientDB transactions are immutable once committed; post a new transaction instead", id)
}

// WaitTransaction polls GetTransaction until the node returns the
// transaction or attempts run out.
func (c *Client) WaitTransaction(ctx context.Context, id string, interval time.Duration, attempts int) (any, error) {
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			timer := time.NewTimer(interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, toolerr.Wrap(toolerr.Timeout, ctx.Err(), "wait for transaction "+id)
			case <-timer.C:
			}
		}
		result, err := c.GetTransaction(ctx, id)
		if err != nil {
			if toolerr.Is(err, toolerr.Validation) {
				return nil, err
			}
			lastErr = err
			continue
		}
		if found(result) {
			return result, nil
		}
	}
	if lastErr != nil {
		return nil, toolerr.Wrap(toolerr.Timeout, lastErr, "transaction "+id+" not available")
	}
	return nil, toolerr.New(toolerr.Timeout, "transaction %s not available after %d attempts", id, attempts)
}

func found(result any) bool {
	data, ok := result.(map[string]any)
	if !ok {
		return false
	}
	tx, ok := data["getTransaction"]
	return ok && tx != nil
}
