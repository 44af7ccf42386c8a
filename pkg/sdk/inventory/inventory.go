// Package inventory projects the daemon's instance list plus per-instance
// state reads into a single snapshot.
package inventory

import (
	"context"
	"fmt"

	"incman/pkg/sdk/types"

	"golang.org/x/sync/errgroup"
)

// stateReadLimit bounds concurrent state reads per snapshot so a large
// inventory does not flood the daemon socket.
const stateReadLimit = 8

// Source provides the two daemon reads a snapshot is built from. In
// production this is client.Client.
type Source interface {
	ListInstances(ctx context.Context) ([]string, error)
	InstanceState(ctx context.Context, name string) (types.Status, error)
}

// Snapshot returns one Instance per listed name, in list order. A failed
// list fails the whole snapshot. Per-instance daemon refusals degrade to
// StatusUnknown inside the Source; only a transport-level failure aborts,
// since that means the daemon itself is gone. Statuses are independent
// reads taken moments apart, not a transaction.
func Snapshot(ctx context.Context, src Source) ([]types.Instance, error) {
	names, err := src.ListInstances(ctx)
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}

	instances := make([]types.Instance, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(stateReadLimit)
	for i, name := range names {
		i, name := i, name // per-iteration copies; required while go.mod is below go 1.22
		g.Go(func() error {
			status, err := src.InstanceState(ctx, name)
			if err != nil {
				return fmt.Errorf("read state of %s: %w", name, err)
			}
			instances[i] = types.Instance{Name: name, Status: status}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return instances, nil
}
