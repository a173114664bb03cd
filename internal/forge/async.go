package forge

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// defaultAsync adapts any Client into an AsyncClient by parallelizing the
// single-ref calls. Backends that can serve a batch in one remote query
// should implement AsyncClient directly instead of relying on this.
type defaultAsync struct {
	Client
}

// WrapAsync returns c as an AsyncClient, using the naive fan-out
// implementation unless c already implements AsyncClient.
func WrapAsync(c Client) AsyncClient {
	if async, ok := c.(AsyncClient); ok {
		return async
	}
	return &defaultAsync{Client: c}
}

func (d *defaultAsync) CheckPRsExist(ctx context.Context, branches []string) (map[string]bool, error) {
	out := make(map[string]bool, len(branches))
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for _, b := range branches {
		b := b
		g.Go(func() error {
			exists, err := d.PRExists(ctx, b)
			if err != nil {
				return err
			}
			mu.Lock()
			out[b] = exists
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *defaultAsync) GetPRsFullInfo(ctx context.Context, branches []string) (map[string]*FullPullRequest, error) {
	out := make(map[string]*FullPullRequest, len(branches))
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for _, b := range branches {
		b := b
		g.Go(func() error {
			info, err := d.GetPRFullInfo(ctx, b)
			if err != nil {
				return err
			}
			mu.Lock()
			out[b] = info
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *defaultAsync) GetPRBodies(ctx context.Context, branches []string) (map[string]string, error) {
	out := make(map[string]string, len(branches))
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for _, b := range branches {
		b := b
		g.Go(func() error {
			body, err := d.GetPRBody(ctx, b)
			if err != nil {
				return err
			}
			mu.Lock()
			out[b] = body
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *defaultAsync) UpdatePRBodies(ctx context.Context, updates map[string]string) error {
	g, ctx := errgroup.WithContext(ctx)
	for branch, body := range updates {
		branch, body := branch, body
		g.Go(func() error { return d.UpdatePRBody(ctx, branch, body) })
	}
	return g.Wait()
}

func (d *defaultAsync) UpdatePRBases(ctx context.Context, updates map[string]string) error {
	g, ctx := errgroup.WithContext(ctx)
	for branch, base := range updates {
		branch, base := branch, base
		g.Go(func() error { return d.UpdatePRBase(ctx, branch, base) })
	}
	return g.Wait()
}
