package pipeline

import (
	"context"
	"sync"
	"time"
)

// Manager handles operations on multiple pods concurrently. It provides
// bulk operations with configurable concurrency and timeouts for fleets
// where several pods share one account.
type Manager struct {
	// Client is the pod API client used for every operation
	Client *PodClient
	// Concurrency is the maximum number of concurrent operations
	Concurrency int
	// Timeout is the per-operation timeout
	Timeout time.Duration
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithConcurrency sets the maximum number of concurrent operations
func WithConcurrency(n int) ManagerOption {
	return func(m *Manager) {
		m.Concurrency = n
	}
}

// WithTimeout sets the per-operation timeout
func WithTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.Timeout = d
	}
}

// NewManager creates a Manager with default settings
func NewManager(client *PodClient, opts ...ManagerOption) *Manager {
	m := &Manager{
		Client:      client,
		Concurrency: 5,
		Timeout:     time.Minute,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.Concurrency < 1 {
		m.Concurrency = 1
	}

	return m
}

func (m *Manager) execute(ctx context.Context, podIDs []string, op func(context.Context, string) error) error {
	if len(podIDs) == 0 {
		return nil
	}

	// Semaphore for concurrency control
	sem := make(chan struct{}, m.Concurrency)

	var wg sync.WaitGroup
	var mu sync.Mutex
	merr := &MultiError{}

	for _, podID := range podIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()

			// Acquire semaphore slot
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				mu.Lock()
				merr.Add(ctx.Err())
				mu.Unlock()
				return
			}

			opCtx := ctx
			if m.Timeout > 0 {
				var cancel context.CancelFunc
				opCtx, cancel = context.WithTimeout(ctx, m.Timeout)
				defer cancel()
			}

			if err := op(opCtx, id); err != nil {
				mu.Lock()
				merr.Add(err)
				mu.Unlock()
			}
		}(podID)
	}

	wg.Wait()

	return merr.Err()
}

// Start resumes the specified pods
func (m *Manager) Start(ctx context.Context, podIDs ...string) error {
	return m.execute(ctx, podIDs, func(ctx context.Context, id string) error {
		return m.Client.Start(ctx, id)
	})
}

// Stop halts the specified pods
func (m *Manager) Stop(ctx context.Context, podIDs ...string) error {
	return m.execute(ctx, podIDs, func(ctx context.Context, id string) error {
		return m.Client.Stop(ctx, id)
	})
}

// Info retrieves the state of the specified pods
func (m *Manager) Info(ctx context.Context, podIDs ...string) (map[string]PodInfo, error) {
	results := make(map[string]PodInfo)
	var mu sync.Mutex

	err := m.execute(ctx, podIDs, func(ctx context.Context, id string) error {
		info, err := m.Client.Info(ctx, id)
		if err != nil {
			return err
		}
		mu.Lock()
		results[id] = info
		mu.Unlock()
		return nil
	})

	return results, err
}
