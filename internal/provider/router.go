package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Router dispatches calls to the configured upstream clients. Each request
// names its provider explicitly; the default only applies when none is given.
type Router struct {
	clients     map[Provider]Client
	defaultName Provider
	log         *zap.Logger
}

func NewRouter(defaultName Provider, log *zap.Logger, clients ...Client) *Router {
	byName := make(map[Provider]Client, len(clients))
	for _, client := range clients {
		byName[client.Name()] = client
	}
	return &Router{
		clients:     byName,
		defaultName: defaultName,
		log:         log.With(zap.String("component", "provider_router")),
	}
}

// Get resolves a provider by name, falling back to the default when empty
func (r *Router) Get(name Provider) (Client, error) {
	if name == "" {
		name = r.defaultName
	}
	client, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("flight provider not configured: %s", name)
	}
	return client, nil
}

func (r *Router) Providers() []Provider {
	names := make([]Provider, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// SearchAll fans the search out to every configured provider concurrently
// and merges the results sorted by total price. One provider failing does
// not sink the whole search; it only fails when every provider fails.
func (r *Router) SearchAll(ctx context.Context, criteria SearchCriteria) ([]FlightOffer, error) {
	type result struct {
		provider Provider
		offers   []FlightOffer
		err      error
	}

	results := make(chan result, len(r.clients))
	var wg sync.WaitGroup
	for name, client := range r.clients {
		wg.Add(1)
		go func(name Provider, client Client) {
			defer wg.Done()
			offers, err := client.Search(ctx, criteria)
			results <- result{provider: name, offers: offers, err: err}
		}(name, client)
	}
	wg.Wait()
	close(results)

	var merged []FlightOffer
	var errs []error
	for res := range results {
		if res.err != nil {
			r.log.Warn("Provider search failed",
				zap.String("provider", string(res.provider)),
				zap.Error(res.err))
			errs = append(errs, res.err)
			continue
		}
		merged = append(merged, res.offers...)
	}

	if len(merged) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("all providers failed: %w", errs[0])
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Price.Total.LessThan(merged[j].Price.Total)
	})

	return merged, nil
}
