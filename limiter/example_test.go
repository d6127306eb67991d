/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package limiter_test

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/acronis/go-ratelimit/config"
	"github.com/acronis/go-ratelimit/limiter"
	"github.com/acronis/go-ratelimit/ratelimit"
	"github.com/acronis/go-ratelimit/store"
)

func Example() {
	memStore := store.NewMemoryStore()
	defer func() { _ = memStore.Close() }()

	rl, err := limiter.New(memStore, limiter.Opts{Rules: map[string]ratelimit.Rule{
		"login": ratelimit.MustRule(2, time.Minute, ratelimit.AlgorithmSlidingWindowLog),
	}})
	if err != nil {
		panic(err)
	}
	defer func() { _ = rl.Close() }()

	stats := limiter.NewStats()
	checker := limiter.Chain(rl, limiter.WithObserver(stats.Observe))
	for _, key := range []string{"login", "login", "login", "search"} {
		resp, checkErr := checker.CheckLimit(context.Background(), key)
		if checkErr != nil {
			panic(checkErr)
		}
		if resp.Allowed {
			fmt.Printf("%s: allowed\n", key)
		} else {
			fmt.Printf("%s: denied, retry after %s\n", key, resp.RetryAfter)
		}
	}
	snapshot := stats.Snapshot()
	fmt.Printf("allowed: %d, denied: %d\n", snapshot.Allowed, snapshot.Denied)

	// Output:
	// login: allowed
	// login: allowed
	// login: denied, retry after 1m0s
	// search: allowed
	// allowed: 3, denied: 1
}

func ExampleNewFromConfig() {
	cfgData := bytes.NewBufferString(`
store:
  backend: memory
  sweepInterval: 30s
rateLimiter:
  rules:
    - key: api
      quota: 1
      window: 1s
      algorithm: token_bucket
`)
	storeCfg := store.NewConfig()
	limiterCfg := limiter.NewConfig()
	loader := config.NewLoader(config.NewViperAdapter())
	if err := loader.LoadFromReader(cfgData, config.DataTypeYAML, storeCfg, limiterCfg); err != nil {
		panic(err)
	}

	backend, err := store.NewFromConfig(storeCfg, store.MemoryStoreOpts{})
	if err != nil {
		panic(err)
	}
	defer func() { _ = backend.Close() }()

	rl, err := limiter.NewFromConfig(limiterCfg, backend, limiter.Opts{})
	if err != nil {
		panic(err)
	}
	defer func() { _ = rl.Close() }()

	fmt.Println(rl.Keys())
	// Output: [api]
}
