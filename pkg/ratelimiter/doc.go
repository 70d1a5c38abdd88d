// Package ratelimiter implements an in-memory token bucket limiter keyed by
// string, used to bound how often a single client may open connections.
//
// Each key owns a bucket holding at most Capacity tokens. Every
// RefillInterval, RefillRate tokens are added back. A request is allowed
// when the bucket holds enough tokens; denied requests consume nothing.
//
//	limiter, err := ratelimiter.New(ratelimiter.Config{
//		Capacity:       20,
//		RefillRate:     1,
//		RefillInterval: 3 * time.Second,
//	})
//	if err != nil {
//		return err
//	}
//	g.Go(limiter.Run(ctx)) // evicts idle buckets
//
//	if res := limiter.Allow(clientip.GetIP(r)); !res.Allowed {
//		w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())+1))
//		http.Error(w, "too many connection attempts", http.StatusTooManyRequests)
//		return
//	}
package ratelimiter
