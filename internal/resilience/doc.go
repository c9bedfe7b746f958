// Package resilience provides reliability and fault tolerance patterns for
// the push dispatcher. It includes retry logic with exponential backoff and
// circuit breakers for the push provider APIs.
//
// The package supports:
//   - Circuit breakers for provider calls (FCM, APNs)
//   - Retry logic with exponential backoff and jitter
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.FCMConfig())
//	_, err := cb.Execute(func() (interface{}, error) {
//	    return nil, sendToProvider()
//	})
//
//	retryConfig := retry.ProviderConfig()
//	err := retry.WithBackoff(ctx, retryConfig, func() error {
//	    return performOperation()
//	})
package resilience
