// Package resilience provides retry and timeout layers a caller wraps around
// a per-item transformation before handing it to a parallel map:
//
//	fn := resilience.RetryFunc(resilience.DefaultRetryConfig(),
//	    resilience.TimeoutFunc(5*time.Second, fetch))
//	p := pipeline.ParMap(urls, fn)
//
// Timeouts are reported as retryable TIMEOUT errors so the two compose.
// Context cancellation and fatal errors are never retried.
package resilience
