// Package retry runs operations until they succeed, fail terminally, or run
// out of attempts.
//
// Both the page crawler and the download workers retry through Do. Download
// retries use a zero ConstantBackoff; page fetches back off exponentially
// from the configured page retry delay:
//
//	err := retry.Do(func() error {
//		return fetch(ctx, url)
//	}, &retry.Config{
//		MaxAttempts: cfg.Download.Retry,
//		Backoff:     &retry.ConstantBackoff{},
//		RetryIf:     retry.DefaultRetryIf,
//		Context:     ctx,
//	})
//
// Errors from pkg/errors are retried only when their class is retryable, so
// an access-denied response stops the loop after one attempt.
package retry
