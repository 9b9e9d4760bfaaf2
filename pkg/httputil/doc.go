// Package httputil provides HTTP utilities for fetching view graphs.
//
// # Overview
//
// This package provides infrastructure used by graph source clients:
//
//   - [GraphClient]: Fetches view graphs from the KnowledgePlane API
//   - [Retry]: Automatic retry with exponential backoff
//
// # Retry
//
// [Retry] wraps HTTP requests with automatic retry for transient failures:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// Only errors wrapped with [RetryableError] are retried; client errors
// (4xx other than 429) fail immediately.
package httputil
