// Package github resolves GitHub repository URLs and fetches README files.
//
// # URL Handling
//
// Repository URLs are normalised to a README blob URL
// (https://github.com/<owner>/<repo>/blob/main/README.md) and translated to
// raw content URLs on raw.githubusercontent.com. See [NormaliseRepoURL],
// [RawContentURL] and [ParseReadmeURL].
//
// # Fetching
//
// [ReadmeFetcher] reads README content through the REST contents API using
// go-github. It is used when a token is configured, which also allows
// private repositories. Requests are throttled by [RateLimiter], which
// combines a token bucket with the X-RateLimit-* response headers.
// Without a token the plain HTTP fetcher in adapters/driven/fetch is used.
package github
