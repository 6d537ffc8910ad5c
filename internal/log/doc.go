// Package log provides slog based logging with automatic masking of
// credentials.
//
// wdglance talks to corpus backends which are often protected by personal
// access tokens, API keys (x_api_key) and session cookies. Those values
// appear in request arguments and headers which are handy to log while
// debugging a tile. The SecureHandler masks them:
//   - attribute keys such as "personal_access_token", "cookie", "x-api-key"
//   - compound keys containing "token", "secret" or "password"
//   - JWT, bearer and basic credentials detected by value
//   - tokens embedded in URLs (only the token part is masked)
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("calling backend", "url", u, "personal_access_token", tok)
//	slog.SetDefault(logger)
package log
