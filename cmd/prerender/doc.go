// Package main hosts the poetry prerender entrypoint.
//
// Architecture overview:
//   - HTTP shell: internal/server sends every public request through the interceptor, whose fallback is a reverse
//     proxy to the primary site (origin.url). /healthz, /readyz and /metrics live on a separate admin listener
//     (server.admin_port) so no site path is shadowed.
//   - Interception: requests are answered here only when the user agent matches a known crawler or link-preview
//     fetcher, the path is /poetry/<book>[/<poem>], the book and poem resolve, and the page renders. Any other
//     outcome is proxied unchanged; the interceptor never emits an error page.
//   - Collections: each configured collection is a URL to a JSON array of books (http/https via Colly, gs:// via
//     Cloud Storage, file:// for local work). Collections are fetched on every intercepted request, in declared
//     order, with no caching; a failing collection is logged and skipped.
//   - Rendering: html/template pages carry meta description, keywords, canonical link, Open Graph and Twitter tags
//     and one JSON-LD object (Book with Chapter parts, or CreativeWork with an isPartOf back-reference).
//
// Operational notes:
//   - The process is stateless; scale out freely. SIGINT/SIGTERM trigger a graceful drain bounded by
//     server.shutdown_timeout_seconds.
//   - Observability: zap logs every request with its request id; Prometheus tracks interceptor outcomes and per
//     collection fetch results and latencies.
//
// Quick checklist:
//   - Configure env vars: PRERENDER_ORIGIN_URL, PRERENDER_SITE_BASE_URL, PRERENDER_SERVER_PORT or PORT, PRERENDER_SERVER_ADMIN_PORT,
//     PRERENDER_HTTP_TIMEOUT_SECONDS. Collections live in the config file; their sources may reference env vars
//     as ${NAME}.
//   - Run locally: go run ./cmd/prerender -config config.yaml
package main
