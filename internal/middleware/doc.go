// Package middleware provides HTTP middleware for the photo library server.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics with id-normalized paths
//   - Response compression (gzip)
//   - Shared-password bearer-token authentication
package middleware
