// Package clientip extracts the client IP address of an HTTP request.
//
// Headers are checked in this order, and the first valid address wins:
//  1. CF-Connecting-IP (Cloudflare)
//  2. DO-Connecting-IP (DigitalOcean)
//  3. X-Forwarded-For (leftmost entry)
//  4. X-Real-IP
//  5. RemoteAddr
//
// Addresses are validated and normalized with net.ParseIP; 0.0.0.0 is
// rejected. If nothing valid is found, the raw RemoteAddr is returned.
//
// Proxy headers are client-controlled unless a trusted proxy overwrites
// them, so use the result as a rate-limit key only behind such a proxy.
package clientip
