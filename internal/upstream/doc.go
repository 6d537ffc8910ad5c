// Package upstream is the HTTP transport shared by all corpus backend clients.
//
// Every call is a single request without retries. Non-2xx answers and
// transport failures are reported as *model.RequestError so tiles can show
// the backend status. Backend calls may be routed through a SOCKS5 proxy,
// carry configured headers and be answered from a response Cache.
package upstream
