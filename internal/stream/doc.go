// Package stream is the HTTP transport for the fan-out core: the SSE
// stream endpoint that registers subscribers, the publish endpoint
// that broadcasts entity events, and a stats endpoint.
//
// The package owns everything HTTP-specific (headers, flushing,
// keepalives, disconnect detection) so the broadcast package stays
// transport-free behind its Sink interface.
package stream
