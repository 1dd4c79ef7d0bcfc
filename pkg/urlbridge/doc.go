// Package urlbridge lets sandboxed scripts expose short-lived, uniquely named
// HTTP endpoints and receive inbound requests as events.
//
// Scripts cannot block on I/O, so inbound traffic is turned into a poll
// model: a transport delivers the request, the owning script is notified,
// and the transport then probes HasOutcome/TakeOutcome until the script has
// produced a response or the request times out.
//
// All state lives in one Bridge. The endpoint registry and the request
// correlation table are mutated together under a single guard so the two
// never disagree about which requests belong to which endpoint.
package urlbridge
