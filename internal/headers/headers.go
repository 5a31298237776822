package headers

import "net/http"

// Profile keys for the endpoint families the bot talks to.
const (
	Rewards   = "rewards"
	WebSocket = "websocket"
)

const (
	origin  = "https://app.notpx.app"
	referer = "https://app.notpx.app/"
)

// Set maps a profile key to the headers sent to that endpoint family.
// It is not modified after Build returns.
type Set struct {
	profiles map[string]http.Header
}

// Build creates every header profile with the same User-Agent. An empty user agent is
// accepted, the remote service just sees a less convincing client.
func Build(userAgent string) Set {
	rewards := http.Header{}
	rewards.Set("Accept", "application/json, text/plain, */*")
	rewards.Set("Accept-Language", "en-US,en;q=0.9")
	rewards.Set("Origin", origin)
	rewards.Set("Referer", referer)
	rewards.Set("Sec-Fetch-Dest", "empty")
	rewards.Set("Sec-Fetch-Mode", "cors")
	rewards.Set("Sec-Fetch-Site", "same-site")

	// The websocket handshake carries no fetch metadata; gorilla sets the upgrade headers itself.
	ws := http.Header{}
	ws.Set("Accept-Language", "en-US,en;q=0.9")
	ws.Set("Origin", origin)
	ws.Set("Cache-Control", "no-cache")
	ws.Set("Pragma", "no-cache")

	s := Set{profiles: map[string]http.Header{
		Rewards:   rewards,
		WebSocket: ws,
	}}
	for _, h := range s.profiles {
		h.Set("User-Agent", userAgent)
	}
	return s
}

// Get returns a copy of the named profile, or an empty header for an unknown key.
func (s Set) Get(key string) http.Header {
	h, ok := s.profiles[key]
	if !ok {
		return http.Header{}
	}
	return h.Clone()
}

// Keys lists the profile names.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s.profiles))
	for k := range s.profiles {
		keys = append(keys, k)
	}
	return keys
}
