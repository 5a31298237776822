package model

// Tracking is a single tracking slot of an ad banner.
type Tracking struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Banner is the ad descriptor returned by the ads endpoint.
type Banner struct {
	Trackings []Tracking `json:"trackings"`
}

// Tracking slot positions consumed by the ad cycle.
const (
	TrackRender = 0
	TrackShow   = 1
	TrackReward = 4

	// MinTrackings is the shortest tracking list that still carries a reward slot.
	MinTrackings = TrackReward + 1
)

// RenderURL, ShowURL and RewardURL assume the banner has at least MinTrackings entries.
func (b *Banner) RenderURL() string { return b.Trackings[TrackRender].Value }
func (b *Banner) ShowURL() string   { return b.Trackings[TrackShow].Value }
func (b *Banner) RewardURL() string { return b.Trackings[TrackReward].Value }
