package model

// Track is the hackathon track a project competes in.
type Track string

// The fixed set of tracks.
const (
	TrackAIDepin    Track = "AI and Depin"
	TrackOnchainRWA Track = "Onchain Finance & RWA"
	TrackDLTOps     Track = "DLT for Operations"
	TrackImmersive  Track = "Immersive Experiences"
	TrackCrossChain Track = "Cross-Chain Track"
)

// Tracks lists every track in display order.
var Tracks = []Track{TrackAIDepin, TrackOnchainRWA, TrackDLTOps, TrackImmersive, TrackCrossChain}

// Valid reports whether t belongs to the fixed set.
func (t Track) Valid() bool {
	for _, known := range Tracks {
		if t == known {
			return true
		}
	}
	return false
}
