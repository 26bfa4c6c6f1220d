package chat

import (
	"github.com/koscakluka/ema-dashboard/core/llms"
	"github.com/koscakluka/ema-dashboard/core/telemetry"
)

// Request is the body of a chat call: the full history plus the telemetry
// the reply should be grounded on.
type Request struct {
	Messages   []llms.Message     `json:"messages"`
	SiteData   telemetry.Snapshot `json:"siteData"`
	LastUpdate string             `json:"lastUpdate"`
	// Debug asks the backend to log the prompt it builds.
	Debug bool `json:"debug"`
}
