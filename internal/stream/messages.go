// Package stream implements the client side of the transcription socket:
// it dials the gateway (or the upstream service directly), feeds it PCM
// audio, and turns the JSON frames coming back into typed events.
package stream

import "encoding/json"

// endOfTurnConfidence promotes an Update to final when the upstream turn
// model is confident enough the speaker is done. Observed upstream behavior
// rather than a documented contract; revisit against real samples.
const endOfTurnConfidence = 0.5

// Fragment is one transcript segment received from the upstream service
type Fragment struct {
	// Text is the transcribed text
	Text string

	// Final indicates the upstream service will not revise this segment
	Final bool

	// Confidence is the end-of-turn confidence (0.0 to 1.0) if provided
	Confidence float64
}

// serverMessage is the union of JSON frame shapes the upstream service
// sends. Unknown types and unparseable frames are ignored.
type serverMessage struct {
	Type                string  `json:"type"`
	Transcript          string  `json:"transcript"`
	Event               string  `json:"event"`
	EndOfTurnConfidence float64 `json:"end_of_turn_confidence"`

	// Legacy result shape
	IsFinal bool `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

type messageKind int

const (
	messageIgnored messageKind = iota
	messageConnected
	messageFragment
)

// parseServerMessage classifies one inbound text frame. Malformed JSON and
// unrecognized message types yield messageIgnored so a single bad frame
// never disturbs the stream.
func parseServerMessage(data []byte) (messageKind, Fragment) {
	var msg serverMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return messageIgnored, Fragment{}
	}

	switch msg.Type {
	case "Connected":
		return messageConnected, Fragment{}

	case "TurnInfo":
		final := msg.Event == "EndOfTurn" ||
			(msg.Event == "Update" && msg.EndOfTurnConfidence > endOfTurnConfidence)
		return messageFragment, Fragment{
			Text:       msg.Transcript,
			Final:      final,
			Confidence: msg.EndOfTurnConfidence,
		}

	case "Results":
		if len(msg.Channel.Alternatives) == 0 {
			return messageIgnored, Fragment{}
		}
		return messageFragment, Fragment{
			Text:  msg.Channel.Alternatives[0].Transcript,
			Final: msg.IsFinal,
		}

	default:
		return messageIgnored, Fragment{}
	}
}
