package model

// SpeechSegment refers to an audio segment of a speech.
type SpeechSegment struct {
	LineIdx int    `json:"lineIdx"`
	Value   string `json:"value"`
}

// Speech is a continuous utterance of one speaker.
type Speech struct {
	SpeakerID string            `json:"speakerId"`
	Text      []LineElement     `json:"text"`
	Segments  []SpeechSegment   `json:"segments"`
	Metadata  map[string]string `json:"metadata"`
}

// SpeechLine groups speeches that overlap in time. Most lines contain
// exactly one speech.
type SpeechLine []Speech
