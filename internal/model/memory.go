package model

import "encoding/json"

// SlotState tracks a single completeness slot: whether the assistant has
// collected it, and whatever opaque payload the generator attached.
type SlotState struct {
	Collected bool            `json:"collected"`
	Data      json.RawMessage `json:"data"`
}

// CollectedInfo is the fixed four-slot completeness map the generator
// maintains across a conversation. The slot set never changes.
type CollectedInfo struct {
	PersonalInfo SlotState `json:"personalInfo"`
	Education    SlotState `json:"education"`
	Experience   SlotState `json:"experience"`
	Skills       SlotState `json:"skills"`
}

// SessionMemory is the shape persisted into Session.MemoryData: the
// completeness map plus an embedded copy of the latest resume markup.
type SessionMemory struct {
	CollectedInfo
	ResumeHTML string `json:"resumeHtml,omitempty"`
}

// SessionSnapshot is the coherent view the reconciler hands out: exactly one
// session, its ordered transcript, and the last-known (sanitized) resume.
// Reconciliation replaces it wholesale; it is never merged incrementally.
type SessionSnapshot struct {
	SessionID  string        `json:"session_id"`
	Status     string        `json:"status"`
	Messages   []Message     `json:"messages"`
	Memory     SessionMemory `json:"memory"`
	ResumeHTML string        `json:"resume_html,omitempty"`
}
