package domain

// ChapterRef identifies one immutable chapter document within a session.
// Ordering is defined strictly by Seq, never by storage modification time.
type ChapterRef struct {
	// Namespace is the owning session id.
	Namespace string `json:"namespace"`

	// Seq is the 1-based sequence number, unique within the namespace.
	Seq int `json:"seq"`
}

// IsZero reports whether the ref does not point at any chapter.
func (r ChapterRef) IsZero() bool {
	return r.Namespace == "" && r.Seq == 0
}
