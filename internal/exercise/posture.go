package exercise

// PostureHold keeps a posture alert on screen for a fixed number of frames
// after it was last raised. While active it takes precedence over rep
// feedback.
type PostureHold struct {
	frames    int
	remaining int
	msg       string
}

// NewPostureHold creates a hold lasting frames frames. Zero disables it.
func NewPostureHold(frames int) *PostureHold {
	return &PostureHold{frames: frames}
}

// Trigger raises msg and restarts the countdown. It reports whether the
// alert is new, that is the hold was idle or showed a different message.
func (h *PostureHold) Trigger(msg string) bool {
	fresh := h.remaining == 0 || h.msg != msg
	if h.frames == 0 {
		return false
	}
	h.msg = msg
	h.remaining = h.frames
	return fresh
}

// Tick counts down one frame without an alert.
func (h *PostureHold) Tick() {
	if h.remaining == 0 {
		return
	}
	h.remaining--
	if h.remaining == 0 {
		h.msg = ""
	}
}

// Message returns the active alert, or "" once the hold has expired.
func (h *PostureHold) Message() string {
	if h.remaining > 0 {
		return h.msg
	}
	return ""
}

// Remaining returns how many more frames the alert will be shown.
func (h *PostureHold) Remaining() int {
	return h.remaining
}
