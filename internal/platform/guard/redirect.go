package guard

import (
	"net/http"

	"portal_backend/internal/platform/clientsession"
)

// Redirect-loop detection defaults. A legitimate multi-hop chain (login →
// role panel → sub-panel) can exceed a naive count threshold, so a loop is
// only declared when the requested path repeats within the recent history.
const (
	DefaultRedirectThreshold = 5
	DefaultHistoryLimit      = 10
	DefaultRepeatWindow      = 3
)

// LoopPolicy tunes the redirect-loop detector. Zero values fall back to the
// defaults above.
type LoopPolicy struct {
	// Threshold is the redirect count above which path repetition is checked.
	Threshold int
	// HistoryLimit bounds the recorded path history.
	HistoryLimit int
	// RepeatWindow is how many recent history entries a path must reappear
	// in to count as a cycle.
	RepeatWindow int
}

func (p LoopPolicy) withDefaults() LoopPolicy {
	if p.Threshold <= 0 {
		p.Threshold = DefaultRedirectThreshold
	}
	if p.HistoryLimit <= 0 {
		p.HistoryLimit = DefaultHistoryLimit
	}
	if p.RepeatWindow <= 0 {
		p.RepeatWindow = DefaultRepeatWindow
	}
	return p
}

// CheckLoop inspects the client's redirect state before the request runs and
// reports whether a redirect loop was detected. On detection the counters and
// history are reset so the client converges instead of looping again.
func CheckLoop(s *clientsession.State, path string, p LoopPolicy) bool {
	p = p.withDefaults()

	if s.RedirectCount <= p.Threshold {
		return false
	}
	if len(s.RedirectHistory) >= p.RepeatWindow && pathInTail(s.RedirectHistory, path, p.RepeatWindow) {
		s.RedirectCount = 0
		s.RedirectHistory = nil
		return true
	}
	return false
}

// ObserveResponse advances the redirect state after the response status is
// known: redirect-class responses increment the count and record the
// requested path; any terminal response resets the tracker to idle.
func ObserveResponse(s *clientsession.State, path string, status int, p LoopPolicy) {
	p = p.withDefaults()

	if !isRedirectStatus(status) {
		s.RedirectCount = 0
		s.RedirectHistory = nil
		return
	}

	s.RedirectCount++
	s.RedirectHistory = append(s.RedirectHistory, path)
	if len(s.RedirectHistory) > p.HistoryLimit {
		s.RedirectHistory = s.RedirectHistory[len(s.RedirectHistory)-p.HistoryLimit:]
	}
}

func pathInTail(history []string, path string, window int) bool {
	start := len(history) - window
	if start < 0 {
		start = 0
	}
	for _, p := range history[start:] {
		if p == path {
			return true
		}
	}
	return false
}

func isRedirectStatus(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}
