package services

import (
	"testing"
	"time"
)

func TestConfidenceScoreMonotonicInSampleSize(t *testing.T) {
	prev := -1.0
	for _, n := range []int{0, 1, 2, 5, 10, 50, 1000} {
		score := confidenceScore(true, time.Hour, n)
		if score <= prev {
			t.Fatalf("confidence not monotonic: n=%d score=%v prev=%v", n, score, prev)
		}
		if score < 0 || score > 1 {
			t.Fatalf("confidence out of range: n=%d score=%v", n, score)
		}
		prev = score
	}
}

func TestConfidenceScoreZeroSamplesDefined(t *testing.T) {
	score := confidenceScore(true, time.Hour, 0)
	if score <= 0 || score > 1 {
		t.Fatalf("zero-sample confidence out of range: %v", score)
	}
	// Negative sample counts are clamped, not an error.
	if got := confidenceScore(true, time.Hour, -3); got != score {
		t.Fatalf("negative sample size not clamped: %v != %v", got, score)
	}
}

func TestConfidenceScorePaidBeatsUnpaid(t *testing.T) {
	paid := confidenceScore(true, time.Hour, 10)
	unpaid := confidenceScore(false, time.Hour, 10)
	if paid <= unpaid {
		t.Fatalf("paid should outscore unpaid: %v <= %v", paid, unpaid)
	}
}

func TestConfidenceScoreFasterPaymentScoresHigher(t *testing.T) {
	fast := confidenceScore(true, 5*time.Minute, 10)
	slow := confidenceScore(true, 20*time.Hour, 10)
	if fast <= slow {
		t.Fatalf("faster payment should outscore slower: %v <= %v", fast, slow)
	}

	// Outside the window (or negative) speed contributes nothing.
	dayLate := confidenceScore(true, 48*time.Hour, 10)
	backwards := confidenceScore(true, -time.Hour, 10)
	if dayLate != backwards {
		t.Fatalf("out-of-window timings should score equally: %v != %v", dayLate, backwards)
	}
}
