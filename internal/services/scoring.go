package services

import (
	"time"
)

// Confidence scoring weights. The blend is a policy choice: conversion
// outcome dominates, payment speed and pattern maturity refine it.
const (
	outcomeWeight = 0.5
	speedWeight   = 0.2
	sampleWeight  = 0.3

	// sampleMaturityK controls how fast n/(n+k) saturates.
	sampleMaturityK = 5.0

	// speedWindow normalizes time-to-payment: a payment inside seconds of
	// the snapshot scores near 1, one a day later scores near 0.
	speedWindow = 24 * time.Hour
)

// confidenceScore combines conversion outcome, normalized time-to-payment
// and pattern sample size into a single 0..1 score. It is monotonic in
// sampleSize and defined for zero samples (lowest maturity, not an error).
func confidenceScore(paid bool, timeToPayment time.Duration, sampleSize int) float64 {
	outcome := 0.0
	if paid {
		outcome = 1.0
	}

	speed := 0.0
	if timeToPayment >= 0 && timeToPayment < speedWindow {
		speed = 1.0 - float64(timeToPayment)/float64(speedWindow)
	}

	if sampleSize < 0 {
		sampleSize = 0
	}
	maturity := float64(sampleSize) / (float64(sampleSize) + sampleMaturityK)

	score := outcomeWeight*outcome + speedWeight*speed + sampleWeight*maturity
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
