package domain

import (
	"github.com/templategenius/revenue-intel-backend/internal/domain/client"
	"github.com/templategenius/revenue-intel-backend/internal/domain/content"
	"github.com/templategenius/revenue-intel-backend/internal/domain/payment"
)

// Journey page types. The guided journey is a fixed 4-step sequence.
const (
	PageActivation   = "activation"
	PageAgreement    = "agreement"
	PageConfirmation = "confirmation"
	PageProcessing   = "processing"
)

// PageTypes lists the journey pages in order.
var PageTypes = []string{PageActivation, PageAgreement, PageConfirmation, PageProcessing}

// Client journey outcomes (closed enum).
const (
	OutcomePending   = "pending"
	OutcomePaid      = "paid"
	OutcomeGhosted   = "ghosted"
	OutcomeResponded = "responded"
)

// ContentVersion outcomes.
const (
	VersionOutcomePending = "pending"
	VersionOutcomeSuccess = "success"
	VersionOutcomeFailure = "failure"
)

// Normalized payment event statuses.
const (
	PaymentSucceeded = "succeeded"
	PaymentFailed    = "failed"
	PaymentPending   = "pending"
	PaymentRefunded  = "refunded"
)

// Correlation outcome types.
const (
	CorrelationPaid     = "paid"
	CorrelationFailed   = "failed"
	CorrelationRefunded = "refunded"
	CorrelationPending  = "pending"
)

// Correlation worker statuses on PaymentEvent.
const (
	CorrelationQueued  = "queued"
	CorrelationRunning = "running"
	CorrelationDone    = "done"
	CorrelationErrored = "failed"
	CorrelationSkipped = "skipped"
)

// Timing flags on correlations.
const (
	TimingNegative = "negative"
	TimingStale    = "stale"
)

// Client statuses (soft transitions only).
const (
	ClientActive   = "active"
	ClientArchived = "archived"
)

// Webhook failure reasons.
const (
	FailureInvalidSignature = "invalid_signature"
	FailureUnparseable      = "unparseable"
)

type Client = client.Client

type ContentVersion = content.ContentVersion
type ContentSnapshot = content.ContentSnapshot
type CapturedPage = content.CapturedPage

type PaymentEvent = payment.PaymentEvent
type PaymentOutcomeCorrelation = payment.PaymentOutcomeCorrelation
type CorrelationOverride = payment.CorrelationOverride
type WebhookFailure = payment.WebhookFailure

var ClientTokenPattern = client.TokenPattern

// ValidPageType reports whether p names one of the four journey pages.
func ValidPageType(p string) bool {
	for _, t := range PageTypes {
		if t == p {
			return true
		}
	}
	return false
}

// ValidClientOutcome reports whether o is a member of the closed journey
// outcome enum. Invalid values fail validation; no silent coercion.
func ValidClientOutcome(o string) bool {
	switch o {
	case OutcomePending, OutcomePaid, OutcomeGhosted, OutcomeResponded:
		return true
	default:
		return false
	}
}

// TerminalClientOutcome reports whether o is terminal for analytics
// purposes. Terminal labels may be relabeled, but never transition back to
// pending outside the audited override path.
func TerminalClientOutcome(o string) bool {
	switch o {
	case OutcomePaid, OutcomeGhosted, OutcomeResponded:
		return true
	default:
		return false
	}
}
