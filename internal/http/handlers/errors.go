// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and give clients a stable, machine-readable
// taxonomy next to the human-readable message. Generic codes mirror HTTP
// status semantics; domain codes name the operation that failed.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "not_ready",
//	  "message": "Calendar is not ready for purchase"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodePayloadTooLarge  = "payload_too_large"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeCreateFailed     = "create_failed"
	ErrCodeQueueUnavailable = "queue_unavailable"
	ErrCodePaymentsDisabled = "payments_disabled"
	ErrCodeNotReady         = "not_ready"
	ErrCodeAlreadyPurchased = "already_purchased"
	ErrCodeSessionMismatch  = "session_mismatch"
	ErrCodeCheckoutFailed   = "checkout_failed"
	ErrCodeVerifyFailed     = "verify_failed"
	ErrCodeInvalidSignature = "invalid_signature"
	ErrCodeWebhookFailed    = "webhook_failed"
)
