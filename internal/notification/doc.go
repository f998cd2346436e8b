// Package notification sends customer notifications for order outcomes. Each order gets
// at most one notification per type; failed deliveries are retried by a background sweep.
package notification
