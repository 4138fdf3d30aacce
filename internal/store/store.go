// Package store defines the persisted checkout store: durable key/value
// storage scoped to a single browsing session, surviving page reloads within
// that session and discarded after a time-to-live.
package store

import "context"

// Field names one of the independently readable/writable checkout entries.
type Field string

// The persisted checkout fields. FieldLastModified is refreshed as a side
// effect of every other field's write.
const (
	FieldShippingAddress   Field = "shipping_address"
	FieldSelectedAddressID Field = "selected_address_id"
	FieldPaymentInfo       Field = "payment_info"
	FieldOrderID           Field = "order_id"
	FieldCurrentStep       Field = "current_step"
	FieldLastModified      Field = "last_modified"
)

// Fields returns every known checkout field, including the timestamp.
func Fields() []Field {
	return []Field{
		FieldShippingAddress,
		FieldSelectedAddressID,
		FieldPaymentInfo,
		FieldOrderID,
		FieldCurrentStep,
		FieldLastModified,
	}
}

// Store is a session-scoped key/value store for checkout progress.
//
// No method returns an error: checkout state is not safety-critical, so
// storage failures are logged by implementations and otherwise swallowed.
// A read that cannot be served (missing key, backend failure, corrupt data)
// simply reports absent.
type Store interface {
	// Read returns the stored value for the field, or ok=false if absent.
	Read(ctx context.Context, field Field) (value []byte, ok bool)

	// Write stores the value for the field and refreshes the shared
	// last-modified timestamp.
	Write(ctx context.Context, field Field, value []byte)

	// Clear removes every known checkout field.
	Clear(ctx context.Context)

	// IsExpired reports whether the last-modified timestamp is older than
	// the store's TTL. With no timestamp present there is nothing to
	// expire, so it reports false.
	IsExpired(ctx context.Context) bool
}
