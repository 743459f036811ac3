package enums

// SyncStatus records the outcome of the most recent supplier sync per product.
type SyncStatus string

const (
	SyncStatusPending SyncStatus = "pending"
	SyncStatusSynced  SyncStatus = "synced"
	SyncStatusError   SyncStatus = "error"
)

// String implements fmt.Stringer.
func (s SyncStatus) String() string {
	return string(s)
}
