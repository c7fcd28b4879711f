package db

// Model must be implemented by every record persisted through the storage gateway's generic
// query helpers.
type Model interface {
	TableName() string
	PrimaryKey() string
	OnConflict() string
}
