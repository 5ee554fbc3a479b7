package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table definitions handed to ent's migration engine on Open. They follow
// the layout ent's code generator emits for migrate/schema.go.
var (
	// KvColumns holds the columns for the "kv" table.
	KvColumns = []*schema.Column{
		{Name: "name", Type: field.TypeString, Unique: true},
		{Name: "value", Type: field.TypeString, Size: 2147483647},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// KvTable holds the schema information for the "kv" table.
	KvTable = &schema.Table{
		Name:       "kv",
		Columns:    KvColumns,
		PrimaryKey: []*schema.Column{KvColumns[0]},
	}

	// SnapshotsColumns holds the columns for the "snapshots" table.
	SnapshotsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "sequence", Type: field.TypeInt64},
		{Name: "user_id", Type: field.TypeInt},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "data", Type: field.TypeJSON},
	}
	// SnapshotsTable holds the schema information for the "snapshots" table.
	SnapshotsTable = &schema.Table{
		Name:       "snapshots",
		Columns:    SnapshotsColumns,
		PrimaryKey: []*schema.Column{SnapshotsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "snapshot_sequence", Unique: false, Columns: []*schema.Column{SnapshotsColumns[1]}},
			{Name: "snapshot_user_id", Unique: false, Columns: []*schema.Column{SnapshotsColumns[2]}},
		},
	}

	// LoadEventsColumns holds the columns for the "load_events" table.
	LoadEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "user_id", Type: field.TypeInt},
		{Name: "generation", Type: field.TypeInt64},
		{Name: "success", Type: field.TypeBool},
		{Name: "stale", Type: field.TypeBool, Default: false},
		{Name: "duration_ms", Type: field.TypeInt64},
		{Name: "dropped", Type: field.TypeInt, Default: 0},
		{Name: "error_message", Type: field.TypeString, Default: ""},
	}
	// LoadEventsTable holds the schema information for the "load_events" table.
	LoadEventsTable = &schema.Table{
		Name:       "load_events",
		Columns:    LoadEventsColumns,
		PrimaryKey: []*schema.Column{LoadEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "loadevent_timestamp", Unique: false, Columns: []*schema.Column{LoadEventsColumns[2]}},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		KvTable,
		SnapshotsTable,
		LoadEventsTable,
	}
)
