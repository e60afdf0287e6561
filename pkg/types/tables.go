package types

// Standard table names for Store.GetTable.
const (
	TableClips = "clips"
	TableRefs  = "refs"
)

// StandardTableNames lists all standard table names for enumeration.
var StandardTableNames = []string{
	TableClips,
	TableRefs,
}
