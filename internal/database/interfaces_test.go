package database

// Both adapters must satisfy the composed interface the composition root
// passes around.
var (
	_ Database = (*PostgresDB)(nil)
	_ Database = (*MemoryDB)(nil)
)
