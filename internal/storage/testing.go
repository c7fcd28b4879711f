package storage

// NewScopeForTesting builds a Scope directly over tx, bypassing Gateway.Work/Read's transaction
// management. Gateway.Work/Read cannot themselves be exercised against a mock, since Gateway's
// pool field is a concrete *pgxpool.Pool; this constructor lets other packages (resolver, autosub,
// activities) drive their Scope-consuming code against a pgxmock-backed Queryer instead.
func NewScopeForTesting(tx Queryer) *Scope {
	return &Scope{tx: tx}
}
