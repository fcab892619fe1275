package participants

// DefaultLender is the hub name used when none is configured.
const DefaultLender = "A"

// Defaults returns the starting registry for a new ledger.
func Defaults() []string {
	return []string{"Me (B)", "Friend (C)"}
}
