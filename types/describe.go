package types

// DescribeTarget names an account together with the jurisdiction an entry
// was recorded under. Transfers lead with the account, taxes with the scope.
func DescribeTarget(account, scope string, transfer bool) string {
	switch {
	case scope == "":
		return account
	case transfer:
		return account + " (" + scope + ")"
	default:
		return scope + " (" + account + ")"
	}
}
