package allowlist

import "strings"

// Lists maps a scope key to token symbols. The key is either "*" (global)
// or a chain id; the entry "*" inside a scope matches every symbol.
type Lists map[string][]string

const globalKey = "*"

// Empty reports whether the list set carries no entries at all.
func (l Lists) Empty() bool {
	for _, symbols := range l {
		if len(symbols) > 0 {
			return false
		}
	}
	return true
}

// InWildcardList reports whether symbol matches the global scope or, when
// chainID is non-empty, that chain's scope. Symbol comparison is
// case-insensitive; a "*" entry matches any symbol.
func InWildcardList(symbol string, list Lists, chainID string) bool {
	if len(list) == 0 || symbol == "" {
		return false
	}
	if matchScope(symbol, list[globalKey]) {
		return true
	}
	if chainID != "" && matchScope(symbol, list[chainID]) {
		return true
	}
	return false
}

func matchScope(symbol string, entries []string) bool {
	for _, entry := range entries {
		if entry == globalKey {
			return true
		}
		if strings.EqualFold(entry, symbol) {
			return true
		}
	}
	return false
}

// IsAllowed evaluates the combined allow/block policy for a token symbol
// scoped to a chain. Missing symbol or chain id resolves to false: the
// lists are always chain-scoped, so an unscoped query cannot be trusted.
func IsAllowed(symbol, chainID string, allow, block Lists) bool {
	if symbol == "" || chainID == "" {
		return false
	}
	if !allow.Empty() && !InWildcardList(symbol, allow, chainID) {
		return false
	}
	if !block.Empty() && InWildcardList(symbol, block, chainID) {
		return false
	}
	return true
}
