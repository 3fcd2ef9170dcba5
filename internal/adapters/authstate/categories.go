package authstate

import "strings"

// Key categories the engine stores. Longer names come first so that
// "sender-key-memory-x" is not counted as "sender-key".
var knownCategories = []string{
	"app-state-sync-version",
	"app-state-sync-key",
	"sender-key-memory",
	"sender-key",
	"lid-mapping",
	"device-list",
	"pre-key",
	"session",
}

func categoryOf(compositeKey string) string {
	for _, category := range knownCategories {
		if strings.HasPrefix(compositeKey, category+"-") {
			return category
		}
	}
	if idx := strings.LastIndex(compositeKey, "-"); idx > 0 {
		return compositeKey[:idx]
	}
	return compositeKey
}
