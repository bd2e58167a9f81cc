package db

// Storage keys. Every key lives under the tdash: namespace.
const (
	TasksKey        = "tdash:tasks"
	LegacyMirrorKey = "tdash:tasks:legacy"
	RewardsKey      = "tdash:rewards"

	LegacyActionsKey = "tdash:legacy:actions"
	LegacyGTDKey     = "tdash:legacy:gtd"
	MigratedFlagKey  = "tdash:migrated:v1"
)

// Uncounted reports whether key holds a compatibility copy that is left out
// of quota accounting: the legacy mirror and the legacy import sources.
func Uncounted(key string) bool {
	switch key {
	case LegacyMirrorKey, LegacyActionsKey, LegacyGTDKey:
		return true
	}
	return false
}
