package keepsake

import (
	"fmt"
	"strings"
)

// Kind identifies one logical collection.
type Kind int

const (
	KindPhotoAnalyses Kind = iota
	KindCharacterExplorations
	KindSkillHeritages
	KindUserProfile
	KindAchievements
	KindSettings
	KindBackupHistory
	KindProgress

	numKinds
)

// VersionInfoKey holds the schema version record owned by the Migrator.
const VersionInfoKey = "versionInfo_v1"

type kindInfo struct {
	name      string
	key       string
	singleton bool
	// exported by "all" exports and backups
	exported bool
}

// kinds is indexed by Kind. Every Kind needs a row; TestKindTable checks it.
var kinds = [numKinds]kindInfo{
	KindPhotoAnalyses:         {name: "photoAnalyses", key: "photoAnalyses_v1", exported: true},
	KindCharacterExplorations: {name: "characterExplorations", key: "characterExplorations_v1", exported: true},
	KindSkillHeritages:        {name: "skillHeritages", key: "skillHeritages_v1", exported: true},
	KindUserProfile:           {name: "userProfile", key: "userProfile_v1", singleton: true, exported: true},
	KindAchievements:          {name: "achievements", key: "achievements_v1", exported: true},
	KindSettings:              {name: "settings", key: "dashboardSettings_v1", singleton: true, exported: true},
	KindBackupHistory:         {name: "backupHistory", key: "backupHistory_v1"},
	KindProgress:              {name: "progress", key: "userProgress_v1", singleton: true, exported: true},
}

// String returns the logical type name used in export documents.
func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kinds[k].name
}

// StorageKey returns the key the collection is persisted under.
func (k Kind) StorageKey() string { return kinds[k].key }

// Singleton reports whether the collection holds exactly one logical object.
func (k Kind) Singleton() bool { return kinds[k].singleton }

// AllKinds returns every Kind in declaration order.
func AllKinds() []Kind {
	out := make([]Kind, 0, numKinds)
	for k := Kind(0); k < numKinds; k++ {
		out = append(out, k)
	}
	return out
}

// ExportedKinds returns the kinds included when an export asks for "all".
func ExportedKinds() []Kind {
	var out []Kind
	for _, k := range AllKinds() {
		if kinds[k].exported {
			out = append(out, k)
		}
	}
	return out
}

// ParseKind maps a logical type name (case-insensitive) or storage key to a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range AllKinds() {
		if strings.EqualFold(s, kinds[k].name) || s == kinds[k].key {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}
