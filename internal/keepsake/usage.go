package keepsake

import (
	humanize "github.com/dustin/go-humanize"
)

// KeyUsage is the stored size of one key.
type KeyUsage struct {
	Key   string `json:"key"`
	Size  int64  `json:"size"`
	Human string `json:"sizeFormatted"`
}

// StorageUsage is the per-key and total stored size.
type StorageUsage struct {
	Keys       []KeyUsage `json:"keys"`
	Total      int64      `json:"total"`
	TotalHuman string     `json:"totalFormatted"`
}

// StorageUsage reports the bytes held by every schema key that is present.
func (m *Manager) StorageUsage() StorageUsage {
	keys := make([]string, 0, numKinds+1)
	for _, k := range AllKinds() {
		keys = append(keys, k.StorageKey())
	}
	keys = append(keys, VersionInfoKey)

	var u StorageUsage
	for _, key := range keys {
		raw, ok := m.ks.GetRaw(key)
		if !ok {
			continue
		}
		size := int64(len(raw))
		u.Keys = append(u.Keys, KeyUsage{Key: key, Size: size, Human: humanize.IBytes(uint64(size))})
		u.Total += size
	}
	u.TotalHuman = humanize.IBytes(uint64(u.Total))
	return u
}
