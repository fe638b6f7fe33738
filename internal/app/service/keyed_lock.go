package service

import (
	"sort"
	"sync"
)

// keyedMutex serializa por clave (guild/leader) sin bloquear al resto.
type keyedMutex struct {
	m sync.Map // key -> *sync.Mutex
}

func (k *keyedMutex) Lock(keys ...string) func() {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	held := make([]*sync.Mutex, 0, len(sorted))
	var prev string
	for i, key := range sorted {
		if i > 0 && key == prev {
			continue
		}
		prev = key
		v, _ := k.m.LoadOrStore(key, &sync.Mutex{})
		mu := v.(*sync.Mutex)
		mu.Lock()
		held = append(held, mu)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

func leaderKey(guildID, leaderID string) string { return guildID + "/" + leaderID }
