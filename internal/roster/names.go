package roster

import "fmt"

// nameSet hands out display names that do not collide with names already seated.
type nameSet struct {
	taken  map[string]bool
	cpuSeq int
}

func newNameSet() *nameSet {
	return &nameSet{taken: make(map[string]bool)}
}

func (n *nameSet) take(name string) {
	n.taken[name] = true
}

// unique returns base, or base followed by the first free " (k)" suffix.
func (n *nameSet) unique(base string) string {
	if base == "" {
		base = "Player"
	}
	name := base
	for k := 2; n.taken[name]; k++ {
		name = fmt.Sprintf("%s (%d)", base, k)
	}
	n.taken[name] = true
	return name
}

// nextCPU returns the next free "CPU k" name.
func (n *nameSet) nextCPU() string {
	for {
		n.cpuSeq++
		name := fmt.Sprintf("CPU %d", n.cpuSeq)
		if !n.taken[name] {
			n.taken[name] = true
			return name
		}
	}
}
