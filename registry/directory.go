package registry

import (
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/trustedcert-registry/interfaces"
)

// directory holds institution metadata keyed by wallet, remembering insertion order.
// Removed entries are deleted outright, the order of the remaining ones is kept.
type directory struct {
	order   []common.Address
	entries map[common.Address]interfaces.Institution
}

func newDirectory() *directory {
	return &directory{
		entries: make(map[common.Address]interfaces.Institution),
	}
}

func (d *directory) has(wallet common.Address) bool {
	_, ok := d.entries[wallet]
	return ok
}

func (d *directory) get(wallet common.Address) (interfaces.Institution, bool) {
	inst, ok := d.entries[wallet]
	return inst, ok
}

func (d *directory) put(inst interfaces.Institution) {
	if !d.has(inst.Wallet) {
		d.order = append(d.order, inst.Wallet)
	}
	d.entries[inst.Wallet] = inst
}

func (d *directory) remove(wallet common.Address) {
	if !d.has(wallet) {
		return
	}
	delete(d.entries, wallet)
	d.order = slices.DeleteFunc(d.order, func(w common.Address) bool { return w == wallet })
}

func (d *directory) len() int {
	return len(d.order)
}

func (d *directory) list() interfaces.InstitutionList {
	list := make(interfaces.InstitutionList, 0, len(d.order))
	for _, wallet := range d.order {
		list = append(list, d.entries[wallet])
	}
	return list
}
