package registry

import (
	"github.com/ethereum/go-ethereum/common"
)

// roleStore is the flat capability table. It performs no authorization itself;
// grant and revoke are only reached after the caller was verified to be the admin.
type roleStore struct {
	admin        common.Address
	institutions map[common.Address]struct{}
}

func newRoleStore(admin common.Address) *roleStore {
	return &roleStore{
		admin:        admin,
		institutions: make(map[common.Address]struct{}),
	}
}

func (r *roleStore) IsAdmin(addr common.Address) bool {
	return addr == r.admin
}

func (r *roleStore) IsInstitution(addr common.Address) bool {
	_, ok := r.institutions[addr]
	return ok
}

func (r *roleStore) grantInstitution(addr common.Address) {
	r.institutions[addr] = struct{}{}
}

func (r *roleStore) revokeInstitution(addr common.Address) {
	delete(r.institutions, addr)
}
